// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/centraldescuentos/internal/breaker"
)

// BreakerCompleter guards a Completer with a circuit breaker. A missing
// API key is a configuration state, not an upstream failure, and never
// trips it.
type BreakerCompleter struct {
	next Completer
	cb   *breaker.Breaker[string]
}

// NewBreakerCompleter wraps next.
func NewBreakerCompleter(next Completer, settings breaker.Settings) *BreakerCompleter {
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrMissingAPIKey) || errors.Is(err, context.Canceled)
	}
	return &BreakerCompleter{next: next, cb: breaker.New[string]("ai-api", settings)}
}

// Complete implements Completer. A rejected call is reported as ErrUpstream.
func (b *BreakerCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	answer, err := b.cb.Execute(func() (string, error) {
		return b.next.Complete(ctx, messages)
	})
	if breaker.IsOpen(err) {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return answer, err
}
