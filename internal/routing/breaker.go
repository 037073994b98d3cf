// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/centraldescuentos/internal/breaker"
	"github.com/tomtom215/centraldescuentos/internal/geo"
)

// errServerStatus marks a 5xx answer as a failure for the breaker. It
// never leaves this file.
var errServerStatus = errors.New("routing API server error")

// BreakerDirectioner guards a Directioner with a circuit breaker. Server
// errors and transport failures count against the circuit; client errors
// and a missing API key do not.
type BreakerDirectioner struct {
	next Directioner
	cb   *breaker.Breaker[*Route]
}

// NewBreakerDirectioner wraps next.
func NewBreakerDirectioner(next Directioner, settings breaker.Settings) *BreakerDirectioner {
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrMissingAPIKey) || errors.Is(err, context.Canceled)
	}
	return &BreakerDirectioner{next: next, cb: breaker.New[*Route]("routing-api", settings)}
}

// Directions implements Directioner.
func (b *BreakerDirectioner) Directions(ctx context.Context, start, end geo.Coordinate) (*Route, error) {
	route, err := b.cb.Execute(func() (*Route, error) {
		route, err := b.next.Directions(ctx, start, end)
		if err == nil && route.StatusCode >= 500 {
			return route, errServerStatus
		}
		return route, err
	})
	switch {
	case errors.Is(err, errServerStatus):
		return route, nil
	case breaker.IsOpen(err):
		return nil, fmt.Errorf("routing API unavailable: %w", err)
	}
	return route, err
}
