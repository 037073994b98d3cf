// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package services

import (
	"context"
	"time"

	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
)

// DefaultDiscardRatio is the share of stale data a value log file needs
// before Badger rewrites it.
const DefaultDiscardRatio = 0.5

// GCRunner is implemented by store.BadgerStore.
type GCRunner interface {
	RunGC(discardRatio float64) error
}

// StoreGCService garbage collects the Badger value log on an interval.
type StoreGCService struct {
	store        GCRunner
	interval     time.Duration
	discardRatio float64
}

// NewStoreGCService creates the service. A non-positive interval means
// 10 minutes.
func NewStoreGCService(store GCRunner, interval time.Duration) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreGCService{store: store, interval: interval, discardRatio: DefaultDiscardRatio}
}

// Serve implements suture.Service. GC failures are logged and counted but
// do not stop the loop; the next tick retries.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *StoreGCService) runOnce() {
	start := time.Now()
	err := s.store.RunGC(s.discardRatio)
	metrics.RecordStoreGC(err)
	if err != nil {
		logging.Warn().Err(err).Msg("Value log GC failed")
		return
	}
	logging.Debug().Dur("took", time.Since(start)).Msg("Value log GC finished")
}

func (s *StoreGCService) String() string {
	return "store-gc"
}
