// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package services

import (
	"context"
	"time"

	"github.com/tomtom215/centraldescuentos/internal/backup"
	"github.com/tomtom215/centraldescuentos/internal/logging"
)

// Snapshotter is implemented by backup.Manager.
type Snapshotter interface {
	Create(ctx context.Context, trigger backup.Trigger) (backup.Backup, error)
}

// BackupService takes a scheduled catalogue snapshot on an interval.
type BackupService struct {
	snapshots Snapshotter
	interval  time.Duration
}

// NewBackupService creates the service. A non-positive interval means 24h.
func NewBackupService(snapshots Snapshotter, interval time.Duration) *BackupService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &BackupService{snapshots: snapshots, interval: interval}
}

// Serve implements suture.Service. A failed snapshot is logged and retried
// on the next tick.
func (s *BackupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.snapshots.Create(ctx, backup.TriggerScheduled); err != nil {
				logging.Error().Err(err).Msg("Scheduled catalogue snapshot failed")
			}
		}
	}
}

func (s *BackupService) String() string {
	return "catalog-backup"
}
