// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package backup

import (
	"errors"
	"time"

	"github.com/tomtom215/centraldescuentos/internal/models"
)

// Trigger records what started a snapshot.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

var (
	// ErrNotFound is returned for an unknown snapshot id.
	ErrNotFound = errors.New("backup not found")

	// ErrChecksumMismatch is returned when a snapshot file was modified.
	ErrChecksumMismatch = errors.New("backup checksum mismatch")
)

// Backup describes one snapshot.
type Backup struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	CreatedAt time.Time `json:"created_at"`
	Trigger   Trigger   `json:"trigger"`
	Discounts int       `json:"discounts"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
}

// snapshotVersion is bumped when the file layout changes.
const snapshotVersion = 1

type snapshot struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Discounts []models.Discount `json:"discounts"`
}
