// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Action is the kind of catalogue change.
type Action string

const (
	ActionCreate           Action = "create"
	ActionUpdate           Action = "update"
	ActionDelete           Action = "delete"
	ActionBulkDelete       Action = "bulk_delete"
	ActionDeleteByCriteria Action = "delete_by_criteria"
	ActionImport           Action = "import"
	ActionApproval         Action = "approval"
	ActionVisibility       Action = "visibility"
	ActionCacheClear       Action = "cache_clear"
	ActionBackup           Action = "backup"
	ActionBackupDelete     Action = "backup_delete"
	ActionRestore          Action = "restore"
	ActionContentUpdate    Action = "content_update"
	ActionContentDelete    Action = "content_delete"
)

// Target is what an action touched. IDs is set for bulk actions, ID for
// single-document ones.
type Target struct {
	ID    string   `json:"id,omitempty"`
	IDs   []string `json:"ids,omitempty"`
	Count int      `json:"count"`
}

// Source identifies the client that made the change.
type Source struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent,omitempty"`
	// Actor is the verified token subject of the admin.
	Actor string `json:"actor,omitempty"`
}

// Event is one recorded change.
type Event struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Action    Action          `json:"action"`
	Target    Target          `json:"target"`
	Source    Source          `json:"source"`
	RequestID string          `json:"request_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// QueryFilter selects events. Zero fields match everything.
type QueryFilter struct {
	Action   Action
	TargetID string
	Since    time.Time
	Limit    int
}

// Store persists events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)
}
