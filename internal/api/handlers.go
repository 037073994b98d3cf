// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"context"
	"time"

	"github.com/tomtom215/centraldescuentos/internal/audit"
	"github.com/tomtom215/centraldescuentos/internal/backup"
	"github.com/tomtom215/centraldescuentos/internal/cache"
	"github.com/tomtom215/centraldescuentos/internal/discounts"
	"github.com/tomtom215/centraldescuentos/internal/models"
	"github.com/tomtom215/centraldescuentos/internal/recommend"
	"github.com/tomtom215/centraldescuentos/internal/store"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
	Name() string
}

// Recommender produces and invalidates cached recommendations.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommend.Result, error)
	Invalidate(userID string)
	InvalidateAll() int
	CacheStats() cache.Stats
}

// BackupManager takes and restores catalogue snapshots.
type BackupManager interface {
	Create(ctx context.Context, trigger backup.Trigger) (backup.Backup, error)
	List() []backup.Backup
	Delete(id string) error
	Restore(ctx context.Context, id string) (int, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: health and liveness
//   - handlers_discounts.go: public listing, categories, geo distance
//   - handlers_users.go: user preferences
//   - handlers_documents.go: support content, daily routes, fuel recommendations
//   - handlers_recommend.go: recommendations and their cache
//   - handlers_admin.go: discount curation and its audit trail
//   - handlers_backup.go: catalogue snapshots
type Handler struct {
	store       Pinger
	users       store.UserStore
	documents   store.DocumentStore
	discounts   *discounts.Service
	recommender Recommender
	audit       *audit.Logger
	backups     BackupManager
	version     string
	startTime   time.Time
	now         func() time.Time
}

// HandlerDeps are the collaborators of a Handler.
type HandlerDeps struct {
	Store       Pinger
	Users       store.UserStore
	Documents   store.DocumentStore
	Discounts   *discounts.Service
	Recommender Recommender
	Audit       *audit.Logger // optional
	Backups     BackupManager // optional
	Version     string
}

// NewHandler creates a new API handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		store:       deps.Store,
		users:       deps.Users,
		documents:   deps.Documents,
		discounts:   deps.Discounts,
		recommender: deps.Recommender,
		audit:       deps.Audit,
		backups:     deps.Backups,
		version:     deps.Version,
		startTime:   time.Now(),
		now:         time.Now,
	}
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil(ds []models.Discount) []models.Discount {
	if ds == nil {
		return []models.Discount{}
	}
	return ds
}
