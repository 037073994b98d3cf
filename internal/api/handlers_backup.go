// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/centraldescuentos/internal/audit"
	"github.com/tomtom215/centraldescuentos/internal/backup"
)

func (h *Handler) backupsAvailable(rw *ResponseWriter) bool {
	if h.backups == nil {
		rw.ServiceUnavailable("Catalogue backups are not configured")
		return false
	}
	return true
}

func writeBackupError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, backup.ErrNotFound):
		rw.NotFound("Backup not found")
	case errors.Is(err, backup.ErrChecksumMismatch):
		rw.Conflict("Backup file does not match its checksum")
	default:
		rw.DatabaseError(err)
	}
}

// ListBackups serves GET /admin/backups.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsAvailable(rw) {
		return
	}
	list := h.backups.List()
	rw.List(list, len(list))
}

// CreateBackup serves POST /admin/backups.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsAvailable(rw) {
		return
	}
	b, err := h.backups.Create(r.Context(), backup.TriggerManual)
	if err != nil {
		writeBackupError(rw, err)
		return
	}
	h.audit.Record(r, audit.ActionBackup, audit.Target{ID: b.ID, Count: b.Discounts}, nil)
	rw.Created(b)
}

// DeleteBackup serves DELETE /admin/backups/{id}.
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsAvailable(rw) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.backups.Delete(id); err != nil {
		writeBackupError(rw, err)
		return
	}
	h.audit.Record(r, audit.ActionBackupDelete, audit.Target{ID: id}, nil)
	rw.Success(map[string]any{"id": id, "deleted": true})
}

// RestoreBackup serves POST /admin/backups/{id}/restore. Cached
// recommendations are dropped since the catalogue they ranked changed.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.backupsAvailable(rw) {
		return
	}
	id := chi.URLParam(r, "id")
	n, err := h.backups.Restore(r.Context(), id)
	if err != nil {
		writeBackupError(rw, err)
		return
	}
	h.recommender.InvalidateAll()
	h.audit.Record(r, audit.ActionRestore, audit.Target{ID: id, Count: n}, nil)
	rw.Success(map[string]any{"id": id, "restored": n})
}
