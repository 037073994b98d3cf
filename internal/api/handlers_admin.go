// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/centraldescuentos/internal/audit"
	"github.com/tomtom215/centraldescuentos/internal/models"
	"github.com/tomtom215/centraldescuentos/internal/validation"
)

// CreateDiscount serves POST /admin/discounts.
func (h *Handler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var d models.Discount
	if err := decodeJSON(w, r, &d); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	created, err := h.discounts.Create(r.Context(), d)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	h.audit.Record(r, audit.ActionCreate, audit.Target{ID: created.ID}, map[string]any{"name": created.Name})
	rw.Created(created)
}

// UpdateDiscount serves PATCH /admin/discounts/{id}. The body is a partial
// document keyed by JSON field name.
func (h *Handler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var patch map[string]any
	if err := decodeJSON(w, r, &patch); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	updated, err := h.discounts.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	fields := make([]string, 0, len(patch))
	for k := range patch {
		fields = append(fields, k)
	}
	slices.Sort(fields)
	h.audit.Record(r, audit.ActionUpdate, audit.Target{ID: updated.ID}, map[string]any{"fields": fields})
	rw.Success(updated)
}

// DeleteDiscount serves DELETE /admin/discounts/{id}.
func (h *Handler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	if _, err := h.discounts.Get(r.Context(), id); err != nil {
		writeServiceError(rw, err)
		return
	}
	if err := h.discounts.Delete(r.Context(), id); err != nil {
		writeServiceError(rw, err)
		return
	}
	h.audit.Record(r, audit.ActionDelete, audit.Target{ID: id}, nil)
	rw.Success(map[string]any{"id": id, "deleted": true})
}

// BulkDeleteDiscounts serves POST /admin/discounts/bulk-delete.
func (h *Handler) BulkDeleteDiscounts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError("Validation failed", verr.Messages())
		return
	}

	existing, err := h.discounts.CountExisting(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	batches, err := h.discounts.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	h.audit.Record(r, audit.ActionBulkDelete, audit.Target{IDs: req.IDs, Count: existing},
		map[string]any{"requested": len(req.IDs)})
	rw.Success(BulkDeleteResponse{Requested: len(req.IDs), Deleted: existing, Batches: batches})
}

// DeleteByCriteria serves POST /admin/discounts/delete-by-criteria.
func (h *Handler) DeleteByCriteria(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req DeleteByCriteriaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError("Validation failed", verr.Messages())
		return
	}

	matched, err := h.discounts.DeleteByCriteria(r.Context(), req.Criteria)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	h.audit.Record(r, audit.ActionDeleteByCriteria, audit.Target{Count: matched}, map[string]any{"criteria": req.Criteria})
	rw.Success(BulkDeleteResponse{Requested: matched, Deleted: matched, Batches: batchCount(matched)})
}

// ImportDiscounts serves POST /admin/discounts/import. Invalid records are
// reported in the result and do not fail the request.
func (h *Handler) ImportDiscounts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError("Validation failed", verr.Messages())
		return
	}

	res, err := h.discounts.Import(r.Context(), req.Discounts)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	h.audit.Record(r, audit.ActionImport, audit.Target{Count: res.Imported}, map[string]any{"rejected": len(res.Rejected)})
	rw.Success(res)
}

// SetApproval serves POST /admin/discounts/{id}/approval.
func (h *Handler) SetApproval(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ApprovalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError("Validation failed", verr.Messages())
		return
	}

	updated, err := h.discounts.SetApproval(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	h.audit.Record(r, audit.ActionApproval, audit.Target{ID: updated.ID}, map[string]any{"status": updated.ApprovalStatus})
	rw.Success(updated)
}

// SetVisibility serves POST /admin/discounts/{id}/visibility.
func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req VisibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError("Validation failed", verr.Messages())
		return
	}

	updated, err := h.discounts.SetVisibility(r.Context(), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	h.audit.Record(r, audit.ActionVisibility, audit.Target{ID: updated.ID}, map[string]any{"active": *req.Active})
	rw.Success(updated)
}

// AuditLog serves GET /admin/audit?action=&target=&since=&limit=. since is
// RFC 3339.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	filter := audit.QueryFilter{
		Action:   audit.Action(q.Get("action")),
		TargetID: q.Get("target"),
		Limit:    audit.DefaultQueryLimit,
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			rw.BadRequest("since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 1000 {
			rw.BadRequest("limit must be between 1 and 1000")
			return
		}
		filter.Limit = limit
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.List(events, len(events))
}
