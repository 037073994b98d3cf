// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/centraldescuentos/internal/audit"
	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/models"
	"github.com/tomtom215/centraldescuentos/internal/store"
	"github.com/tomtom215/centraldescuentos/internal/validation"
)

// routeDateLayout is the {date} format of daily route documents.
const routeDateLayout = "2006-01-02"

const maxPathSegment = 128

// supportCollections maps the {kind} URL segment to its collection.
var supportCollections = map[string]string{
	"faqs":  store.SupportFAQsCollection,
	"terms": store.SupportTermsCollection,
}

// ListSupport serves GET /support/{kind}.
func (h *Handler) ListSupport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	collection, ok := h.supportCollection(rw, r)
	if !ok {
		return
	}

	docs, err := h.documents.ListDocuments(r.Context(), collection)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.List(docs, len(docs))
}

// PutSupport serves PUT /admin/support/{kind}/{id}.
func (h *Handler) PutSupport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	collection, ok := h.supportCollection(rw, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	doc, ok := h.putDocument(rw, w, r, collection, id)
	if !ok {
		return
	}
	h.audit.Record(r, audit.ActionContentUpdate, audit.Target{ID: id}, map[string]any{"collection": collection})
	rw.Success(doc)
}

// DeleteSupport serves DELETE /admin/support/{kind}/{id}.
func (h *Handler) DeleteSupport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	collection, ok := h.supportCollection(rw, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.documents.DeleteDocument(r.Context(), collection, id); err != nil {
		writeDocumentError(rw, err, "Document not found")
		return
	}
	h.audit.Record(r, audit.ActionContentDelete, audit.Target{ID: id}, map[string]any{"collection": collection})
	rw.Success(map[string]any{"id": id, "deleted": true})
}

// GetDailyRoute serves GET /users/{userID}/routes/{date}.
func (h *Handler) GetDailyRoute(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	collection, date, ok := h.dailyRoutePath(rw, r)
	if !ok {
		return
	}
	h.getDocument(rw, r, collection, date, "Route not found")
}

// PutDailyRoute serves PUT /users/{userID}/routes/{date}.
func (h *Handler) PutDailyRoute(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	collection, date, ok := h.dailyRoutePath(rw, r)
	if !ok {
		return
	}
	if doc, ok := h.putDocument(rw, w, r, collection, date); ok {
		rw.Success(doc)
	}
}

// GetFuelRecommendation serves GET /users/{userID}/fuel-recommendations/latest.
func (h *Handler) GetFuelRecommendation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	collection, ok := h.fuelPath(rw, r)
	if !ok {
		return
	}
	h.getDocument(rw, r, collection, store.LatestFuelRecommendation, "No fuel recommendation yet")
}

// PutFuelRecommendation serves PUT /users/{userID}/fuel-recommendations/latest.
// Each write replaces the previous recommendation.
func (h *Handler) PutFuelRecommendation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	collection, ok := h.fuelPath(rw, r)
	if !ok {
		return
	}
	if doc, ok := h.putDocument(rw, w, r, collection, store.LatestFuelRecommendation); ok {
		rw.Success(doc)
	}
}

func (h *Handler) supportCollection(rw *ResponseWriter, r *http.Request) (string, bool) {
	if h.documents == nil {
		rw.ServiceUnavailable("Document store not configured")
		return "", false
	}
	collection, ok := supportCollections[chi.URLParam(r, "kind")]
	if !ok {
		rw.NotFound("Unknown support collection")
		return "", false
	}
	return collection, true
}

func (h *Handler) dailyRoutePath(rw *ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := h.documentUser(rw, r)
	if !ok {
		return "", "", false
	}
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(routeDateLayout, date); err != nil {
		rw.BadRequest("date must be formatted as YYYY-MM-DD")
		return "", "", false
	}
	return store.DailyRoutesCollection(userID), date, true
}

func (h *Handler) fuelPath(rw *ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := h.documentUser(rw, r)
	if !ok {
		return "", false
	}
	return store.FuelRecommendationsCollection(userID), true
}

func (h *Handler) documentUser(rw *ResponseWriter, r *http.Request) (string, bool) {
	if h.documents == nil {
		rw.ServiceUnavailable("Document store not configured")
		return "", false
	}
	userID := chi.URLParam(r, "userID")
	if userID == "" || len(userID) > maxPathSegment {
		rw.BadRequest("invalid user id")
		return "", false
	}
	return userID, true
}

func (h *Handler) getDocument(rw *ResponseWriter, r *http.Request, collection, id, notFound string) {
	doc, err := h.documents.GetDocument(r.Context(), collection, id)
	if err != nil {
		writeDocumentError(rw, err, notFound)
		return
	}
	rw.Success(doc)
}

func writeDocumentError(rw *ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound(notFound)
	case errors.Is(err, store.ErrInvalidPath):
		rw.BadRequest("invalid document path")
	default:
		rw.DatabaseError(err)
	}
}

// putDocument decodes, validates and stores the request body as id. On
// failure the response is already written.
func (h *Handler) putDocument(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, collection, id string) (models.Document, bool) {
	var req DocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return models.Document{}, false
	}

	doc := models.Document{ID: id, Data: req.Data, UpdatedAt: h.now().UTC()}
	if verr := validation.ValidateStruct(&doc); verr != nil {
		rw.ValidationError("Validation failed", verr.Messages())
		return models.Document{}, false
	}
	if err := h.documents.PutDocument(r.Context(), collection, doc); err != nil {
		writeDocumentError(rw, err, "")
		return models.Document{}, false
	}

	logging.Ctx(r.Context()).Debug().
		Str("collection", collection).
		Str("id", id).
		Msg("Document stored")
	return doc, true
}
