// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/centraldescuentos/internal/category"
	"github.com/tomtom215/centraldescuentos/internal/discounts"
	"github.com/tomtom215/centraldescuentos/internal/geo"
	"github.com/tomtom215/centraldescuentos/internal/models"
)

// maxQueryLen bounds the search term and category parameters.
const maxQueryLen = 200

// ListDiscounts serves GET /discounts.
//
// Query parameters:
//   - q: case-insensitive search over name, description and category
//   - category: canonical category or free text, matched with synonyms
//   - all: "true" includes unpublished discounts (admin listing)
func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	query := r.URL.Query()

	term := strings.TrimSpace(query.Get("q"))
	cat := strings.TrimSpace(query.Get("category"))
	if len(term) > maxQueryLen || len(cat) > maxQueryLen {
		rw.BadRequest("q and category must be at most 200 characters")
		return
	}
	includeAll := false
	if raw := query.Get("all"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			rw.BadRequest("all must be a boolean")
			return
		}
		includeAll = v
	}

	var (
		list []models.Discount
		err  error
	)
	if includeAll {
		list, err = h.discounts.Search(r.Context(), term)
	} else {
		list, err = h.discounts.ListPublished(r.Context())
		list = discounts.FilterByTerm(list, term)
	}
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	if cat != "" {
		list = category.FilterDiscountsByCategory(list, cat)
	}

	list = emptyIfNil(list)
	rw.List(list, len(list))
}

// GetDiscount serves GET /discounts/{id}. Unpublished and expired discounts
// are only visible through the admin listing.
func (h *Handler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	d, err := h.discounts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	if !d.Published() || d.ExpiredAt(h.now()) {
		rw.NotFound("Discount not found")
		return
	}
	rw.Success(d)
}

// Categories serves GET /categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	keys := category.Categories()
	out := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		out = append(out, map[string]any{
			"key":      key,
			"synonyms": category.Synonyms(key),
		})
	}
	NewResponseWriter(w, r).List(out, len(out))
}

// GeoDistance serves GET /geo/distance?from=lat,lng&to=lat,lng.
func (h *Handler) GeoDistance(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rawFrom, rawTo := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if rawFrom == "" || rawTo == "" {
		rw.BadRequest("from and to are required as lat,lng")
		return
	}
	from, err := geo.ParseLatLng(rawFrom)
	if err != nil {
		rw.BadRequest("from: " + err.Error())
		return
	}
	to, err := geo.ParseLatLng(rawTo)
	if err != nil {
		rw.BadRequest("to: " + err.Error())
		return
	}

	km := geo.CalculateDistance(from, to)
	rw.Success(DistanceResponse{Kilometers: km, Formatted: geo.FormatDistance(km)})
}
