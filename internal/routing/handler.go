// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package routing

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/geo"
	"github.com/tomtom215/centraldescuentos/internal/logging"
)

// Directioner is the part of Client the handler needs.
type Directioner interface {
	Directions(ctx context.Context, start, end geo.Coordinate) (*Route, error)
}

// Handler serves GET /api/distance?start=lng,lat&end=lng,lat.
//
// A successful upstream answer is written unchanged. Non-GET methods get
// 405, a missing or malformed pair gets 400, and an upstream error status
// is relayed with a JSON error body. Errors use the {"error": "..."} shape
// the app expects from this endpoint.
type Handler struct {
	client Directioner
}

// NewHandler creates a Handler.
func NewHandler(client Directioner) *Handler {
	return &Handler{client: client}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rawStart, rawEnd := r.URL.Query().Get("start"), r.URL.Query().Get("end")
	if rawStart == "" || rawEnd == "" {
		writeError(w, http.StatusBadRequest, ErrMissingCoordinates.Error())
		return
	}
	start, err := geo.ParseLngLat(rawStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := geo.ParseLngLat(rawEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.client.Directions(r.Context(), start, end)
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		logging.Ctx(r.Context()).Warn().Msg("Distance requested but no routing API key is configured")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		logging.CtxErr(r.Context(), err).Msg("Routing API request failed")
		writeError(w, http.StatusBadGateway, "Error fetching route")
		return
	}

	if route.StatusCode < 200 || route.StatusCode >= 300 {
		logging.Ctx(r.Context()).Warn().
			Int("upstream_status", route.StatusCode).
			Msg("Routing API returned an error")
		writeError(w, route.StatusCode, "Error fetching route")
		return
	}

	contentType := route.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(route.StatusCode)
	_, _ = w.Write(route.Body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
