// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/centraldescuentos/internal/audit"
	"github.com/tomtom215/centraldescuentos/internal/recommend"
	"github.com/tomtom215/centraldescuentos/internal/store"
)

// Recommendations serves GET /recommendations/{userID}.
//
// Banks and interests come from the stored profile. The optional banks and
// interests query parameters (comma separated) override them, which lets
// the app preview recommendations before saving preferences.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")
	query := r.URL.Query()

	req := recommend.Request{UserID: userID}
	banksParam, interestsParam := query.Has("banks"), query.Has("interests")
	if !banksParam || !interestsParam {
		user, err := h.users.GetUser(r.Context(), userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			rw.NotFound("User not found")
			return
		case err != nil:
			rw.DatabaseError(err)
			return
		}
		req.Banks = user.Preferences.Banks
		req.Interests = user.Preferences.Interests
	}
	if banksParam {
		req.Banks = splitList(query.Get("banks"))
	}
	if interestsParam {
		req.Interests = splitList(query.Get("interests"))
	}

	res, err := h.recommender.Recommend(r.Context(), req)
	if err != nil {
		writeRecommendError(rw, res, err)
		return
	}
	rw.Success(res)
}

// ClearUserRecommendations serves DELETE /recommendations/{userID}/cache.
func (h *Handler) ClearUserRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	h.recommender.Invalidate(userID)
	NewResponseWriter(w, r).Success(map[string]any{"user_id": userID, "cleared": true})
}

// ClearAllRecommendations serves DELETE /admin/recommendations/cache.
func (h *Handler) ClearAllRecommendations(w http.ResponseWriter, r *http.Request) {
	n := h.recommender.InvalidateAll()
	h.audit.Record(r, audit.ActionCacheClear, audit.Target{Count: n}, nil)
	NewResponseWriter(w, r).Success(map[string]any{"cleared": n})
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
