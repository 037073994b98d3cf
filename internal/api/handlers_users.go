// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/models"
	"github.com/tomtom215/centraldescuentos/internal/store"
	"github.com/tomtom215/centraldescuentos/internal/validation"
)

// GetPreferences serves GET /users/{userID}/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if errors.Is(err, store.ErrNotFound) {
		rw.NotFound("User not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(user)
}

// PutPreferences serves PUT /users/{userID}/preferences. The profile is
// created on first use and marked onboarded. The user's cached
// recommendations are dropped.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	var req PreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user = models.UserProfile{ID: userID}
	case err != nil:
		rw.DatabaseError(err)
		return
	}

	user.Preferences = req.Preferences
	if user.Preferences.Banks == nil {
		user.Preferences.Banks = []string{}
	}
	if user.Preferences.Interests == nil {
		user.Preferences.Interests = []string{}
	}
	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	user.Onboarded = true
	user.UpdatedAt = h.now().UTC()

	if verr := validation.ValidateStruct(&user); verr != nil {
		rw.ValidationError("Validation failed", verr.Messages())
		return
	}
	if err := h.users.PutUser(r.Context(), user); err != nil {
		rw.DatabaseError(err)
		return
	}
	if h.recommender != nil {
		h.recommender.Invalidate(userID)
	}

	logging.Ctx(r.Context()).Info().
		Str("user_id", userID).
		Int("banks", len(user.Preferences.Banks)).
		Int("interests", len(user.Preferences.Interests)).
		Msg("Preferences updated")
	rw.Success(user)
}
