// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/logging"
)

// maxRequestBytes bounds the accepted request body.
const maxRequestBytes = 64 << 10

// Sender is the part of Client the handler needs.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (Result, int, error)
}

// Handler serves POST /api/notifications/send.
type Handler struct {
	sender Sender
}

// NewHandler creates a Handler.
func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

// ServeHTTP answers {notificationId, recipients} on success and {error}
// otherwise. Provider error statuses are relayed; unreachable provider and
// missing credentials map to 502 and 500.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, Result{Error: "Method not allowed"})
		return
	}

	var req SendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Result{Error: "Invalid JSON body"})
		return
	}
	if verr := req.Validate(); verr != nil {
		writeJSON(w, http.StatusBadRequest, Result{Error: strings.Join(verr.Messages(), "; ")})
		return
	}

	res, status, err := h.sender.Send(r.Context(), req)
	switch {
	case err == nil:
		logging.Ctx(r.Context()).Info().
			Str("notification_id", res.NotificationID).
			Int("recipients", res.Recipients).
			Bool("send_to_all", req.SendToAll).
			Msg("Push notification sent")
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, ErrMissingAPIKey):
		logging.Ctx(r.Context()).Error().Msg("Push notification requested but credentials are not configured")
		writeJSON(w, http.StatusInternalServerError, res)
	case status >= 400:
		logging.CtxErr(r.Context(), err).Int("upstream_status", status).Msg("Push provider rejected notification")
		writeJSON(w, status, res)
	default:
		logging.CtxErr(r.Context(), err).Msg("Push notification failed")
		writeJSON(w, http.StatusBadGateway, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
