// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/centraldescuentos/internal/logging"
)

func serveWithRequestID(t *testing.T, incoming string) (header, inContext, correlation string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inContext = logging.RequestIDFromContext(r.Context())
		correlation = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/discounts", nil)
	if incoming != "" {
		req.Header.Set(RequestIDHeader, incoming)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get(RequestIDHeader), inContext, correlation
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	t.Parallel()

	header, ctxID, correlation := serveWithRequestID(t, "")
	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("generated id %q is not a UUID: %v", header, err)
	}
	if ctxID != header {
		t.Errorf("context id %q != header id %q", ctxID, header)
	}
	if correlation == "" {
		t.Error("correlation id missing from context")
	}
}

func TestRequestID_Incoming(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"uuid", "0b9a3c1e-7f2d-4b8a-9c61-1d2e3f4a5b6c", true},
		{"short token", "req_42", true},
		{"newline injection", "abc\nlevel=error", false},
		{"spaces", "a b", false},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			header, ctxID, _ := serveWithRequestID(t, tt.incoming)
			if tt.keep && header != tt.incoming {
				t.Errorf("header = %q, want incoming id kept", header)
			}
			if !tt.keep && header == tt.incoming {
				t.Errorf("malformed id %q was propagated", tt.incoming)
			}
			if ctxID != header {
				t.Errorf("context id %q != header id %q", ctxID, header)
			}
		})
	}
}
