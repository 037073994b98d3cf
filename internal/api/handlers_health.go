// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"context"
	"net/http"
	"time"
)

// healthPingTimeout bounds the store ping of a health check.
const healthPingTimeout = 2 * time.Second

// Health reports store connectivity and recommendation cache counters.
// A store that does not answer makes the service "degraded" and the
// status 503, so load balancers stop routing to it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	connected := h.store != nil && h.store.Ping(ctx) == nil

	status := HealthStatus{
		Status:         "healthy",
		Version:        h.version,
		StoreConnected: connected,
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if h.store != nil {
		status.Store = h.store.Name()
	}
	if h.recommender != nil {
		stats := h.recommender.CacheStats()
		status.CacheEntries = stats.Entries
		status.CacheHits = stats.Hits
		status.CacheMisses = stats.Misses
	}

	if !connected {
		status.Status = "degraded"
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Store is not reachable", status)
		return
	}
	rw.Success(status)
}

// HealthLive returns 200 while the process is running.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}
