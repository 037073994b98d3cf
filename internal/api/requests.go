// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/models"
	"github.com/tomtom215/centraldescuentos/internal/store"
)

// maxBodyBytes bounds JSON request bodies. Imports are the largest.
const maxBodyBytes = 8 << 20

// BulkDeleteRequest is the body of POST /admin/discounts/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=10000,dive,required,max=128"`
}

// DeleteByCriteriaRequest is the body of POST /admin/discounts/delete-by-criteria.
type DeleteByCriteriaRequest struct {
	Criteria map[string]any `json:"criteria" validate:"required,min=1,max=20"`
}

// ImportRequest is the body of POST /admin/discounts/import.
type ImportRequest struct {
	Discounts []models.Discount `json:"discounts" validate:"required,min=1,max=10000"`
}

// ApprovalRequest is the body of POST /admin/discounts/{id}/approval.
type ApprovalRequest struct {
	Status models.ApprovalStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}

// VisibilityRequest is the body of POST /admin/discounts/{id}/visibility.
type VisibilityRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// PreferencesRequest is the body of PUT /users/{userID}/preferences.
type PreferencesRequest struct {
	DisplayName *string            `json:"display_name,omitempty" validate:"omitempty,max=100"`
	Preferences models.Preferences `json:"preferences"`
}

// DocumentRequest is the body of document PUT endpoints.
type DocumentRequest struct {
	Data map[string]any `json:"data"`
}

// BulkDeleteResponse reports a bulk or criteria delete.
type BulkDeleteResponse struct {
	Requested int `json:"requested"`
	Deleted   int `json:"deleted"`
	Batches   int `json:"batches"`
}

// DistanceResponse is the body of GET /geo/distance.
type DistanceResponse struct {
	Kilometers float64 `json:"kilometers"`
	Formatted  string  `json:"formatted"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status         string  `json:"status"`
	Version        string  `json:"version"`
	Store          string  `json:"store"`
	StoreConnected bool    `json:"store_connected"`
	CacheEntries   int     `json:"cache_entries"`
	CacheHits      int64   `json:"cache_hits"`
	CacheMisses    int64   `json:"cache_misses"`
	Uptime         float64 `json:"uptime_seconds"`
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// batchCount is the number of commits DeleteMany needs for n ids.
func batchCount(n int) int {
	return (n + store.MaxBatchSize - 1) / store.MaxBatchSize
}
