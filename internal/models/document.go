// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package models

import "time"

// Document is a schemaless app document: a support FAQ or terms entry, a
// user's daily route or their latest fuel recommendation. Data is stored
// and returned as the client sent it.
type Document struct {
	ID        string         `json:"id" validate:"required,max=128"`
	Data      map[string]any `json:"data" validate:"required,min=1"`
	UpdatedAt time.Time      `json:"updated_at"`
}
