// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package discounts

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/models"
)

// Fields a patch may not touch. updated_at is set by the service.
var protectedFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// applyPatch overlays patch onto the JSON form of d and decodes the result
// back. Unknown fields and values of the wrong type are rejected.
func applyPatch(d *models.Discount, patch map[string]any) error {
	if len(patch) == 0 {
		return fmt.Errorf("%w: empty update", ErrInvalidDiscount)
	}
	for field := range patch {
		if protectedFields[field] {
			return fmt.Errorf("%w: field %q cannot be changed", ErrInvalidDiscount, field)
		}
	}

	current, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode discount: %w", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(current, &doc); err != nil {
		return fmt.Errorf("decode discount: %w", err)
	}
	for field, value := range patch {
		doc[field] = value
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDiscount, err)
	}

	var next models.Discount
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDiscount, err)
	}
	*d = next
	return nil
}
