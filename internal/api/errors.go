// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/centraldescuentos/internal/discounts"
	"github.com/tomtom215/centraldescuentos/internal/recommend"
	"github.com/tomtom215/centraldescuentos/internal/store"
	"github.com/tomtom215/centraldescuentos/internal/validation"
)

// ErrEmptyBody is returned when a JSON body is required but absent.
var ErrEmptyBody = errors.New("request body is required")

// writeServiceError maps errors from the discount service and the store
// onto the envelope. Unrecognized errors are store failures.
func writeServiceError(rw *ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		rw.ValidationError("Validation failed", verr.Messages())
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound("Discount not found")
	case errors.Is(err, discounts.ErrInvalidDiscount),
		errors.Is(err, discounts.ErrEmptyCriteria),
		errors.Is(err, store.ErrInvalidQuery):
		rw.BadRequest(err.Error())
	case errors.Is(err, store.ErrConflict):
		rw.Conflict("The discount was modified concurrently, retry the request")
	default:
		rw.DatabaseError(err)
	}
}

// writeRecommendError maps a failed recommendation onto the envelope,
// keeping the failure Result as details.
func writeRecommendError(rw *ResponseWriter, res recommend.Result, err error) {
	switch {
	case errors.Is(err, recommend.ErrMissingAPIKey):
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, err.Error(), res)
	case errors.Is(err, recommend.ErrUpstream), errors.Is(err, recommend.ErrBadAnswer):
		rw.ExternalServiceError("ai", err)
	default:
		rw.DatabaseError(err)
	}
}
