// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package models defines the records stored in the document store and
exchanged over the API.

Field names are identical in JSON and BSON so that query predicates,
criteria maps and PATCH bodies can address fields by one name regardless
of the storage driver. The document id is "id" in JSON and "_id" in BSON.
*/
package models

import (
	"time"

	"github.com/tomtom215/centraldescuentos/internal/validation"
)

// Status is the visibility state of a discount.
type Status string

// Discount statuses.
const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
)

// ApprovalStatus is the admin workflow state of a discount.
type ApprovalStatus string

// Approval states.
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Source records how a discount entered the system.
type Source string

// Discount sources.
const (
	SourceManual   Source = "manual"
	SourceScraping Source = "scraping"
)

// Discount is a merchant or bank offer.
type Discount struct {
	ID          string   `json:"id" bson:"_id" validate:"required,max=128"`
	Name        string   `json:"name" bson:"name" validate:"required,max=200"`
	Description string   `json:"description,omitempty" bson:"description,omitempty" validate:"max=2000"`
	Category    string   `json:"category" bson:"category" validate:"required,max=100"`
	Percentage  *float64 `json:"percentage,omitempty" bson:"percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	Amount      *float64 `json:"amount,omitempty" bson:"amount,omitempty" validate:"omitempty,gt=0"`

	ValidFrom  *time.Time `json:"valid_from,omitempty" bson:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty" bson:"valid_until,omitempty"`

	// Memberships are the cards or programs a user must hold.
	Memberships []string `json:"memberships,omitempty" bson:"memberships,omitempty" validate:"max=50,dive,required,max=100"`
	Bank        string   `json:"bank,omitempty" bson:"bank,omitempty" validate:"max=100"`
	URL         string   `json:"url,omitempty" bson:"url,omitempty" validate:"omitempty,url"`
	ImageURL    string   `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`

	Status         Status         `json:"status" bson:"status" validate:"required,oneof=active inactive expired"`
	ApprovalStatus ApprovalStatus `json:"approval_status" bson:"approval_status" validate:"required,oneof=pending approved rejected"`
	Source         Source         `json:"source" bson:"source" validate:"required,oneof=manual scraping"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate checks tag rules plus the rules that span fields. It returns nil
// when d is valid.
func (d *Discount) Validate() *validation.RequestValidationError {
	verr := validation.ValidateStruct(d)
	if d.ValidFrom != nil && d.ValidUntil != nil && d.ValidUntil.Before(*d.ValidFrom) {
		verr = verr.Append("valid_until", "window", "valid_until must not be before valid_from")
	}
	if d.Percentage != nil && d.Amount != nil {
		verr = verr.Append("amount", "excluded_with", "amount cannot be set together with percentage")
	}
	return verr
}

// Published reports whether d is shown in the public listing.
func (d *Discount) Published() bool {
	return d.Status == StatusActive && d.ApprovalStatus == ApprovalApproved
}

// ExpiredAt reports whether the validity window closed before now.
func (d *Discount) ExpiredAt(now time.Time) bool {
	return d.ValidUntil != nil && d.ValidUntil.Before(now)
}
