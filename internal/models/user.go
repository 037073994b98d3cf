// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package models

import "time"

// Preferences are the banks a user holds cards with and the categories
// they care about. Recommendations are computed from these.
type Preferences struct {
	Banks     []string `json:"banks" bson:"banks" validate:"max=30,dive,required,max=100"`
	Interests []string `json:"interests" bson:"interests" validate:"max=30,dive,required,max=100"`
}

// UserProfile is the users/{uid} document.
type UserProfile struct {
	ID          string      `json:"id" bson:"_id" validate:"required,max=128"`
	DisplayName string      `json:"display_name,omitempty" bson:"display_name,omitempty" validate:"max=100"`
	Onboarded   bool        `json:"onboarded" bson:"onboarded"`
	Preferences Preferences `json:"preferences" bson:"preferences"`
	UpdatedAt   time.Time   `json:"updated_at" bson:"updated_at"`
}
