// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package validation

import (
	"strings"
	"testing"
)

type sampleOffer struct {
	Name       string   `json:"name" validate:"required,max=20"`
	Status     string   `json:"status" validate:"required,oneof=active inactive"`
	Percentage *float64 `json:"percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	Tags       []string `json:"tags" validate:"max=2"`
}

func ptr(f float64) *float64 { return &f }

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name         string
		input        sampleOffer
		wantMessages []string
	}{
		{
			name:  "valid",
			input: sampleOffer{Name: "2x1 cine", Status: "active", Percentage: ptr(50)},
		},
		{
			name:         "missing name",
			input:        sampleOffer{Status: "active"},
			wantMessages: []string{"name is required"},
		},
		{
			name:         "bad status",
			input:        sampleOffer{Name: "x", Status: "archived"},
			wantMessages: []string{"status must be one of: active inactive"},
		},
		{
			name:         "percentage above range",
			input:        sampleOffer{Name: "x", Status: "active", Percentage: ptr(120)},
			wantMessages: []string{"percentage must be less than or equal to 100"},
		},
		{
			name:  "every failure collected",
			input: sampleOffer{Name: strings.Repeat("a", 21), Tags: []string{"a", "b", "c"}},
			wantMessages: []string{
				"name must be at most 20 characters",
				"status is required",
				"tags must contain at most 2 items",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if len(tt.wantMessages) == 0 {
				if verr != nil {
					t.Fatalf("expected no error, got %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error, got nil")
			}
			got := verr.Messages()
			if len(got) != len(tt.wantMessages) {
				t.Fatalf("got %d messages %v, want %v", len(got), got, tt.wantMessages)
			}
			for i := range got {
				if got[i] != tt.wantMessages[i] {
					t.Errorf("message[%d] = %q, want %q", i, got[i], tt.wantMessages[i])
				}
			}
		})
	}
}

func TestRequestValidationError_Append(t *testing.T) {
	var verr *RequestValidationError
	verr = verr.Append("valid_until", "window", "valid_until must not be before valid_from")
	verr = verr.Append("amount", "excluded_with", "amount cannot be set together with percentage")

	if len(verr.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(verr.Errors()))
	}
	if !strings.Contains(verr.Error(), "; ") {
		t.Errorf("Error() should join messages, got %q", verr.Error())
	}
	if verr.Errors()[0].Field != "valid_until" {
		t.Errorf("first field = %q, want valid_until", verr.Errors()[0].Field)
	}
}
