// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package models

import (
	"strings"
	"testing"
	"time"
)

func validDiscount() Discount {
	pct := 25.0
	return Discount{
		ID:             "d1",
		Name:           "25% en cines",
		Category:       "entretenimiento",
		Percentage:     &pct,
		Memberships:    []string{"visa-galicia"},
		Status:         StatusActive,
		ApprovalStatus: ApprovalApproved,
		Source:         SourceManual,
	}
}

func TestDiscountValidate(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	before := from.Add(-24 * time.Hour)
	amount := 500.0

	tests := []struct {
		name    string
		mutate  func(*Discount)
		wantErr string
	}{
		{"valid", func(*Discount) {}, ""},
		{"missing name", func(d *Discount) { d.Name = "" }, "name is required"},
		{"unknown status", func(d *Discount) { d.Status = "archived" }, "status must be one of"},
		{"unknown source", func(d *Discount) { d.Source = "api" }, "source must be one of"},
		{"window reversed", func(d *Discount) { d.ValidFrom = &from; d.ValidUntil = &before }, "valid_until must not be before valid_from"},
		{"percentage and amount", func(d *Discount) { d.Amount = &amount }, "amount cannot be set together with percentage"},
		{"blank membership", func(d *Discount) { d.Memberships = []string{""} }, "is required"},
		{"bad url", func(d *Discount) { d.URL = "not a url" }, "url must be a valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := validDiscount()
			tt.mutate(&d)
			verr := d.Validate()
			if tt.wantErr == "" {
				if verr != nil {
					t.Fatalf("expected valid discount, got %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(verr.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", verr.Error(), tt.wantErr)
			}
		})
	}
}

func TestDiscountPublished(t *testing.T) {
	t.Parallel()

	d := validDiscount()
	if !d.Published() {
		t.Error("approved active discount should be published")
	}
	d.ApprovalStatus = ApprovalPending
	if d.Published() {
		t.Error("pending discount should not be published")
	}
}

func TestDiscountExpiredAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	d := validDiscount()
	if d.ExpiredAt(now) {
		t.Error("discount without valid_until never expires")
	}
	past := now.Add(-time.Hour)
	d.ValidUntil = &past
	if !d.ExpiredAt(now) {
		t.Error("discount with past valid_until should be expired")
	}
}
