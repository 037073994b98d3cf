// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package store

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/centraldescuentos/internal/models"
)

func ptr[T any](v T) *T { return &v }

func sampleDiscount() models.Discount {
	until := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	return models.Discount{
		ID:             "d1",
		Name:           "2x1 en cines",
		Category:       "entretenimiento",
		Percentage:     ptr(50.0),
		ValidUntil:     &until,
		Memberships:    []string{"visa", "club-la-nacion"},
		Bank:           "galicia",
		Status:         models.StatusActive,
		ApprovalStatus: models.ApprovalApproved,
		Source:         models.SourceManual,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestQuery_Matches(t *testing.T) {
	t.Parallel()

	d := sampleDiscount()

	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"empty query matches", Query{}, true},
		{"string eq", Where("category", OpEq, "entretenimiento"), true},
		{"string eq mismatch", Where("category", OpEq, "moda"), false},
		{"string ne", Where("bank", OpNe, "santander"), true},
		{"typed status value", Where("status", OpEq, models.StatusActive), true},
		{"number gte int value", Where("percentage", OpGte, 50), true},
		{"number gt", Where("percentage", OpGt, 50.0), false},
		{"absent number never compares", Where("amount", OpLt, 100), false},
		{"absent number eq nil", Where("amount", OpEq, nil), true},
		{"empty optional string is absent", Where("description", OpEq, nil), true},
		{"present string ne nil", Where("bank", OpNe, nil), true},
		{"time lt rfc3339", Where("valid_until", OpLt, "2027-01-01T00:00:00Z"), true},
		{"time gte time.Time", Where("valid_until", OpGte, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)), false},
		{"list eq is membership", Where("memberships", OpEq, "visa"), true},
		{"list eq missing member", Where("memberships", OpEq, "amex"), false},
		{"list ne", Where("memberships", OpNe, "amex"), true},
		{"conjunction all true", Where("category", OpEq, "entretenimiento").And("bank", OpEq, "galicia"), true},
		{"conjunction one false", Where("category", OpEq, "entretenimiento").And("bank", OpEq, "bbva"), false},
		{"wrong value type never matches", Where("percentage", OpEq, "fifty"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.query.Matches(&d); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuery_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"valid", Where("category", OpEq, "moda"), false},
		{"unknown field", Where("colour", OpEq, "red"), true},
		{"unknown operator", Where("category", Op("like"), "mo"), true},
		{"range on list", Where("memberships", OpGt, "a"), true},
		{"range needs value", Where("percentage", OpLt, nil), true},
		{"bad time", Where("valid_from", OpGt, "yesterday"), true},
		{"number as string", Where("amount", OpEq, "10"), true},
		{"nil equality allowed", Where("bank", OpEq, nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("error %v does not wrap ErrInvalidQuery", err)
			}
		})
	}
}

func TestEquals_SortsFields(t *testing.T) {
	t.Parallel()

	q := Equals(map[string]any{"source": "scraping", "bank": "galicia", "category": "moda"})
	var fields []string
	for _, p := range q.Predicates {
		if p.Op != OpEq {
			t.Errorf("predicate %s op = %s, want eq", p.Field, p.Op)
		}
		fields = append(fields, p.Field)
	}
	want := []string{"bank", "category", "source"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestQuery_AndDoesNotAlias(t *testing.T) {
	t.Parallel()

	base := Where("category", OpEq, "moda")
	a := base.And("bank", OpEq, "galicia")
	b := base.And("bank", OpEq, "bbva")

	if len(base.Predicates) != 1 {
		t.Fatalf("base mutated: %v", base.Predicates)
	}
	if a.Predicates[1].Value != "galicia" || b.Predicates[1].Value != "bbva" {
		t.Errorf("derived queries share storage: a=%v b=%v", a.Predicates, b.Predicates)
	}
}

func TestMongoFilter(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query Query
		want  bson.M
	}{
		{"empty", Query{}, bson.M{}},
		{"id maps to _id", Where("id", OpEq, "d1"), bson.M{"_id": bson.M{"$eq": "d1"}}},
		{
			"range merged on one field",
			Where("percentage", OpGte, 10).And("percentage", OpLt, 50),
			bson.M{"percentage": bson.M{"$gte": 10.0, "$lt": 50.0}},
		},
		{
			"time normalized",
			Where("valid_from", OpGt, "2026-03-01T00:00:00Z"),
			bson.M{"valid_from": bson.M{"$gt": from}},
		},
		{
			"several fields",
			Equals(map[string]any{"bank": "galicia", "status": models.StatusActive}),
			bson.M{"bank": bson.M{"$eq": "galicia"}, "status": bson.M{"$eq": "active"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := MongoFilter(tt.query)
			if err != nil {
				t.Fatalf("MongoFilter() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MongoFilter() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := MongoFilter(Where("nope", OpEq, 1)); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("unknown field error = %v, want ErrInvalidQuery", err)
	}
}
