// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package store

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/centraldescuentos/internal/models"
)

// Op is a comparison operator in a Predicate.
type Op string

// Supported operators.
const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpGt  Op = "gt"
	OpGte Op = "gte"
)

// Predicate compares one discount field against a value.
type Predicate struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

// Query is a conjunction of predicates. The zero Query matches everything.
//
// Equality against a list field (memberships) tests membership, which is
// also how document stores treat array fields.
type Query struct {
	Predicates []Predicate `json:"predicates"`
}

// Where starts a query with one predicate.
func Where(field string, op Op, value any) Query {
	return Query{}.And(field, op, value)
}

// And returns a copy of q with one more predicate.
func (q Query) And(field string, op Op, value any) Query {
	preds := make([]Predicate, 0, len(q.Predicates)+1)
	preds = append(preds, q.Predicates...)
	preds = append(preds, Predicate{Field: field, Op: op, Value: value})
	return Query{Predicates: preds}
}

// Equals builds a conjunctive equality query from a criteria map. Fields are
// ordered by name so the result is deterministic.
func Equals(criteria map[string]any) Query {
	fields := make([]string, 0, len(criteria))
	for f := range criteria {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	var q Query
	for _, f := range fields {
		q = q.And(f, OpEq, criteria[f])
	}
	return q
}

// fieldKind describes how values of a discount field compare.
type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindTime
	kindList
)

var discountFields = map[string]fieldKind{
	"id":              kindString,
	"name":            kindString,
	"description":     kindString,
	"category":        kindString,
	"bank":            kindString,
	"url":             kindString,
	"image_url":       kindString,
	"status":          kindString,
	"approval_status": kindString,
	"source":          kindString,
	"percentage":      kindNumber,
	"amount":          kindNumber,
	"valid_from":      kindTime,
	"valid_until":     kindTime,
	"created_at":      kindTime,
	"updated_at":      kindTime,
	"memberships":     kindList,
}

// Validate reports unknown fields, unknown operators, range operators on
// list fields, and values of the wrong type.
func (q Query) Validate() error {
	for _, p := range q.Predicates {
		kind, ok := discountFields[p.Field]
		if !ok {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, p.Field)
		}
		switch p.Op {
		case OpEq, OpNe:
		case OpLt, OpLte, OpGt, OpGte:
			if kind == kindList {
				return fmt.Errorf("%w: operator %q not supported on %q", ErrInvalidQuery, p.Op, p.Field)
			}
			if p.Value == nil {
				return fmt.Errorf("%w: operator %q needs a value for %q", ErrInvalidQuery, p.Op, p.Field)
			}
		default:
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, p.Op)
		}
		if p.Value == nil {
			continue
		}
		if _, err := NormalizeValue(p.Field, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeValue converts a predicate value to the Go type the field is
// compared as: string, float64 or time.Time. List fields compare their
// elements as strings. RFC 3339 strings are accepted for time fields.
func NormalizeValue(field string, v any) (any, error) {
	kind, ok := discountFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, field)
	}
	if v == nil {
		return nil, nil
	}
	switch kind {
	case kindString, kindList:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case kindNumber:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint()), nil
		}
	case kindTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case *time.Time:
			if t != nil {
				return t.UTC(), nil
			}
			return nil, nil
		case string:
			parsed, err := time.Parse(time.RFC3339, t)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an RFC 3339 time for %q", ErrInvalidQuery, t, field)
			}
			return parsed.UTC(), nil
		}
	}
	return nil, fmt.Errorf("%w: value %v has the wrong type for %q", ErrInvalidQuery, v, field)
}

// fieldValue extracts a field from d in its comparison type. A nil result
// means the field is absent.
func fieldValue(d *models.Discount, field string) any {
	switch field {
	case "id":
		return d.ID
	case "name":
		return d.Name
	case "description":
		return optional(d.Description)
	case "category":
		return d.Category
	case "bank":
		return optional(d.Bank)
	case "url":
		return optional(d.URL)
	case "image_url":
		return optional(d.ImageURL)
	case "status":
		return string(d.Status)
	case "approval_status":
		return string(d.ApprovalStatus)
	case "source":
		return string(d.Source)
	case "percentage":
		if d.Percentage == nil {
			return nil
		}
		return *d.Percentage
	case "amount":
		if d.Amount == nil {
			return nil
		}
		return *d.Amount
	case "valid_from":
		if d.ValidFrom == nil {
			return nil
		}
		return d.ValidFrom.UTC()
	case "valid_until":
		if d.ValidUntil == nil {
			return nil
		}
		return d.ValidUntil.UTC()
	case "created_at":
		return d.CreatedAt.UTC()
	case "updated_at":
		return d.UpdatedAt.UTC()
	case "memberships":
		return d.Memberships
	}
	return nil
}

// optional maps an empty string to absent, as the stores omit such fields.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Matches evaluates q against d in memory. Invalid predicates never match.
func (q Query) Matches(d *models.Discount) bool {
	for _, p := range q.Predicates {
		if !p.matches(d) {
			return false
		}
	}
	return true
}

func (p Predicate) matches(d *models.Discount) bool {
	want, err := NormalizeValue(p.Field, p.Value)
	if err != nil {
		return false
	}
	got := fieldValue(d, p.Field)

	if list, ok := got.([]string); ok {
		if want == nil {
			return (len(list) == 0) == (p.Op == OpEq)
		}
		contains := slices.Contains(list, want.(string))
		switch p.Op {
		case OpEq:
			return contains
		case OpNe:
			return !contains
		}
		return false
	}

	if got == nil || want == nil {
		bothNil := got == nil && want == nil
		switch p.Op {
		case OpEq:
			return bothNil
		case OpNe:
			return !bothNil
		}
		return false
	}

	c, ok := compare(got, want)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	}
	return false
}

func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}
