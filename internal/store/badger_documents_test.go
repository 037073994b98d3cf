// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/centraldescuentos/internal/models"
)

func TestBadgerStore_Documents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestBadger(t)

	routes := DailyRoutesCollection("u1")
	doc := models.Document{
		ID:        "2026-06-15",
		Data:      map[string]any{"km": 12.5, "stops": []any{"YPF", "Shell"}},
		UpdatedAt: time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC),
	}
	if err := s.PutDocument(ctx, routes, doc); err != nil {
		t.Fatalf("PutDocument() error = %v", err)
	}

	got, err := s.GetDocument(ctx, routes, "2026-06-15")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.ID != doc.ID || got.Data["km"] != 12.5 || !got.UpdatedAt.Equal(doc.UpdatedAt) {
		t.Errorf("GetDocument() = %+v", got)
	}

	tests := []struct {
		name       string
		collection string
		id         string
	}{
		{"other user", DailyRoutesCollection("u2"), "2026-06-15"},
		{"other date", routes, "2026-06-16"},
		{"sibling collection", FuelRecommendationsCollection("u1"), "2026-06-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := s.GetDocument(ctx, tt.collection, tt.id); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetDocument() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestBadgerStore_ListDocuments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestBadger(t)

	empty, err := s.ListDocuments(ctx, SupportFAQsCollection)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("ListDocuments() on empty = %v, %v", empty, err)
	}

	for _, id := range []string{"c", "a", "b"} {
		if err := s.PutDocument(ctx, SupportFAQsCollection, models.Document{ID: id, Data: map[string]any{"q": id}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.PutDocument(ctx, SupportTermsCollection, models.Document{ID: "a", Data: map[string]any{"v": 1.0}}); err != nil {
		t.Fatal(err)
	}
	// A collection whose name extends another must not leak into it.
	if err := s.PutDocument(ctx, SupportFAQsCollection+"_archive", models.Document{ID: "z", Data: map[string]any{"q": "old"}}); err != nil {
		t.Fatal(err)
	}

	faqs, err := s.ListDocuments(ctx, SupportFAQsCollection)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	var got []string
	for _, d := range faqs {
		got = append(got, d.ID)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("ListDocuments() ids = %v, want [a b c]", got)
	}
}

func TestBadgerStore_DeleteDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestBadger(t)

	if err := s.PutDocument(ctx, SupportTermsCollection, models.Document{ID: "v1", Data: map[string]any{"text": "..."}}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteDocument(ctx, SupportTermsCollection, "v1"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if err := s.DeleteDocument(ctx, SupportTermsCollection, "v1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteDocument() again error = %v, want ErrNotFound", err)
	}
}

func TestBadgerStore_DocumentPathValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestBadger(t)

	if _, err := s.GetDocument(ctx, "", "x"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("empty collection error = %v", err)
	}
	if err := s.PutDocument(ctx, SupportFAQsCollection, models.Document{ID: "a\x00b"}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("NUL id error = %v", err)
	}
	if _, err := s.ListDocuments(ctx, "bad\x00"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("NUL collection error = %v", err)
	}
}
