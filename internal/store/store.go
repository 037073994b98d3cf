// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package store adapts document stores to the discounts and users
collections, plus the schemaless app collections (support content, daily
routes, fuel recommendations) kept as generic documents.

Two drivers exist: an embedded BadgerDB driver, which stores each document
as JSON under a collection key prefix, and a MongoDB driver. Both implement
Store. Higher layers express filters as a Query value; the Badger driver
evaluates it in memory with Query.Matches and the MongoDB driver translates
it to a native filter document.

Writes of several documents are committed in batches the caller sizes;
a single batch must not exceed MaxBatchSize operations.
*/
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/centraldescuentos/internal/config"
	"github.com/tomtom215/centraldescuentos/internal/models"
)

// MaxBatchSize is the largest number of writes committed together.
const MaxBatchSize = 500

// Collection names.
const (
	DiscountsCollection    = "discounts"
	UsersCollection        = "users"
	SupportFAQsCollection  = "support_faqs"
	SupportTermsCollection = "support_terms"
)

// LatestFuelRecommendation is the id of the only document kept under a
// user's fuel recommendations.
const LatestFuelRecommendation = "latest"

// DailyRoutesCollection is users/{uid}/dailyRoutes.
func DailyRoutesCollection(userID string) string {
	return UsersCollection + "/" + userID + "/dailyRoutes"
}

// FuelRecommendationsCollection is users/{uid}/fuelRecommendations.
func FuelRecommendationsCollection(userID string) string {
	return UsersCollection + "/" + userID + "/fuelRecommendations"
}

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidQuery is returned for a Query that cannot be evaluated.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")

	// ErrConflict is returned when a concurrent write invalidated an update.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")
)

// DiscountStore persists discounts.
type DiscountStore interface {
	// ListDiscounts returns every discount.
	ListDiscounts(ctx context.Context) ([]models.Discount, error)

	// FindDiscounts returns the discounts matching q.
	FindDiscounts(ctx context.Context, q Query) ([]models.Discount, error)

	// GetDiscount returns one discount or ErrNotFound.
	GetDiscount(ctx context.Context, id string) (models.Discount, error)

	// PutDiscounts inserts or replaces up to MaxBatchSize discounts in one commit.
	PutDiscounts(ctx context.Context, discounts []models.Discount) error

	// UpdateDiscount loads a discount, applies fn and writes the result back.
	// fn's error aborts the update and is returned unchanged.
	UpdateDiscount(ctx context.Context, id string, fn func(*models.Discount) error) (models.Discount, error)

	// DeleteDiscounts removes up to MaxBatchSize discounts in one commit.
	// Missing ids are ignored.
	DeleteDiscounts(ctx context.Context, ids []string) error
}

// UserStore persists user profiles.
type UserStore interface {
	GetUser(ctx context.Context, id string) (models.UserProfile, error)
	PutUser(ctx context.Context, user models.UserProfile) error
}

// DocumentStore persists schemaless documents by collection path and id.
type DocumentStore interface {
	// GetDocument returns one document or ErrNotFound.
	GetDocument(ctx context.Context, collection, id string) (models.Document, error)

	// ListDocuments returns a collection's documents ordered by id.
	ListDocuments(ctx context.Context, collection string) ([]models.Document, error)

	// PutDocument inserts or replaces doc.
	PutDocument(ctx context.Context, collection string, doc models.Document) error

	// DeleteDocument removes a document or returns ErrNotFound.
	DeleteDocument(ctx context.Context, collection, id string) error
}

// Store is a complete driver.
type Store interface {
	DiscountStore
	UserStore
	DocumentStore

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Name identifies the driver in logs and health output.
	Name() string

	Close() error
}

// Open builds the driver selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "badger":
		return OpenBadger(BadgerOptions{Path: cfg.Path, InMemory: cfg.InMemory})
	case "mongo":
		return OpenMongo(ctx, MongoOptions{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Timeout:  cfg.MongoTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// ErrInvalidPath is returned for an empty or NUL-bearing collection or id.
var ErrInvalidPath = errors.New("invalid document path")

func checkDocumentPath(collection, id string) error {
	if collection == "" || strings.ContainsRune(collection, 0) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q/%q", ErrInvalidPath, collection, id)
	}
	return nil
}

func checkBatch(n int) error {
	if n > MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, n, MaxBatchSize)
	}
	return nil
}
