// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/models"
)

// MongoOptions configures the hosted document store driver.
type MongoOptions struct {
	URI      string
	Database string

	// Timeout bounds the initial connect and ping.
	Timeout time.Duration
}

// MongoStore stores discounts, users and generic documents in three
// MongoDB collections.
type MongoStore struct {
	client    *mongo.Client
	discounts *mongo.Collection
	users     *mongo.Collection
	documents *mongo.Collection
}

// OpenMongo connects, pings the primary and ensures indexes.
func OpenMongo(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(opts.Database)
	s := &MongoStore{
		client:    client,
		discounts: db.Collection(DiscountsCollection),
		users:     db.Collection(UsersCollection),
		documents: db.Collection(DocumentsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logging.Info().
		Str("database", opts.Database).
		Msg("Document store connected")
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.discounts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "approval_status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create discount indexes: %w", err)
	}
	_, err = s.documents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collection", Value: 1}, {Key: "doc_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create document indexes: %w", err)
	}
	return nil
}

// Name implements Store.
func (s *MongoStore) Name() string { return "mongo" }

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close implements Store.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ListDiscounts implements DiscountStore.
func (s *MongoStore) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	return s.FindDiscounts(ctx, Query{})
}

// FindDiscounts translates q with MongoFilter and runs it server-side.
func (s *MongoStore) FindDiscounts(ctx context.Context, q Query) ([]models.Discount, error) {
	filter, err := MongoFilter(q)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("mongo", "find", time.Since(start)) }()

	cursor, err := s.discounts.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find discounts: %w", err)
	}
	out := []models.Discount{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode discounts: %w", err)
	}
	return out, nil
}

// GetDiscount implements DiscountStore.
func (s *MongoStore) GetDiscount(ctx context.Context, id string) (models.Discount, error) {
	var d models.Discount
	err := s.discounts.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Discount{}, ErrNotFound
	}
	if err != nil {
		return models.Discount{}, fmt.Errorf("get discount %s: %w", id, err)
	}
	return d, nil
}

// PutDiscounts upserts the batch with one unordered BulkWrite.
func (s *MongoStore) PutDiscounts(ctx context.Context, discounts []models.Discount) error {
	if err := checkBatch(len(discounts)); err != nil {
		return err
	}
	if len(discounts) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("mongo", "put", time.Since(start)) }()

	writes := make([]mongo.WriteModel, len(discounts))
	for i := range discounts {
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": discounts[i].ID}).
			SetReplacement(discounts[i]).
			SetUpsert(true)
	}
	if _, err := s.discounts.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("write discount batch: %w", err)
	}
	return nil
}

// UpdateDiscount reads the document, applies fn and replaces it only if
// updated_at is unchanged. A concurrent writer makes the replace miss,
// which is reported as ErrConflict.
func (s *MongoStore) UpdateDiscount(ctx context.Context, id string, fn func(*models.Discount) error) (models.Discount, error) {
	d, err := s.GetDiscount(ctx, id)
	if err != nil {
		return models.Discount{}, err
	}
	previous := d.UpdatedAt
	if err := fn(&d); err != nil {
		return models.Discount{}, err
	}
	d.ID = id

	res, err := s.discounts.ReplaceOne(ctx, bson.M{"_id": id, "updated_at": previous}, d)
	if err != nil {
		return models.Discount{}, fmt.Errorf("update discount %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.Discount{}, fmt.Errorf("update discount %s: %w", id, ErrConflict)
	}
	return d, nil
}

// DeleteDiscounts removes the batch with one DeleteMany.
func (s *MongoStore) DeleteDiscounts(ctx context.Context, ids []string) error {
	if err := checkBatch(len(ids)); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("mongo", "delete", time.Since(start)) }()

	if _, err := s.discounts.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("delete discount batch: %w", err)
	}
	return nil
}

// GetUser implements UserStore.
func (s *MongoStore) GetUser(ctx context.Context, id string) (models.UserProfile, error) {
	var u models.UserProfile
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// PutUser implements UserStore.
func (s *MongoStore) PutUser(ctx context.Context, u models.UserProfile) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u, opts); err != nil {
		return fmt.Errorf("put user %s: %w", u.ID, err)
	}
	return nil
}

var mongoOps = map[Op]string{
	OpEq:  "$eq",
	OpNe:  "$ne",
	OpLt:  "$lt",
	OpLte: "$lte",
	OpGt:  "$gt",
	OpGte: "$gte",
}

// MongoFilter translates q into a filter document. Predicates on the same
// field are merged into one operator document; "id" addresses "_id".
func MongoFilter(q Query) (bson.M, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	filter := bson.M{}
	for _, p := range q.Predicates {
		value, err := NormalizeValue(p.Field, p.Value)
		if err != nil {
			return nil, err
		}
		field := p.Field
		if field == "id" {
			field = "_id"
		}
		ops, ok := filter[field].(bson.M)
		if !ok {
			ops = bson.M{}
			filter[field] = ops
		}
		ops[mongoOps[p.Op]] = value
	}
	return filter, nil
}

var _ Store = (*MongoStore)(nil)
