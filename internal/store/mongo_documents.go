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

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/models"
)

// DocumentsCollection holds every generic document; the logical collection
// path is a field.
const DocumentsCollection = "documents"

type mongoDocument struct {
	Key        string    `bson:"_id"`
	Collection string    `bson:"collection"`
	DocID      string    `bson:"doc_id"`
	Data       bson.Raw  `bson:"data"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func mongoDocumentKey(collection, id string) string {
	return collection + "\x00" + id
}

// toModel converts the stored BSON data back to plain JSON values.
func (d mongoDocument) toModel() (models.Document, error) {
	doc := models.Document{ID: d.DocID, UpdatedAt: d.UpdatedAt}
	ext, err := bson.MarshalExtJSON(d.Data, false, false)
	if err != nil {
		return doc, fmt.Errorf("encode document %s: %w", d.Key, err)
	}
	if err := json.Unmarshal(ext, &doc.Data); err != nil {
		return doc, fmt.Errorf("decode document %s: %w", d.Key, err)
	}
	return doc, nil
}

// GetDocument implements DocumentStore.
func (s *MongoStore) GetDocument(ctx context.Context, collection, id string) (models.Document, error) {
	if err := checkDocumentPath(collection, id); err != nil {
		return models.Document{}, err
	}
	var d mongoDocument
	err := s.documents.FindOne(ctx, bson.M{"_id": mongoDocumentKey(collection, id)}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Document{}, ErrNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return d.toModel()
}

// ListDocuments implements DocumentStore.
func (s *MongoStore) ListDocuments(ctx context.Context, collection string) ([]models.Document, error) {
	if err := checkDocumentPath(collection, ""); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("mongo", "list_documents", time.Since(start)) }()

	opts := options.Find().SetSort(bson.D{{Key: "doc_id", Value: 1}})
	cur, err := s.documents.Find(ctx, bson.M{"collection": collection}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	var stored []mongoDocument
	if err := cur.All(ctx, &stored); err != nil {
		return nil, fmt.Errorf("decode documents %s: %w", collection, err)
	}

	docs := make([]models.Document, 0, len(stored))
	for _, d := range stored {
		doc, err := d.toModel()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// PutDocument implements DocumentStore.
func (s *MongoStore) PutDocument(ctx context.Context, collection string, doc models.Document) error {
	if err := checkDocumentPath(collection, doc.ID); err != nil {
		return err
	}
	key := mongoDocumentKey(collection, doc.ID)
	replacement := bson.M{
		"_id":        key,
		"collection": collection,
		"doc_id":     doc.ID,
		"data":       doc.Data,
		"updated_at": doc.UpdatedAt,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.documents.ReplaceOne(ctx, bson.M{"_id": key}, replacement, opts); err != nil {
		return fmt.Errorf("put document %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

// DeleteDocument implements DocumentStore.
func (s *MongoStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := checkDocumentPath(collection, id); err != nil {
		return err
	}
	res, err := s.documents.DeleteOne(ctx, bson.M{"_id": mongoDocumentKey(collection, id)})
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
