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

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/models"
)

// Document keys are "doc:" + collection + NUL + id, so a prefix scan of
// one collection never reaches a nested one and ids iterate in order.
const documentKeyPrefix = "doc:"

func documentPrefix(collection string) []byte {
	return []byte(documentKeyPrefix + collection + "\x00")
}

func documentKey(collection, id string) []byte {
	return append(documentPrefix(collection), id...)
}

// GetDocument implements DocumentStore.
func (s *BadgerStore) GetDocument(_ context.Context, collection, id string) (models.Document, error) {
	if err := checkDocumentPath(collection, id); err != nil {
		return models.Document{}, err
	}
	var doc models.Document
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, documentKey(collection, id), &doc)
	})
	return doc, err
}

// ListDocuments implements DocumentStore.
func (s *BadgerStore) ListDocuments(_ context.Context, collection string) ([]models.Document, error) {
	if err := checkDocumentPath(collection, ""); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("badger", "list_documents", time.Since(start)) }()

	docs := []models.Document{}
	prefix := documentPrefix(collection)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var doc models.Document
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// PutDocument implements DocumentStore.
func (s *BadgerStore) PutDocument(_ context.Context, collection string, doc models.Document) error {
	if err := checkDocumentPath(collection, doc.ID); err != nil {
		return err
	}
	data, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal document %s/%s: %w", collection, doc.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(collection, doc.ID), data)
	})
}

// DeleteDocument implements DocumentStore.
func (s *BadgerStore) DeleteDocument(_ context.Context, collection, id string) error {
	if err := checkDocumentPath(collection, id); err != nil {
		return err
	}
	key := documentKey(collection, id)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return txn.Delete(key)
	})
}
