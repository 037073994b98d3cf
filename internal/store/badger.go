// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/models"
)

const (
	discountKeyPrefix = DiscountsCollection + ":"
	userKeyPrefix     = UsersCollection + ":"
)

// BadgerOptions configures the embedded driver.
type BadgerOptions struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in RAM; used by tests and demos.
	InMemory bool
}

// BadgerStore keeps documents as JSON values in BadgerDB.
type BadgerStore struct {
	db       *badger.DB
	inMemory bool
	closed   atomic.Bool
}

// OpenBadger opens (or creates) the database.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", opts.Path).
		Bool("in_memory", opts.InMemory).
		Msg("Document store opened")
	return &BadgerStore{db: db, inMemory: opts.InMemory}, nil
}

// NewBadgerStore wraps an already open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, inMemory: db.Opts().InMemory}
}

// Name implements Store.
func (s *BadgerStore) Name() string { return "badger" }

// Ping implements Store.
func (s *BadgerStore) Ping(context.Context) error {
	if s.closed.Load() || s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
// In-memory databases have no value log and return immediately.
func (s *BadgerStore) RunGC(discardRatio float64) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.inMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log GC: %w", err)
		}
	}
}

func discountKey(id string) []byte { return []byte(discountKeyPrefix + id) }
func userKey(id string) []byte     { return []byte(userKeyPrefix + id) }

// ListDiscounts implements DiscountStore.
func (s *BadgerStore) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	return s.FindDiscounts(ctx, Query{})
}

// FindDiscounts scans the collection and filters with q.Matches.
func (s *BadgerStore) FindDiscounts(_ context.Context, q Query) ([]models.Discount, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("badger", "find", time.Since(start)) }()

	out := []models.Discount{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(discountKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var d models.Discount
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if q.Matches(&d) {
				out = append(out, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan discounts: %w", err)
	}
	return out, nil
}

// GetDiscount implements DiscountStore.
func (s *BadgerStore) GetDiscount(_ context.Context, id string) (models.Discount, error) {
	var d models.Discount
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, discountKey(id), &d)
	})
	return d, err
}

// PutDiscounts writes the batch in a single transaction.
func (s *BadgerStore) PutDiscounts(_ context.Context, discounts []models.Discount) error {
	if err := checkBatch(len(discounts)); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("badger", "put", time.Since(start)) }()

	return s.db.Update(func(txn *badger.Txn) error {
		for i := range discounts {
			data, err := json.Marshal(&discounts[i])
			if err != nil {
				return fmt.Errorf("marshal discount %s: %w", discounts[i].ID, err)
			}
			if err := txn.Set(discountKey(discounts[i].ID), data); err != nil {
				return fmt.Errorf("set discount %s: %w", discounts[i].ID, err)
			}
		}
		return nil
	})
}

// UpdateDiscount runs the read-modify-write inside one transaction. A
// transaction conflict is reported as ErrConflict.
func (s *BadgerStore) UpdateDiscount(_ context.Context, id string, fn func(*models.Discount) error) (models.Discount, error) {
	var d models.Discount
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, discountKey(id), &d); err != nil {
			return err
		}
		if err := fn(&d); err != nil {
			return err
		}
		d.ID = id
		data, err := json.Marshal(&d)
		if err != nil {
			return fmt.Errorf("marshal discount %s: %w", id, err)
		}
		return txn.Set(discountKey(id), data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return models.Discount{}, fmt.Errorf("update discount %s: %w", id, ErrConflict)
	}
	if err != nil {
		return models.Discount{}, err
	}
	return d, nil
}

// DeleteDiscounts commits the deletes through one WriteBatch.
func (s *BadgerStore) DeleteDiscounts(_ context.Context, ids []string) error {
	if err := checkBatch(len(ids)); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("badger", "delete", time.Since(start)) }()

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if err := wb.Delete(discountKey(id)); err != nil {
			return fmt.Errorf("delete discount %s: %w", id, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("commit delete batch: %w", err)
	}
	return nil
}

// GetUser implements UserStore.
func (s *BadgerStore) GetUser(_ context.Context, id string) (models.UserProfile, error) {
	var u models.UserProfile
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &u)
	})
	return u, err
}

// PutUser implements UserStore.
func (s *BadgerStore) PutUser(_ context.Context, u models.UserProfile) error {
	data, err := json.Marshal(&u)
	if err != nil {
		return fmt.Errorf("marshal user %s: %w", u.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(u.ID), data)
	})
}

func getJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

var _ Store = (*BadgerStore)(nil)
