// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

/*
Package cache holds the in-process recommendation cache.

One entry is kept per user. An entry answers a lookup only while it is
younger than the configured TTL and was computed from the same interests
and banks as the lookup; anything else evicts it. There is no size bound
and nothing is persisted, so a restart starts cold.

	recs := cache.NewRecommendationCache[recommend.Result](cache.WithTTL(24 * time.Hour))
	if r, ok := recs.Get(uid, interests, banks); ok {
	    return r
	}
*/
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a recommendation set stays valid.
const DefaultTTL = 24 * time.Hour

// Entry is a cached recommendation set.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
	Hash     string
}

// Stats are cumulative counters since construction.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// RecommendationCache memoizes recommendation results per user.
// It is safe for concurrent use.
type RecommendationCache[V any] struct {
	mu      sync.Mutex
	entries map[string]Entry[V]
	ttl     time.Duration
	now     func() time.Time
	stats   Stats
}

// Option configures a RecommendationCache.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL sets the entry lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewRecommendationCache creates an empty cache.
func NewRecommendationCache[V any](opts ...Option) *RecommendationCache[V] {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &RecommendationCache[V]{
		entries: make(map[string]Entry[V]),
		ttl:     o.ttl,
		now:     o.now,
	}
}

// TTL returns the configured entry lifetime.
func (c *RecommendationCache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached value for userID if it is unexpired and was
// stored for the same interests and banks. A stale or mismatched entry is
// evicted.
func (c *RecommendationCache[V]) Get(userID string, interests, banks []string) (V, bool) {
	var zero V
	hash := PreferenceHash(userID, interests, banks)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if c.now().Sub(entry.StoredAt) >= c.ttl || entry.Hash != hash {
		delete(c.entries, userID)
		c.stats.Evictions++
		c.stats.Misses++
		return zero, false
	}
	c.stats.Hits++
	return entry.Value, true
}

// Set stores value for userID, replacing any previous entry.
func (c *RecommendationCache[V]) Set(userID string, interests, banks []string, value V) {
	entry := Entry[V]{
		Value:    value,
		StoredAt: c.now(),
		Hash:     PreferenceHash(userID, interests, banks),
	}

	c.mu.Lock()
	c.entries[userID] = entry
	c.mu.Unlock()
}

// Clear removes the entry for userID and reports whether one was present.
func (c *RecommendationCache[V]) Clear(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[userID]; !ok {
		return false
	}
	delete(c.entries, userID)
	c.stats.Evictions++
	return true
}

// ClearAll removes every entry and returns how many were removed.
func (c *RecommendationCache[V]) ClearAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.stats.Evictions += int64(n)
	c.entries = make(map[string]Entry[V])
	return n
}

// Len returns the number of stored entries, including ones that have
// expired but were not looked up since.
func (c *RecommendationCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *RecommendationCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// PreferenceHash digests the sorted interests, the sorted banks and the
// user id. Input order does not change the result.
func PreferenceHash(userID string, interests, banks []string) string {
	var b strings.Builder
	b.WriteString(sortedJoin(interests))
	b.WriteByte('|')
	b.WriteString(sortedJoin(banks))
	b.WriteByte('|')
	b.WriteString(userID)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func sortedJoin(values []string) string {
	s := slices.Clone(values)
	slices.Sort(s)
	return strings.Join(s, ",")
}
