// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/centraldescuentos/internal/cache"
	"github.com/tomtom215/centraldescuentos/internal/config"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/models"
)

func recommendationEvictions() float64 {
	return testutil.ToFloat64(metrics.CacheEvictions.WithLabelValues(metrics.CacheRecommendations))
}

type staticDiscounts struct {
	list []models.Discount
	err  error
}

func (s staticDiscounts) ListPublished(context.Context) ([]models.Discount, error) {
	return s.list, s.err
}

type fakeCompleter struct {
	calls  atomic.Int32
	answer string
	err    error
	last   []Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	f.calls.Add(1)
	f.last = messages
	return f.answer, f.err
}

func ptr[T any](v T) *T { return &v }

func catalog() []models.Discount {
	return []models.Discount{
		{ID: "food-1", Name: "Parrilla 20%", Category: "gastronomia", Bank: "Galicia", Percentage: ptr(20.0)},
		{ID: "fashion-1", Name: "Zapatillas", Category: "moda"},
		{ID: "cine-1", Name: "2x1 Cine", Category: "entretenimiento", Memberships: []string{"Visa Santander"}},
		{ID: "food-2", Name: "Cafetería", Category: "cafe"},
	}
}

func newTestEngine(t *testing.T, apiKey string, ai Completer, discounts DiscountSource) (*Engine, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	recs := cache.NewRecommendationCache[Result](cache.WithClock(func() time.Time { return now }))
	e := NewEngine(config.RecommendConfig{APIKey: apiKey, MaxCandidates: 50, MaxResults: 2}, recs, discounts, ai)
	e.now = func() time.Time { return now }
	return e, &now
}

func TestRecommend_MissingAPIKey(t *testing.T) {
	t.Parallel()

	ai := &fakeCompleter{answer: `{"recommendations":[]}`}
	e, _ := newTestEngine(t, "", ai, staticDiscounts{list: catalog()})

	res, err := e.Recommend(context.Background(), Request{UserID: "u1", Interests: []string{"food"}})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Recommend() error = %v, want ErrMissingAPIKey", err)
	}
	if res.Success || res.Error == "" {
		t.Errorf("Result = %+v, want failure with message", res)
	}
	if ai.calls.Load() != 0 {
		t.Errorf("AI called %d times with no API key", ai.calls.Load())
	}
}

func TestRecommend_RanksAndCaches(t *testing.T) {
	t.Parallel()

	ai := &fakeCompleter{answer: "```json\n" + `{"recommendations":[
		{"id":"food-2","reason":"Te gusta el café","score":0.9},
		{"id":"invented","reason":"no existe","score":1},
		{"id":"food-2","reason":"duplicado","score":0.8},
		{"id":"food-1","reason":"Tenés Galicia","score":1.7},
		{"id":"cine-1","reason":"sobra","score":0.1}
	]}` + "\n```"}
	e, _ := newTestEngine(t, "key", ai, staticDiscounts{list: catalog()})
	req := Request{UserID: "u1", Interests: []string{" Food "}, Banks: []string{"galicia"}}

	res, err := e.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !res.Success || res.Cached {
		t.Errorf("Result flags = success %v cached %v", res.Success, res.Cached)
	}
	if len(res.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2: %+v", len(res.Recommendations), res.Recommendations)
	}
	if res.Recommendations[0].DiscountID != "food-2" || res.Recommendations[1].DiscountID != "food-1" {
		t.Errorf("order = %s, %s", res.Recommendations[0].DiscountID, res.Recommendations[1].DiscountID)
	}
	if res.Recommendations[1].Score != 1 {
		t.Errorf("score not clamped: %v", res.Recommendations[1].Score)
	}
	if res.Recommendations[1].Name != "Parrilla 20%" {
		t.Errorf("name not filled from catalog: %q", res.Recommendations[1].Name)
	}

	prompt := ai.last[1].Content
	if strings.Contains(prompt, "fashion-1") || strings.Contains(prompt, "cine-1") {
		t.Errorf("irrelevant candidates offered to the model: %s", prompt)
	}

	again, err := e.Recommend(context.Background(), Request{UserID: "u1", Interests: []string{"food"}, Banks: []string{"Galicia"}})
	if err != nil {
		t.Fatalf("second Recommend() error = %v", err)
	}
	if !again.Cached {
		t.Error("second call with equivalent preferences was not served from cache")
	}
	if ai.calls.Load() != 1 {
		t.Errorf("AI calls = %d, want 1", ai.calls.Load())
	}
}

func TestRecommend_CacheMissOnChangedBanks(t *testing.T) {
	t.Parallel()

	ai := &fakeCompleter{answer: `{"recommendations":[{"id":"food-1","score":0.5}]}`}
	e, _ := newTestEngine(t, "key", ai, staticDiscounts{list: catalog()})
	ctx := context.Background()

	if _, err := e.Recommend(ctx, Request{UserID: "u1", Banks: []string{"galicia"}}); err != nil {
		t.Fatal(err)
	}
	res, err := e.Recommend(ctx, Request{UserID: "u1", Banks: []string{"santander"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached || ai.calls.Load() != 2 {
		t.Errorf("cached=%v calls=%d, want fresh call", res.Cached, ai.calls.Load())
	}
}

func TestRecommend_CachedServedWithoutKey(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	recs := cache.NewRecommendationCache[Result](cache.WithClock(func() time.Time { return now }))
	recs.Set("u1", []string{"food"}, nil, Result{Success: true, Recommendations: []Recommendation{{DiscountID: "food-1"}}})

	ai := &fakeCompleter{}
	e := NewEngine(config.RecommendConfig{}, recs, staticDiscounts{}, ai)

	res, err := e.Recommend(context.Background(), Request{UserID: "u1", Interests: []string{"food"}})
	if err != nil || !res.Cached || len(res.Recommendations) != 1 {
		t.Errorf("Recommend() = %+v, %v; want cached result", res, err)
	}
	if ai.calls.Load() != 0 {
		t.Error("AI called for a cached result")
	}
}

func TestRecommend_Failures(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store offline")

	tests := []struct {
		name      string
		ai        *fakeCompleter
		discounts staticDiscounts
		wantErr   error
	}{
		{"store failure", &fakeCompleter{}, staticDiscounts{err: storeErr}, storeErr},
		{"upstream failure", &fakeCompleter{err: ErrUpstream}, staticDiscounts{list: catalog()}, ErrUpstream},
		{"garbage answer", &fakeCompleter{answer: "no sé"}, staticDiscounts{list: catalog()}, ErrBadAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, _ := newTestEngine(t, "key", tt.ai, tt.discounts)
			res, err := e.Recommend(context.Background(), Request{UserID: "u1", Interests: []string{"food"}})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Recommend() error = %v, want %v", err, tt.wantErr)
			}
			if res.Success {
				t.Error("Success = true on failure")
			}
			if e.cache.Len() != 0 {
				t.Error("failure was cached")
			}
		})
	}
}

func TestRecommend_NoCandidates(t *testing.T) {
	t.Parallel()

	ai := &fakeCompleter{}
	e, _ := newTestEngine(t, "key", ai, staticDiscounts{})

	res, err := e.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil || !res.Success || len(res.Recommendations) != 0 {
		t.Errorf("Recommend() = %+v, %v", res, err)
	}
	if ai.calls.Load() != 0 {
		t.Error("AI called with no candidates")
	}
}

// Invalidation tests read the global eviction counter and stay sequential.
func TestInvalidate(t *testing.T) {
	ai := &fakeCompleter{answer: `{"recommendations":[{"id":"food-1","score":0.5}]}`}
	e, _ := newTestEngine(t, "key", ai, staticDiscounts{list: catalog()})
	ctx := context.Background()

	for _, uid := range []string{"u1", "u2", "u3"} {
		if _, err := e.Recommend(ctx, Request{UserID: uid, Interests: []string{"food"}}); err != nil {
			t.Fatal(err)
		}
	}
	base := recommendationEvictions()
	e.Invalidate("u1")
	if e.cache.Len() != 2 {
		t.Errorf("Len() after Invalidate = %d, want 2", e.cache.Len())
	}
	e.Invalidate("u1")
	if got := recommendationEvictions() - base; got != 1 {
		t.Errorf("evictions after clearing u1 twice = %v, want 1", got)
	}
	if n := e.InvalidateAll(); n != 2 {
		t.Errorf("InvalidateAll() = %d, want 2", n)
	}
	if e.cache.Len() != 0 {
		t.Errorf("Len() after InvalidateAll = %d", e.cache.Len())
	}
	if got := recommendationEvictions() - base; got != 3 {
		t.Errorf("evictions after InvalidateAll = %v, want 3", got)
	}
}

func TestInvalidate_ConcurrentSetsDoNotSkewEvictions(t *testing.T) {
	e, _ := newTestEngine(t, "key", &fakeCompleter{}, staticDiscounts{})
	base := recommendationEvictions()

	const rounds = 200
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				e.cache.Set(fmt.Sprintf("other-%d", i%50), nil, nil, Result{})
			}
		}
	}()

	for i := 0; i < rounds; i++ {
		e.cache.Set("target", nil, nil, Result{})
		e.Invalidate("target")
		e.Invalidate("absent")
	}
	close(stop)
	wg.Wait()

	if got := recommendationEvictions() - base; got != rounds {
		t.Errorf("evictions = %v, want %d", got, rounds)
	}
}

func TestSelectCandidates(t *testing.T) {
	t.Parallel()

	all := catalog()

	tests := []struct {
		name  string
		req   Request
		limit int
		want  []string
	}{
		{"no preferences keeps all", Request{}, 10, []string{"food-1", "fashion-1", "cine-1", "food-2"}},
		{"interest and bank rank first", Request{Interests: []string{"food"}, Banks: []string{"galicia"}}, 10, []string{"food-1", "food-2"}},
		{"membership matches bank", Request{Banks: []string{"santander"}}, 10, []string{"cine-1"}},
		{"nothing matches falls back", Request{Interests: []string{"viajes"}}, 10, []string{"food-1", "fashion-1", "cine-1", "food-2"}},
		{"limit applies", Request{}, 2, []string{"food-1", "fashion-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := selectCandidates(all, prepareRequest(tt.req), tt.limit)
			ids := make([]string, len(got))
			for i := range got {
				ids[i] = got[i].ID
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("selectCandidates() = %v, want %v", ids, tt.want)
			}
		})
	}
}
