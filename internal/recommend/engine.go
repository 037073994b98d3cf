// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/centraldescuentos/internal/cache"
	"github.com/tomtom215/centraldescuentos/internal/config"
	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/models"
)

// DiscountSource supplies the discounts eligible for recommendation.
type DiscountSource interface {
	ListPublished(ctx context.Context) ([]models.Discount, error)
}

// Engine produces cached, AI-ranked recommendations.
type Engine struct {
	cache     *cache.RecommendationCache[Result]
	discounts DiscountSource
	ai        Completer
	apiKeySet bool

	maxCandidates int
	maxResults    int
	now           func() time.Time
}

// NewEngine wires an Engine. recs is shared with the API layer so it can
// clear entries.
func NewEngine(cfg config.RecommendConfig, recs *cache.RecommendationCache[Result], discounts DiscountSource, ai Completer) *Engine {
	e := &Engine{
		cache:         recs,
		discounts:     discounts,
		ai:            ai,
		apiKeySet:     cfg.APIKey != "",
		maxCandidates: cfg.MaxCandidates,
		maxResults:    cfg.MaxResults,
		now:           time.Now,
	}
	if e.maxCandidates <= 0 {
		e.maxCandidates = 50
	}
	if e.maxResults <= 0 {
		e.maxResults = 10
	}
	return e
}

// Recommend returns recommendations for req. The returned Result is always
// usable as a response body; err is non-nil exactly when Success is false.
func (e *Engine) Recommend(ctx context.Context, req Request) (Result, error) {
	req = prepareRequest(req)
	logger := e.createRequestLogger(ctx, req)

	if res, ok := e.tryGetCached(req, logger); ok {
		return res, nil
	}

	if !e.apiKeySet {
		logger.Warn().Msg("Recommendations requested but no AI API key is configured")
		return failure(ErrMissingAPIKey), ErrMissingAPIKey
	}

	published, err := e.discounts.ListPublished(ctx)
	if err != nil {
		err = fmt.Errorf("load candidates: %w", err)
		return failure(err), err
	}
	candidates := selectCandidates(published, req, e.maxCandidates)
	if len(candidates) == 0 {
		logger.Debug().Msg("No candidate discounts for user")
		return Result{Success: true, Recommendations: []Recommendation{}, GeneratedAt: e.now().UTC()}, nil
	}

	answer, err := e.ai.Complete(ctx, buildPrompt(req, candidates, e.maxResults))
	if err != nil {
		if !errors.Is(err, ErrMissingAPIKey) {
			logger.Error().Err(err).Int("candidates", len(candidates)).Msg("AI completion failed")
		}
		return failure(err), err
	}

	recs, err := parseAnswer(answer, candidates, e.maxResults)
	if err != nil {
		logger.Error().Err(err).Msg("Discarding unparseable AI answer")
		return failure(err), err
	}

	res := Result{
		Success:         true,
		Recommendations: recs,
		Candidates:      len(candidates),
		GeneratedAt:     e.now().UTC(),
	}
	e.cache.Set(req.UserID, req.Interests, req.Banks, res)
	metrics.SetCacheEntries(metrics.CacheRecommendations, e.cache.Len())

	logger.Info().
		Int("candidates", len(candidates)).
		Int("returned", len(recs)).
		Msg("Recommendations generated")
	return res, nil
}

// Invalidate drops the cached result for one user.
func (e *Engine) Invalidate(userID string) {
	if e.cache.Clear(userID) {
		metrics.RecordCacheEvictions(metrics.CacheRecommendations, 1)
	}
	metrics.SetCacheEntries(metrics.CacheRecommendations, e.cache.Len())
}

// InvalidateAll drops every cached result and returns how many there were.
func (e *Engine) InvalidateAll() int {
	n := e.cache.ClearAll()
	metrics.RecordCacheEvictions(metrics.CacheRecommendations, n)
	metrics.SetCacheEntries(metrics.CacheRecommendations, 0)
	return n
}

// CacheStats exposes the cache counters for health output.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// prepareRequest trims, lowercases and de-duplicates the preference lists.
func prepareRequest(req Request) Request {
	req.Banks = normalizeList(req.Banks)
	req.Interests = normalizeList(req.Interests)
	return req
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func (e *Engine) createRequestLogger(ctx context.Context, req Request) zerolog.Logger {
	return logging.Ctx(ctx).With().
		Str("component", "recommend").
		Str("user_id", req.UserID).
		Logger()
}

func (e *Engine) tryGetCached(req Request, logger zerolog.Logger) (Result, bool) {
	res, ok := e.cache.Get(req.UserID, req.Interests, req.Banks)
	metrics.RecordCacheLookup(metrics.CacheRecommendations, ok)
	if !ok {
		return Result{}, false
	}
	res.Cached = true
	logger.Debug().Msg("Recommendations served from cache")
	return res, true
}
