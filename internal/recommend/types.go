// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package recommend ranks discounts for a user with a generative-AI
// completion API.
//
// # Flow
//
// A request carries the user's banks and interests. The engine first asks
// the recommendation cache; a hit is returned without any network call.
// On a miss it selects candidate discounts (published, matching an interest
// category or one of the user's banks), asks the completion API to rank
// them, keeps only ids it actually offered, and caches the answer.
//
// # Failures
//
// A missing API key is detected before any network call and reported as a
// Result with Success false, alongside ErrMissingAPIKey. Upstream failures
// are reported the same way, wrapped in ErrUpstream. Nothing is retried.
//
// # Usage
//
//	engine := recommend.NewEngine(cfg.Recommend, recs, discountsSvc, recommend.NewClient(cfg.Recommend))
//	res, err := engine.Recommend(ctx, recommend.Request{UserID: uid, Banks: banks, Interests: interests})
package recommend

import (
	"errors"
	"time"
)

var (
	// ErrMissingAPIKey is returned when no completion API key is configured.
	ErrMissingAPIKey = errors.New("AI API key is not configured")

	// ErrUpstream wraps failures of the completion API.
	ErrUpstream = errors.New("AI completion request failed")

	// ErrBadAnswer is returned when the completion cannot be parsed.
	ErrBadAnswer = errors.New("AI answer could not be parsed")
)

// Request identifies the user and the preferences to rank against.
type Request struct {
	UserID    string   `json:"user_id"`
	Banks     []string `json:"banks"`
	Interests []string `json:"interests"`
}

// Recommendation is one ranked discount.
type Recommendation struct {
	DiscountID string   `json:"discount_id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Bank       string   `json:"bank,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Score      float64  `json:"score"`
}

// Result is the outcome of a recommendation request. A failed request is
// still a Result, with Success false and Error set.
type Result struct {
	Success         bool             `json:"success"`
	Recommendations []Recommendation `json:"recommendations"`
	Cached          bool             `json:"cached"`
	Candidates      int              `json:"candidates"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Error           string           `json:"error,omitempty"`
}

func failure(err error) Result {
	return Result{Success: false, Recommendations: []Recommendation{}, Error: err.Error()}
}
