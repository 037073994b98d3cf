// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package routing proxies driving directions from a third-party routing
// API (OpenRouteService directions v2) so the API key stays server-side.
package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/centraldescuentos/internal/config"
	"github.com/tomtom215/centraldescuentos/internal/geo"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
)

// maxRouteBytes bounds the relayed upstream body.
const maxRouteBytes = 8 << 20

var (
	// ErrMissingCoordinates is returned when start or end is absent.
	ErrMissingCoordinates = errors.New("start and end coordinates are required")

	// ErrMissingAPIKey is returned when no routing API key is configured.
	ErrMissingAPIKey = errors.New("routing API key is not configured")
)

// Route is an upstream answer relayed as is.
type Route struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client requests directions between two points.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	profile string
}

// NewClient builds a Client from cfg.
func NewClient(cfg config.RoutingConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	profile := cfg.Profile
	if profile == "" {
		profile = "driving-car"
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		profile: profile,
	}
}

// Directions fetches the route from start to end. Any upstream status is
// returned in Route; err is only set when no answer was received.
func (c *Client) Directions(ctx context.Context, start, end geo.Coordinate) (*Route, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("start", start.LngLat())
	q.Set("end", end.LngLat())
	target := c.baseURL + "/" + url.PathEscape(c.profile) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build routing request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/geo+json")

	began := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall("routing", 0, time.Since(began))
		return nil, fmt.Errorf("routing request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamCall("routing", resp.StatusCode, time.Since(began))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRouteBytes))
	if err != nil {
		return nil, fmt.Errorf("read routing response: %w", err)
	}
	return &Route{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
