// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package notify sends push notifications through the OneSignal REST API.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/config"
	"github.com/tomtom215/centraldescuentos/internal/logging"
	"github.com/tomtom215/centraldescuentos/internal/metrics"
	"github.com/tomtom215/centraldescuentos/internal/validation"
)

var (
	// ErrMissingAPIKey is returned when the app id or REST API key is not configured.
	ErrMissingAPIKey = errors.New("push notification credentials are not configured")

	// ErrUpstream wraps failures reported by the push provider.
	ErrUpstream = errors.New("push provider request failed")
)

// SendRequest is the body of POST /api/notifications/send. Exactly one
// audience is used: SendToAll, then IncludePlayerIDs, then UserID.
type SendRequest struct {
	UserID           string         `json:"userId,omitempty" validate:"max=128"`
	IncludePlayerIDs []string       `json:"include_player_ids,omitempty" validate:"max=2000,dive,required,max=64"`
	Title            string         `json:"title" validate:"required,max=200"`
	Message          string         `json:"message" validate:"required,max=2000"`
	URL              string         `json:"url,omitempty" validate:"omitempty,url"`
	Data             map[string]any `json:"data,omitempty"`
	SendToAll        bool           `json:"send_to_all,omitempty"`
}

// Validate checks field rules and that an audience was given.
func (r *SendRequest) Validate() *validation.RequestValidationError {
	verr := validation.ValidateStruct(r)
	if !r.SendToAll && len(r.IncludePlayerIDs) == 0 && strings.TrimSpace(r.UserID) == "" {
		verr = verr.Append("userId", "required_without", "one of userId, include_player_ids or send_to_all is required")
	}
	return verr
}

// Result is the response body. On failure only Error is set.
type Result struct {
	NotificationID string `json:"notificationId,omitempty"`
	Recipients     int    `json:"recipients"`
	Error          string `json:"error,omitempty"`
}

// Client posts notifications to OneSignal.
type Client struct {
	http   *http.Client
	url    string
	appID  string
	apiKey string
}

// NewClient builds a Client from cfg. Missing credentials are reported per
// call, not here.
func NewClient(cfg config.NotifyConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		url:    cfg.URL,
		appID:  cfg.AppID,
		apiKey: cfg.APIKey,
	}
}

type oneSignalRequest struct {
	AppID                  string            `json:"app_id"`
	Headings               map[string]string `json:"headings"`
	Contents               map[string]string `json:"contents"`
	URL                    string            `json:"url,omitempty"`
	Data                   map[string]any    `json:"data,omitempty"`
	IncludedSegments       []string          `json:"included_segments,omitempty"`
	IncludePlayerIDs       []string          `json:"include_player_ids,omitempty"`
	IncludeExternalUserIDs []string          `json:"include_external_user_ids,omitempty"`
}

type oneSignalResponse struct {
	ID         string          `json:"id"`
	Recipients int             `json:"recipients"`
	Errors     json.RawMessage `json:"errors,omitempty"`
}

func buildPayload(appID string, req SendRequest) oneSignalRequest {
	p := oneSignalRequest{
		AppID:    appID,
		Headings: map[string]string{"en": req.Title, "es": req.Title},
		Contents: map[string]string{"en": req.Message, "es": req.Message},
		URL:      req.URL,
		Data:     req.Data,
	}
	switch {
	case req.SendToAll:
		p.IncludedSegments = []string{"All"}
	case len(req.IncludePlayerIDs) > 0:
		p.IncludePlayerIDs = req.IncludePlayerIDs
	default:
		p.IncludeExternalUserIDs = []string{req.UserID}
	}
	return p
}

// Send delivers req. The returned status is the provider's HTTP status, or
// 0 when no answer was received.
func (c *Client) Send(ctx context.Context, req SendRequest) (Result, int, error) {
	if c.appID == "" || c.apiKey == "" {
		return Result{Error: ErrMissingAPIKey.Error()}, 0, ErrMissingAPIKey
	}

	body, err := json.Marshal(buildPayload(c.appID, req))
	if err != nil {
		return Result{Error: "could not encode notification"}, 0, fmt.Errorf("encode notification: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{Error: "could not build notification request"}, 0, fmt.Errorf("build notification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Authorization", "Basic "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordUpstreamCall("push", 0, time.Since(start))
		metrics.RecordNotification(false)
		return Result{Error: "push provider unreachable"}, 0, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamCall("push", resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		logging.CtxErr(ctx, err).Int("status", resp.StatusCode).Msg("Failed to read push provider response")
		metrics.RecordNotification(false)
		return Result{Error: "could not read push provider response"}, resp.StatusCode, fmt.Errorf("%w: read response: %w", ErrUpstream, err)
	}
	var parsed oneSignalResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Int("status", resp.StatusCode).
				Int("bytes", len(raw)).
				Msg("Push provider response is not JSON")
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed.ID == "" {
		msg := providerError(parsed.Errors)
		if msg == "" {
			msg = fmt.Sprintf("push provider returned status %d", resp.StatusCode)
		}
		metrics.RecordNotification(false)
		return Result{Error: msg}, resp.StatusCode, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}

	metrics.RecordNotification(true)
	return Result{NotificationID: parsed.ID, Recipients: parsed.Recipients}, resp.StatusCode, nil
}

// providerError flattens OneSignal's errors field, which is either a list
// of strings or an object keyed by error kind. Object keys are sorted.
func providerError(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, obj[k]))
		}
		return strings.Join(parts, "; ")
	}
	return string(raw)
}
