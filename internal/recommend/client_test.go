// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package recommend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/config"
	"github.com/tomtom215/centraldescuentos/internal/testinfra"
)

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	upstream := testinfra.NewUpstreamServer(t)
	upstream.Respond(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"{\"recommendations\":[]}"}}]}`)

	c := NewClient(config.RecommendConfig{APIURL: upstream.URL() + "/v1/chat/completions", APIKey: "sk-test", Model: "gpt-4o-mini", Timeout: 5 * time.Second})
	got, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hola"}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"recommendations":[]}` {
		t.Errorf("Complete() = %q", got)
	}

	req, ok := upstream.LastRequest()
	if !ok {
		t.Fatal("no request reached the upstream")
	}
	if req.Method != http.MethodPost || req.Path != "/v1/chat/completions" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	if auth := req.Headers.Get("Authorization"); auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	var body completionRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if body.Model != "gpt-4o-mini" || len(body.Messages) != 1 || body.ResponseFormat == nil {
		t.Errorf("request body = %+v", body)
	}
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"rate limited with message", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`, ErrUpstream, "Rate limit reached"},
		{"server error", http.StatusInternalServerError, `oops`, ErrUpstream, "status 500"},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrBadAnswer, "no choices"},
		{"not json", http.StatusOK, `<html>`, ErrBadAnswer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			upstream := testinfra.NewUpstreamServer(t)
			upstream.Respond(tt.status, tt.body)

			c := NewClient(config.RecommendConfig{APIURL: upstream.URL(), APIKey: "k"})
			_, err := c.Complete(context.Background(), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Complete() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestClient_MissingKeyMakesNoRequest(t *testing.T) {
	t.Parallel()

	upstream := testinfra.NewUpstreamServer(t)
	c := NewClient(config.RecommendConfig{APIURL: upstream.URL()})

	if _, err := c.Complete(context.Background(), nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Complete() error = %v, want ErrMissingAPIKey", err)
	}
	if n := len(upstream.Requests()); n != 0 {
		t.Errorf("upstream received %d requests", n)
	}
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()

	c := NewClient(config.RecommendConfig{APIURL: "http://127.0.0.1:1/unreachable", APIKey: "k", Timeout: time.Second})
	if _, err := c.Complete(context.Background(), nil); !errors.Is(err, ErrUpstream) {
		t.Errorf("Complete() error = %v, want ErrUpstream", err)
	}
}

func TestParseAnswer_Fences(t *testing.T) {
	t.Parallel()

	cands := catalog()
	for _, in := range []string{
		`{"recommendations":[{"id":"food-1"}]}`,
		"```json\n{\"recommendations\":[{\"id\":\"food-1\"}]}\n```",
		"```\n{\"recommendations\":[{\"id\":\"food-1\"}]}```",
	} {
		got, err := parseAnswer(in, cands, 5)
		if err != nil || len(got) != 1 || got[0].DiscountID != "food-1" {
			t.Errorf("parseAnswer(%q) = %+v, %v", in, got, err)
		}
	}
}

func TestClient_Throttled(t *testing.T) {
	t.Parallel()

	upstream := testinfra.NewUpstreamServer(t)
	upstream.Respond(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"{}"}}]}`)

	c := NewClient(config.RecommendConfig{APIURL: upstream.URL(), APIKey: "k", Timeout: time.Second, CallsPerMinute: 1})
	if _, err := c.Complete(context.Background(), nil); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := c.Complete(ctx, nil); !errors.Is(err, ErrUpstream) {
		t.Errorf("second call = %v, want throttled ErrUpstream", err)
	}
	if n := len(upstream.Requests()); n != 1 {
		t.Errorf("upstream received %d requests", n)
	}
}
