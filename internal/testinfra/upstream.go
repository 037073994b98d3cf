// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package testinfra provides test doubles for third-party HTTP APIs and,
// behind the integration build tag, containerized dependencies.
package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// CapturedRequest is one request received by an UpstreamServer.
type CapturedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

// UpstreamServer stands in for a third-party API (routing, AI completion,
// push delivery) and records every request it receives.
type UpstreamServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	captures []CapturedRequest
	status   int
	body     []byte
	handler  http.HandlerFunc
}

// NewUpstreamServer starts a server answering 200 with an empty JSON object.
// It is closed by t.Cleanup.
func NewUpstreamServer(t *testing.T) *UpstreamServer {
	t.Helper()

	u := &UpstreamServer{status: http.StatusOK, body: []byte("{}")}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Server.Close)
	return u
}

func (u *UpstreamServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()

	u.mu.Lock()
	u.captures = append(u.captures, CapturedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Headers: r.Header.Clone(),
		Body:    body,
	})
	handler, status, respBody := u.handler, u.status, u.body
	u.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(respBody)
}

// URL returns the server base URL.
func (u *UpstreamServer) URL() string {
	return u.Server.URL
}

// Respond sets the status and JSON body of subsequent responses.
func (u *UpstreamServer) Respond(status int, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = status
	u.body = []byte(body)
	u.handler = nil
}

// RespondWith installs a custom handler for subsequent requests.
func (u *UpstreamServer) RespondWith(h http.HandlerFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.handler = h
}

// Requests returns a copy of the captured requests.
func (u *UpstreamServer) Requests() []CapturedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]CapturedRequest, len(u.captures))
	copy(out, u.captures)
	return out
}

// LastRequest returns the most recent request, or false if none arrived.
func (u *UpstreamServer) LastRequest() (CapturedRequest, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.captures) == 0 {
		return CapturedRequest{}, false
	}
	return u.captures[len(u.captures)-1], true
}
