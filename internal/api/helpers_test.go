// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/centraldescuentos/internal/audit"
	"github.com/tomtom215/centraldescuentos/internal/auth"
	"github.com/tomtom215/centraldescuentos/internal/backup"
	"github.com/tomtom215/centraldescuentos/internal/cache"
	"github.com/tomtom215/centraldescuentos/internal/config"
	"github.com/tomtom215/centraldescuentos/internal/discounts"
	"github.com/tomtom215/centraldescuentos/internal/models"
	"github.com/tomtom215/centraldescuentos/internal/recommend"
	"github.com/tomtom215/centraldescuentos/internal/store"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

const (
	testJWTSecret = "test-secret-0123456789abcdef-0123"
	testAdminSub  = "curator@example.com"
)

func newTestJWT(t *testing.T) *auth.JWTManager {
	t.Helper()
	mgr, err := auth.NewJWTManager(config.SecurityConfig{JWTSecret: testJWTSecret})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return mgr
}

func newTestToken(t *testing.T, mgr *auth.JWTManager, subject, role string) string {
	t.Helper()
	tok, err := mgr.GenerateToken(subject, role, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok
}

type fakeRecommender struct {
	mu          sync.Mutex
	requests    []recommend.Request
	invalidated []string
	clearedAll  int
	res         recommend.Result
	err         error
}

func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) (recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.res, f.err
}

func (f *fakeRecommender) Invalidate(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
}

func (f *fakeRecommender) InvalidateAll() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearedAll++
	return 4
}

func (f *fakeRecommender) CacheStats() cache.Stats {
	return cache.Stats{Hits: 7, Misses: 3, Entries: 2}
}

func (f *fakeRecommender) lastRequest(t *testing.T) recommend.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("recommender was not called")
	}
	return f.requests[len(f.requests)-1]
}

type testServer struct {
	handler    http.Handler
	store      *store.BadgerStore
	rec        *fakeRecommender
	audit      *audit.Logger
	jwt        *auth.JWTManager
	adminToken string
}

type testOption func(*testOptions)

type testOptions struct {
	mw            *ChiMiddlewareConfig
	distance      http.Handler
	notifications http.Handler
	noBackups     bool
	noJWT         bool
}

func withMiddleware(c *ChiMiddlewareConfig) testOption {
	return func(o *testOptions) { o.mw = c }
}

func withAppHandlers(distance, notifications http.Handler) testOption {
	return func(o *testOptions) {
		o.distance = distance
		o.notifications = notifications
	}
}

func withoutBackups() testOption {
	return func(o *testOptions) { o.noBackups = true }
}

// withoutJWTSecret leaves admin authentication unconfigured.
func withoutJWTSecret() testOption {
	return func(o *testOptions) { o.noJWT = true }
}

func newTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()

	o := testOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.mw == nil {
		o.mw = DefaultChiMiddlewareConfig()
		o.mw.RateLimitDisabled = true
	}
	var adminToken string
	if !o.noJWT && o.mw.JWT == nil {
		o.mw.JWT = newTestJWT(t)
	}
	if o.mw.JWT != nil {
		adminToken = newTestToken(t, o.mw.JWT, testAdminSub, "admin")
	}

	st, err := store.OpenBadger(store.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	seq := 0
	svc := discounts.NewService(st,
		discounts.WithClock(func() time.Time { return testNow }),
		discounts.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("new-%d", seq)
		}),
	)
	rec := &fakeRecommender{res: recommend.Result{Success: true, Recommendations: []recommend.Recommendation{}}}

	trail := audit.NewLogger(audit.NewMemoryStore(100), audit.DefaultConfig())
	t.Cleanup(func() { _ = trail.Close() })

	deps := HandlerDeps{
		Store:       st,
		Users:       st,
		Documents:   st,
		Discounts:   svc,
		Recommender: rec,
		Audit:       trail,
		Version:     "test",
	}
	if !o.noBackups {
		backups, err := backup.NewManager(config.BackupConfig{Dir: t.TempDir(), Retain: 3}, st)
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		deps.Backups = backups
	}
	h := NewHandler(deps)
	h.now = func() time.Time { return testNow }

	router := NewRouter(h, NewChiMiddleware(o.mw), o.distance, o.notifications)
	return &testServer{
		handler:    router.SetupChi(),
		store:      st,
		rec:        rec,
		audit:      trail,
		jwt:        o.mw.JWT,
		adminToken: adminToken,
	}
}

func (s *testServer) seed(t *testing.T, ds ...models.Discount) {
	t.Helper()
	if err := s.store.PutDiscounts(context.Background(), ds); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// do sends the request with the admin bearer token.
func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.doAs(t, s.adminToken, method, target, body)
}

// doAs sends the request with token, or without Authorization when empty.
func (s *testServer) doAs(t *testing.T, token, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("body %q is not an envelope: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("request failed: %d %s", rec.Code, rec.Body.String())
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
	return env
}

func ptr[T any](v T) *T { return &v }

func published(id, name, cat string) models.Discount {
	return models.Discount{
		ID:             id,
		Name:           name,
		Category:       cat,
		Percentage:     ptr(20.0),
		Bank:           "galicia",
		Status:         models.StatusActive,
		ApprovalStatus: models.ApprovalApproved,
		Source:         models.SourceManual,
		CreatedAt:      testNow.Add(-48 * time.Hour),
		UpdatedAt:      testNow.Add(-48 * time.Hour),
	}
}
