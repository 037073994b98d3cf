// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/centraldescuentos/internal/metrics"
)

var errBoom = errors.New("boom")

func fail() (int, error)    { return 7, errBoom }
func succeed() (int, error) { return 1, nil }

func TestBreaker_TripsAfterFailureRatio(t *testing.T) {
	t.Parallel()

	b := New[int]("test-trip", Settings{MinRequests: 4, Timeout: time.Hour})

	for i := 0; i < 3; i++ {
		got, err := b.Execute(fail)
		if !errors.Is(err, errBoom) || got != 7 {
			t.Fatalf("call %d = %d, %v", i, got, err)
		}
	}
	if b.State() != "closed" {
		t.Fatalf("tripped below the minimum sample: %s", b.State())
	}

	_, _ = b.Execute(fail)
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}

	called := false
	_, err := b.Execute(func() (int, error) {
		called = true
		return 0, nil
	})
	if !IsOpen(err) || called {
		t.Errorf("open breaker let the call through: err=%v called=%v", err, called)
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-trip")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-trip", "rejected")); got != 1 {
		t.Errorf("rejected = %v", got)
	}
}

func TestBreaker_RecoversAfterTimeout(t *testing.T) {
	t.Parallel()

	b := New[int]("test-recover", Settings{MinRequests: 1, FailureRatio: 0.5, Timeout: 20 * time.Millisecond})
	_, _ = b.Execute(fail)
	if b.State() != "open" {
		t.Fatalf("state = %s", b.State())
	}

	time.Sleep(40 * time.Millisecond)
	if b.State() != "half-open" {
		t.Fatalf("state after timeout = %s", b.State())
	}
	for i := 0; i < 3; i++ {
		if _, err := b.Execute(succeed); err != nil {
			t.Fatalf("trial %d: %v", i, err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("state after trials = %s", b.State())
	}
}

func TestBreaker_IsSuccessful(t *testing.T) {
	t.Parallel()

	errConfig := errors.New("not configured")
	b := New[int]("test-success", Settings{
		MinRequests:  1,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errConfig) },
	})

	for i := 0; i < 10; i++ {
		if _, err := b.Execute(func() (int, error) { return 0, errConfig }); !errors.Is(err, errConfig) {
			t.Fatalf("err = %v", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("ignored errors tripped the breaker: %s", b.State())
	}
}

func TestSettings_Defaults(t *testing.T) {
	t.Parallel()

	got := Settings{Timeout: time.Second}.withDefaults()
	want := DefaultSettings()
	if got.MaxRequests != want.MaxRequests || got.Interval != want.Interval ||
		got.MinRequests != want.MinRequests || got.FailureRatio != want.FailureRatio || got.Timeout != time.Second {
		t.Errorf("settings = %+v", got)
	}
	if IsOpen(errBoom) || IsOpen(nil) {
		t.Error("IsOpen matched a plain error")
	}
}
