// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package metrics registers the Prometheus collectors exported at /metrics.
//
// Collectors are package-level and registered with the default registry by
// promauto. Callers use the Record* helpers so label sets stay consistent.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Document store metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of failed document store operations",
		},
		[]string{"driver", "operation"},
	)

	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_gc_runs_total",
			Help: "Total number of value log GC runs",
		},
		[]string{"result"}, // "ok", "error"
	)

	// Recommendation cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry, preference change or explicit clear)",
		},
		[]string{"cache_type"},
	)

	// Third-party API metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of calls to third-party APIs",
		},
		[]string{"service", "status_code"}, // service: "routing", "ai", "push"
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of calls to third-party APIs in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of calls through a circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state changes",
		},
		[]string{"name", "from", "to"},
	)

	// Discount administration metrics
	DiscountWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discount_writes_total",
			Help: "Total number of discounts written by admin operations",
		},
		[]string{"operation"}, // "create", "update", "delete", "import", "approval", "visibility"
	)

	DiscountBatchCommits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discount_batch_commits_total",
			Help: "Total number of batch commits issued by bulk operations",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of push notification requests",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Catalogue snapshot metrics
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backups_total",
			Help: "Total number of catalogue snapshots attempted",
		},
		[]string{"result"}, // "success", "failure"
	)

	BackupLastSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_last_size_bytes",
			Help: "Size of the most recent successful snapshot",
		},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)
)

// CacheRecommendations labels the per-user recommendation cache.
const CacheRecommendations = "recommendations"

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordStoreOperation records the latency of one store call.
func RecordStoreOperation(driver, operation string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
}

// RecordStoreError counts a failed store call.
func RecordStoreError(driver, operation string) {
	StoreOperationErrors.WithLabelValues(driver, operation).Inc()
}

// RecordStoreGC counts a value log GC pass.
func RecordStoreGC(err error) {
	if err != nil {
		StoreGCRuns.WithLabelValues("error").Inc()
		return
	}
	StoreGCRuns.WithLabelValues("ok").Inc()
}

// RecordCacheLookup counts a hit or miss on the named cache.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// SetCacheEntries publishes the current size of the named cache.
func SetCacheEntries(cacheType string, n int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(n))
}

// RecordCacheEvictions counts n evictions from the named cache.
func RecordCacheEvictions(cacheType string, n int) {
	if n > 0 {
		CacheEvictions.WithLabelValues(cacheType).Add(float64(n))
	}
}

// RecordUpstreamCall records a call to a third-party API. statusCode 0
// means the request never produced a response.
func RecordUpstreamCall(service string, statusCode int, duration time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	UpstreamRequests.WithLabelValues(service, code).Inc()
	UpstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordBreakerResult counts one call through the named breaker.
func RecordBreakerResult(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordBreakerTransition publishes a state change. state is the numeric
// value of the new state.
func RecordBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordDiscountWrites counts n discounts written by operation.
func RecordDiscountWrites(operation string, n int) {
	if n > 0 {
		DiscountWrites.WithLabelValues(operation).Add(float64(n))
	}
}

// RecordBatchCommit counts one bulk commit.
func RecordBatchCommit() {
	DiscountBatchCommits.Inc()
}

// RecordNotification counts a push send attempt.
func RecordNotification(success bool) {
	if success {
		NotificationsSent.WithLabelValues("success").Inc()
	} else {
		NotificationsSent.WithLabelValues("failure").Inc()
	}
}

// RecordBackup counts a snapshot attempt.
func RecordBackup(success bool, sizeBytes int64) {
	if !success {
		BackupsTotal.WithLabelValues("failure").Inc()
		return
	}
	BackupsTotal.WithLabelValues("success").Inc()
	BackupLastSizeBytes.Set(float64(sizeBytes))
}

// SetAppInfo publishes build information.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
