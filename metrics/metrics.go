// Package metrics provides Prometheus metrics for the MealDB MCP server.
// It tracks tool calls, recipe API traffic, cache and index behaviour, and
// the HTTP transport.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "mealdb_mcp"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures request latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing requests
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_hits_total",
		Help:      "Total search cache hit count",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_misses_total",
		Help:      "Total search cache miss count",
	})

	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "cache_entries",
		Help:      "Current number of search cache entries",
	})

	// RecipeAPILatency measures recipe API call latency by action
	RecipeAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "recipe_api_latency_seconds",
		Help:      "Recipe API call latency by action",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	// RecipeAPIRequestsTotal counts recipe API requests
	RecipeAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "recipe_api_requests_total",
		Help:      "Total recipe API requests by action and status",
	}, []string{"action", "status"})

	// RecipeAPIErrors counts recipe API failures by reason
	RecipeAPIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "recipe_api_errors_total",
		Help:      "Recipe API errors by action and reason",
	}, []string{"action", "reason"})

	// CircuitState reports the upstream circuit breaker state (0 closed, 1 open, 2 half-open)
	CircuitState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "circuit_breaker_state",
		Help:      "Recipe API circuit breaker state",
	})

	IndexRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "index_rebuilds_total",
		Help:      "Number of full recipe index rebuilds",
	})

	IndexRebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "index_rebuild_duration_seconds",
		Help:      "Recipe index rebuild latency",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	})

	// IndexLookups counts index lookups by outcome (hit, miss, stale, repaired)
	IndexLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "index_lookups_total",
		Help:      "Recipe index lookups by outcome",
	}, []string{"outcome"})

	IndexEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "index_entries",
		Help:      "Number of recipe ids in the index",
	})

	// StorageWrites counts file writes by kind (collection, meal_plan, letter, index)
	StorageWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "storage_writes_total",
		Help:      "Recipe store file writes by kind and status",
	}, []string{"kind", "status"})

	ResourceReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "resource_reads_total",
		Help:      "MCP resource reads by resource and status",
	}, []string{"resource", "status"})

	PromptRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "prompt_renders_total",
		Help:      "MCP prompt renders by prompt name",
	}, []string{"prompt"})

	// RateLimitRejections counts requests rejected due to rate limiting
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Requests rejected due to rate limiting",
	})

	// RateLimitWaits counts recipe API calls that had to wait for a request slot
	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_waits_total",
		Help:      "Recipe API calls that waited for the request semaphore",
	})

	// HTTPRequestsTotal counts HTTP transport requests
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method and status",
	}, []string{"method", "status"})

	// HTTPRequestDuration measures HTTP request latency
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency distribution",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordRequest records a completed request with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	RequestsTotal.WithLabelValues(tool, status(success)).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records a recipe API call. reason is empty on success.
func RecordAPICall(action string, duration float64, success bool, reason string) {
	RecipeAPIRequestsTotal.WithLabelValues(action, status(success)).Inc()
	RecipeAPILatency.WithLabelValues(action).Observe(duration)
	if reason != "" {
		RecipeAPIErrors.WithLabelValues(action, reason).Inc()
	}
}

// RecordCacheAccess records a cache hit or miss
func RecordCacheAccess(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// SetCacheSize updates the current cache size gauge
func SetCacheSize(size int64) {
	CacheSize.Set(float64(size))
}

// RecordRebuild records a completed index rebuild.
func RecordRebuild(duration float64, entries int) {
	IndexRebuilds.Inc()
	IndexRebuildDuration.Observe(duration)
	IndexEntries.Set(float64(entries))
}

// RecordLookup records an index lookup outcome.
func RecordLookup(outcome string) {
	IndexLookups.WithLabelValues(outcome).Inc()
}

// RecordWrite records a store write of the given kind.
func RecordWrite(kind string, success bool) {
	StorageWrites.WithLabelValues(kind, status(success)).Inc()
}

// RecordResourceRead records a resource read.
func RecordResourceRead(resource string, success bool) {
	ResourceReads.WithLabelValues(resource, status(success)).Inc()
}
