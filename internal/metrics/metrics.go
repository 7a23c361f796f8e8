// Package metrics exposes prometheus instrumentation for the chatbot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	PromptsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_prompts_classified_total",
			Help: "Prompts classified by intent",
		},
		[]string{"intent"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_provider_calls_total",
			Help: "Upstream provider calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_provider_errors_total",
			Help: "Classified provider errors",
		},
		[]string{"code"},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_messages_sent_total",
			Help: "User messages accepted for processing",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_cache_hits_total",
			Help: "Response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_cache_misses_total",
			Help: "Response cache misses (including expired entries)",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatbot_cache_entries",
			Help: "Entries resident in the response cache, expired included",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
