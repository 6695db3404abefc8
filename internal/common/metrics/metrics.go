// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation engine requests",
		},
		[]string{"operation", "status"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "recommendation_request_duration_seconds",
			Help: "Duration of recommendation engine requests in seconds",
		},
		[]string{"operation"},
	)

	CandidatesScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidates_scored",
			Help:    "Number of candidate templates scored per request",
			Buckets: prometheus.LinearBuckets(0, 20, 6),
		},
	)

	PreferenceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preference_cache_hits_total",
			Help: "Preference record cache hits",
		},
	)

	PreferenceCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preference_cache_misses_total",
			Help: "Preference record cache misses",
		},
	)

	TrendingFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trending_fallbacks_total",
			Help: "Trending requests served from the popularity fallback",
		},
	)

	AnalyticsWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_write_failures_total",
			Help: "Best-effort usage analytics writes that failed",
		},
	)

	PreferenceWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preference_write_failures_total",
			Help: "Best-effort preference persistence writes that failed",
		},
	)
)
