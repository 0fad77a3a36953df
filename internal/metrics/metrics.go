package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OutgoingLatency records the duration of every upstream HTTP call.
	OutgoingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barrierfree_upstream_request_duration_seconds",
			Help:    "Latency of outgoing requests to the open-data feeds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"feed", "method", "status"},
	)

	// FeedStatus Feed status (up/down)
	FeedStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "barrierfree_feed_status",
			Help: "Status of an upstream feed after its last fetch (0 = failing, 1 = working)",
		},
		[]string{"feed"},
	)
)

var (
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barrierfree_feed_pages_fetched_total",
		Help: "Number of upstream pages fetched",
	}, []string{"feed"})

	RowsNormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barrierfree_feed_rows_normalized_total",
		Help: "Number of raw upstream records normalized into canonical rows",
	}, []string{"feed"})

	FeedFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barrierfree_feed_failures_total",
		Help: "Upstream feed failures by kind (transport, status, malformed, timeout, result, cooldown, config)",
	}, []string{"feed", "kind"})
)

var (
	WheelchairVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barrierfree_wheelchair_verdicts_total",
		Help: "Wheelchair feasibility verdicts computed for composed journeys",
	}, []string{"status"})

	ComposeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "barrierfree_compose_duration_seconds",
		Help:    "Time spent composing a journey response, including upstream fan-out",
		Buckets: prometheus.DefBuckets,
	})

	ComposeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barrierfree_compose_failures_total",
		Help: "Journey compositions that failed on the route dependency",
	})
)

// Failure kinds used as the "kind" label of FeedFailures.
const (
	FailureTransport = "transport"
	FailureStatus    = "status"
	FailureMalformed = "malformed"
	FailureTimeout   = "timeout"
	FailureResult    = "result"
	FailureCooldown  = "cooldown"
	FailureConfig    = "config"
)
