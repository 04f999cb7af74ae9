package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and histograms for the prediction pipeline. InferenceRuns counts
// genuine forward passes only - cache hits and mock predictions do not touch it,
// which makes it usable to verify the per-hash idempotence guarantee.
var (
	InferenceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffee_inference_runs_total",
		Help: "Forward passes executed, labelled by model version.",
	}, []string{"model_version"})

	InferenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coffee_inference_failures_total",
		Help: "Augmentation branches dropped because inference returned no output.",
	})

	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffee_predictions_total",
		Help: "Completed predictions, labelled by pipeline variant and disease.",
	}, []string{"model_version", "disease"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffee_cache_hits_total",
		Help: "Prediction cache hits per tier (fast, shared).",
	}, []string{"tier"})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coffee_cache_misses_total",
		Help: "Prediction cache misses across both tiers.",
	})

	CacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coffee_cache_shared_errors_total",
		Help: "Swallowed shared-tier cache errors.",
	})

	QueuePublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coffee_queue_publish_failures_total",
		Help: "Job publishes that fell back to synchronous processing.",
	})

	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coffee_prediction_duration_seconds",
		Help:    "End-to-end prediction latency.",
		Buckets: prometheus.DefBuckets,
	})
)
