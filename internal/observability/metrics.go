// Package observability holds the process-wide prometheus metric handles
// the pipeline, inference engine, and API layer record against.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PhotosDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "phototag",
		Name:      "photos_discovered_total",
		Help:      "Total number of new or changed supported files the discovery stage has enqueued",
	})

	PhotosProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phototag",
		Name:      "photos_processed_total",
		Help:      "Total number of items completing a pipeline stage",
	}, []string{"stage"})

	PhotosErrored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phototag",
		Name:      "photos_errored_total",
		Help:      "Total number of items that errored out of a pipeline stage",
	}, []string{"stage"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "phototag",
		Name:      "stage_duration_seconds",
		Help:      "Duration of a single item passing through one pipeline stage",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "phototag",
		Name:      "queue_depth",
		Help:      "Number of items currently pending in a stage's input queue",
	}, []string{"stage"})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "phototag",
		Name:      "inference_duration_seconds",
		Help:      "Duration of a single ONNX session run",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"model"})

	ActiveImports = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phototag",
		Name:      "active_imports",
		Help:      "1 while an import job is running, 0 otherwise",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "phototag",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phototag",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
