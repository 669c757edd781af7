package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rbd_requests_enqueued_total",
		Help: "Total number of calculation requests placed on the engine queue.",
	})

	RequestsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rbd_requests_dropped_total",
		Help: "Total number of calculation requests rejected due to a full queue.",
	})

	Calculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rbd_calculations_total",
		Help: "Total number of calculations, labelled by outcome (ok or error).",
	}, []string{"status"})

	NodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rbd_node_errors_total",
		Help: "Total number of nodes whose reliability curve could not be computed.",
	})

	CalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rbd_calculation_duration_ms",
		Help:    "End-to-end calculation latency in milliseconds.",
		Buckets: []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rbd_stage_duration_ms",
		Help:    "Per-stage calculation latency in milliseconds, labelled by stage.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
	}, []string{"stage"})

	TimePoints = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rbd_time_points",
		Help:    "Number of time-grid points per calculation.",
		Buckets: prometheus.ExponentialBuckets(2, 4, 8),
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rbd_queue_utilization_ratio",
		Help: "Current calculation queue utilization (0–1).",
	})
)
