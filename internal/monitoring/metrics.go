// Package monitoring holds the Prometheus collectors for the capture and aggregation paths.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "keytrace"

// Metrics groups every collector the service exports.
type Metrics struct {
	EventsCaptured      *prometheus.CounterVec
	EventsDropped       *prometheus.CounterVec
	WriteFailures       *prometheus.CounterVec
	OutstandingWrites   prometheus.Gauge
	ActiveScreens       prometheus.Gauge
	AggregationDuration prometheus.Histogram
	AggregationFailures prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil registerer yields working but unregistered collectors, which tests rely on.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsCaptured: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "events_total",
			Help:      "Raw input events accepted for recording.",
		}, []string{"kind", "task_type"}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "events_dropped_total",
			Help:      "Raw input events that produced no record.",
		}, []string{"reason"}),
		WriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "write_failures_total",
			Help:      "Appends rejected by the event store. The record is lost.",
		}, []string{"collection"}),
		OutstandingWrites: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "outstanding_writes",
			Help:      "Appends dispatched but not yet finished.",
		}),
		ActiveScreens: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "active_screens",
			Help:      "Task screens currently capturing.",
		}),
		AggregationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "duration_seconds",
			Help:      "Time spent building per-task summaries for a session.",
			Buckets:   prometheus.DefBuckets,
		}),
		AggregationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "failures_total",
			Help:      "Aggregations aborted because a fetch failed.",
		}),
	}
}
