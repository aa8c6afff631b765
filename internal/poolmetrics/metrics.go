// Package poolmetrics exposes priopool's pool state as Prometheus
// collectors, grounded in
// aipilotbyjd-linkflow-ai/internal/platform/metrics/prometheus.go's
// NewMetrics(namespace) pattern (see DESIGN.md / SPEC_FULL.md §3.3).
package poolmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pool's Prometheus collectors.
type Metrics struct {
	ThreadCount    prometheus.Gauge
	QueueLength    prometheus.Gauge
	TasksCompleted prometheus.Counter
	TasksRejected  prometheus.Counter
	TasksPanicked  prometheus.Counter
	TaskDuration   prometheus.Histogram
}

// New registers a Metrics set on reg (typically
// prometheus.DefaultRegisterer). Registration errors from a duplicate
// namespace are swallowed the same way the teacher's NoOp fallbacks are:
// metrics are diagnostic, never load-bearing for pool correctness.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		ThreadCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thread_count",
			Help:      "Current number of live workers.",
		}),
		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Current number of queued (not yet executing) tasks.",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Total tasks that finished executing (success or panic).",
		}),
		TasksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_rejected_total",
			Help:      "Total submissions rejected because the pool was closed.",
		}),
		TasksPanicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_panicked_total",
			Help:      "Total tasks whose closure aborted abnormally.",
		}),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task execution latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.ThreadCount, m.QueueLength, m.TasksCompleted, m.TasksRejected, m.TasksPanicked, m.TaskDuration,
	} {
		_ = reg.Register(c)
	}
	return m
}

// Handler returns an http.Handler serving the registry reg's metrics in
// the Prometheus exposition format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
