// Package metrics exposes scheduler and git queue counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scribe"

// Metrics holds scribe's collectors in a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ticks        prometheus.Counter
	snapshots    *prometheus.CounterVec
	summaries    *prometheus.CounterVec
	tasks        *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	dropped      *prometheus.CounterVec
}

// New registers all collectors in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks processed.",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Activity snapshots written, by result.",
		}, []string{"result"}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_scheduled_total",
			Help:      "Summaries queued, by kind.",
		}, []string{"kind"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "git_tasks_total",
			Help:      "git queue tasks finished, by task name and result.",
		}, []string{"task", "result"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "git_task_duration_seconds",
			Help:      "Time spent running git queue tasks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "git_tasks_dropped_total",
			Help:      "git queue submissions dropped because the queue was full.",
		}, []string{"task"}),
	}

	m.registry.MustRegister(m.ticks, m.snapshots, m.summaries, m.tasks, m.taskDuration, m.dropped)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TickCompleted counts a scheduler tick.
func (m *Metrics) TickCompleted() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

// SnapshotWritten counts a snapshot write.
func (m *Metrics) SnapshotWritten(err error) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(result(err)).Inc()
}

// SummaryScheduled counts a queued summary.
func (m *Metrics) SummaryScheduled(kind string) {
	if m == nil {
		return
	}
	m.summaries.WithLabelValues(kind).Inc()
}

// TaskCompleted records a finished git task.
func (m *Metrics) TaskCompleted(name string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(name, result(err)).Inc()
	m.taskDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// TaskDropped records a submission rejected by a full queue.
func (m *Metrics) TaskDropped(name string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(name).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
