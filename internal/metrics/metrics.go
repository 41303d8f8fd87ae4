// Package metrics exposes Prometheus counters for board activity and HTTP
// traffic on a dedicated registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "choreboard"

type Metrics struct {
	registry *prometheus.Registry

	events       *prometheus.CounterVec
	pointsEarned prometheus.Counter
	pointsSpent  prometheus.Counter
	tasksReset   prometheus.Counter
	auditTrimmed prometheus.Counter
	pushSent     *prometheus.CounterVec
	wsDropped    prometheus.Counter
	jobRuns      *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed ledger events by kind.",
		}, []string{"kind"}),
		pointsEarned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_earned_total",
			Help:      "Points requested as positive deltas.",
		}),
		pointsSpent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_spent_total",
			Help:      "Points requested as negative deltas.",
		}),
		tasksReset: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_reset_total",
			Help:      "Recurring tasks returned to incomplete.",
		}),
		auditTrimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_trimmed_total",
			Help:      "Audit entries removed by retention.",
		}),
		pushSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_notifications_total",
			Help:      "Web push deliveries by result.",
		}, []string{"result"}),
		wsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_dropped_messages_total",
			Help:      "Messages dropped for slow websocket clients.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.events, m.pointsEarned, m.pointsSpent, m.tasksReset, m.auditTrimmed,
		m.pushSent, m.wsDropped, m.jobRuns, m.httpRequests, m.httpDuration,
	)
	return m
}

// RegisterGauge exposes a value computed at scrape time, such as the
// number of connected displays.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// ObserveEvent counts one ledger event and its signed amount.
func (m *Metrics) ObserveEvent(kind string, amount int) {
	m.events.WithLabelValues(kind).Inc()
	switch {
	case amount > 0:
		m.pointsEarned.Add(float64(amount))
	case amount < 0:
		m.pointsSpent.Add(float64(-amount))
	}
}

func (m *Metrics) TasksReset(n int) {
	m.tasksReset.Add(float64(n))
}

func (m *Metrics) AuditTrimmed(n int64) {
	m.auditTrimmed.Add(float64(n))
}

// PushResult is one of "sent", "expired" or "failed".
func (m *Metrics) PushResult(result string) {
	m.pushSent.WithLabelValues(result).Inc()
}

func (m *Metrics) WebsocketDropped() {
	m.wsDropped.Inc()
}

func (m *Metrics) JobRun(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

// ObserveHTTP records one finished request. route should be the mux
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
