package refdata

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "formulary"

// Metrics records repository activity. A nil *Metrics records nothing.
type Metrics struct {
	loads          *prometheus.CounterVec
	commits        *prometheus.CounterVec
	rowsWritten    prometheus.Gauge
	commitDuration prometheus.Histogram
	pending        prometheus.Gauge
}

// NewMetrics creates the repository collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_loads_total",
			Help:      "Cache loads from the store, by result.",
		}, []string{"result"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commits_total",
			Help:      "Full-rewrite commits, by result.",
		}, []string{"result"}),
		rowsWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "commit_rows_written",
			Help:      "Rows inserted by the last successful commit.",
		}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "commit_duration_seconds",
			Help:      "Time spent in the commit transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pending_changes",
			Help:      "1 while the cache holds uncommitted mutations.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.loads, m.commits, m.rowsWritten, m.commitDuration, m.pending)
	}
	return m
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) observeLoad(ok bool) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) observeCommit(ok bool, rows int, d time.Duration) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(result(ok)).Inc()
	m.commitDuration.Observe(d.Seconds())
	if ok {
		m.rowsWritten.Set(float64(rows))
	}
}

func (m *Metrics) setPending(dirty bool) {
	if m == nil {
		return
	}
	if dirty {
		m.pending.Set(1)
		return
	}
	m.pending.Set(0)
}
