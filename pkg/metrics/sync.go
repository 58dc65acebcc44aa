package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeConflict = "conflict"
)

// SyncMetrics tracks price sync runs and their effect on the catalog.
type SyncMetrics struct {
	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	pricesRecomputed  prometheus.Counter
	catalogWrites     *prometheus.CounterVec
	propagationErrors prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	m := &SyncMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_run_duration_seconds",
			Help:      "Wall time of a full sync run.",
			Buckets:   prometheus.DefBuckets,
		}),
		pricesRecomputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prices_recalculated_total",
			Help:      "Price entries whose calculated price changed during recompute.",
		}),
		catalogWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_price_writes_total",
			Help:      "Regular price writes issued to the catalog.",
		}, []string{"reason"}),
		propagationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagation_errors_total",
			Help:      "Per-product failures while propagating prices to the catalog.",
		}),
	}
	reg.MustRegister(m.runs, m.runDuration, m.pricesRecomputed, m.catalogWrites, m.propagationErrors)
	return m
}

// ObserveRun records the outcome and duration of one sync run.
func (m *SyncMetrics) ObserveRun(outcome string, duration time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(outcome)).Inc()
	if duration > 0 {
		m.runDuration.Observe(duration.Seconds())
	}
}

func (m *SyncMetrics) AddPricesRecomputed(n int) {
	if m == nil || m.pricesRecomputed == nil || n <= 0 {
		return
	}
	m.pricesRecomputed.Add(float64(n))
}

func (m *SyncMetrics) AddCatalogWrites(reason string, n int) {
	if m == nil || m.catalogWrites == nil || n <= 0 {
		return
	}
	m.catalogWrites.WithLabelValues(normalizeLabel(reason)).Add(float64(n))
}

func (m *SyncMetrics) AddPropagationErrors(n int) {
	if m == nil || m.propagationErrors == nil || n <= 0 {
		return
	}
	m.propagationErrors.Add(float64(n))
}
