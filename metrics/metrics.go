// Package metrics provides Prometheus collectors for the engine's caches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache names used as label values.
const (
	CacheSuperclasses = "superclasses"
	CacheClosure      = "closure"
	CacheIC           = "ic"
	CacheLCS          = "lcs"
	CacheInferred     = "inferred"
)

// Metrics holds the engine collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// lookups counts cache lookups.
	// Labels: cache, result (hit, miss, frozen_miss)
	lookups *prometheus.CounterVec

	// computations counts values computed on a miss.
	// Labels: cache
	computations *prometheus.CounterVec

	// snapshotRecords counts records moved through snapshot stores.
	// Labels: cache, op (save, load)
	snapshotRecords *prometheus.CounterVec

	// comparisons counts element pair comparisons by metric.
	// Labels: metric
	comparisons *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semsim",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total cache lookups by cache and result",
		}, []string{"cache", "result"}),
		computations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semsim",
			Subsystem: "cache",
			Name:      "computations_total",
			Help:      "Total values computed after a cache miss",
		}, []string{"cache"}),
		snapshotRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semsim",
			Subsystem: "snapshot",
			Name:      "records_total",
			Help:      "Total records saved to or loaded from snapshot stores",
		}, []string{"cache", "op"}),
		comparisons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semsim",
			Subsystem: "engine",
			Name:      "comparisons_total",
			Help:      "Total element pair comparisons by metric",
		}, []string{"metric"}),
	}
}

func (m *Metrics) Hit(cache string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(cache, "hit").Inc()
}

func (m *Metrics) Miss(cache string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(cache, "miss").Inc()
}

// FrozenMiss records a miss on a frozen cache, which is answered without computing.
func (m *Metrics) FrozenMiss(cache string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(cache, "frozen_miss").Inc()
}

func (m *Metrics) Computed(cache string) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(cache).Inc()
}

func (m *Metrics) Saved(cache string, n int) {
	if m == nil {
		return
	}
	m.snapshotRecords.WithLabelValues(cache, "save").Add(float64(n))
}

func (m *Metrics) Loaded(cache string, n int) {
	if m == nil {
		return
	}
	m.snapshotRecords.WithLabelValues(cache, "load").Add(float64(n))
}

func (m *Metrics) Compared(metric string) {
	if m == nil {
		return
	}
	m.comparisons.WithLabelValues(metric).Inc()
}

// Lookups exposes the lookup counter for tests and exporters.
func (m *Metrics) Lookups() *prometheus.CounterVec {
	return m.lookups
}

// Computations exposes the computation counter for tests and exporters.
func (m *Metrics) Computations() *prometheus.CounterVec {
	return m.computations
}
