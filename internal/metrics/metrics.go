// Package metrics exposes prometheus instrumentation for bill splitting.
//
// A nil *Recorder is valid and records nothing, so callers never need to
// branch on whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitbill"

// Recorder holds the splitbill collectors.
type Recorder struct {
	allocations        prometheus.Counter
	allocationDuration prometheus.Histogram
	toggles            *prometheus.CounterVec
	itemsIngested      *prometheus.CounterVec
	unassignedSubtotal prometheus.Gauge
}

// New creates a Recorder and registers its collectors with reg.
// It panics if a collector is already registered, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Number of bill allocations computed.",
		}),
		allocationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "allocation_duration_seconds",
			Help:      "Time spent computing one allocation.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_toggles_total",
			Help:      "Assignment toggles by resulting action.",
		}, []string{"action"}),
		itemsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_ingested_total",
			Help:      "Receipt items produced by ingestion, by backend.",
		}, []string{"backend"}),
		unassignedSubtotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unassigned_subtotal",
			Help:      "Unassigned subtotal of the most recent allocation.",
		}),
	}
	reg.MustRegister(r.allocations, r.allocationDuration, r.toggles, r.itemsIngested, r.unassignedSubtotal)
	return r
}

// ObserveAllocation records one allocation that started at start.
func (r *Recorder) ObserveAllocation(start time.Time, unassigned float64) {
	if r == nil {
		return
	}
	r.allocations.Inc()
	r.allocationDuration.Observe(time.Since(start).Seconds())
	r.unassignedSubtotal.Set(unassigned)
}

// ObserveToggle records an assignment toggle.
func (r *Recorder) ObserveToggle(added bool) {
	if r == nil {
		return
	}
	action := "remove"
	if added {
		action = "add"
	}
	r.toggles.WithLabelValues(action).Inc()
}

// ObserveIngest records n items extracted by backend.
func (r *Recorder) ObserveIngest(backend string, n int) {
	if r == nil {
		return
	}
	r.itemsIngested.WithLabelValues(backend).Add(float64(n))
}
