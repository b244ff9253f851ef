// Package metrics exposes the work queue's diagnostics as Prometheus
// gauges, registered against the default registry so cmd/rulecore's
// /metrics endpoint can scrape them. Gauges (not counters) are used
// throughout because every value here is a snapshot read from
// queue.Stats(), which already tracks its own cumulative totals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"ruleminer/core/queue"
)

var (
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ruleminer",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Current number of candidates waiting in the work queue.",
	})
	queuePeakDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ruleminer",
		Subsystem: "queue",
		Name:      "peak_depth",
		Help:      "Highest queue depth observed during the run.",
	})
	queueEnqueuedTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ruleminer",
		Subsystem: "queue",
		Name:      "enqueued_total",
		Help:      "Total candidates enqueued so far.",
	})
	queueDequeuedTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ruleminer",
		Subsystem: "queue",
		Name:      "dequeued_total",
		Help:      "Total candidates dequeued so far.",
	})
	activeWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ruleminer",
		Subsystem: "queue",
		Name:      "active_workers",
		Help:      "Workers not yet at quiescence.",
	})
	waitingWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ruleminer",
		Subsystem: "queue",
		Name:      "waiting_workers",
		Help:      "Workers currently blocked on an empty queue.",
	})
	rulesEmitted = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ruleminer",
		Subsystem: "store",
		Name:      "rules_emitted_total",
		Help:      "Total rules published to the result store so far.",
	})
)

func init() {
	prometheus.MustRegister(
		queueDepth, queuePeakDepth, queueEnqueuedTotal, queueDequeuedTotal,
		activeWorkers, waitingWorkers, rulesEmitted,
	)
}

// ObserveQueue updates the queue-derived gauges from a snapshot.
func ObserveQueue(s queue.Stats) {
	queueDepth.Set(float64(s.Depth))
	queuePeakDepth.Set(float64(s.PeakDepth))
	queueEnqueuedTotal.Set(float64(s.TotalEnqueued))
	queueDequeuedTotal.Set(float64(s.TotalDequeued))
	activeWorkers.Set(float64(s.ActiveWorkers))
	waitingWorkers.Set(float64(s.WaitingWorkers))
}

// RecordRulesEmitted sets the cumulative emitted-rule count.
func RecordRulesEmitted(n int) {
	rulesEmitted.Set(float64(n))
}
