// Package metrics exposes prometheus instrumentation for the delivery
// scheduler and billing sweeps.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type SchedulerMetrics struct {
	runs        *prometheus.CounterVec
	runErrors   *prometheus.CounterVec
	customers   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

var (
	schedulerOnce    sync.Once
	schedulerMetrics *SchedulerMetrics
	schedulerMu      sync.Mutex
)

// Scheduler returns the process-wide scheduler metrics, registering them on
// first use.
func Scheduler() *SchedulerMetrics {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	schedulerOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics()
	})
	return schedulerMetrics
}

func newSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "milkroute_scheduler_runs_total",
			Help: "Delivery scheduler invocations by mode.",
		}, []string{"mode"}),
		runErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "milkroute_scheduler_run_errors_total",
			Help: "Per-customer failures recorded during scheduler runs.",
		}, []string{"mode"}),
		customers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "milkroute_scheduler_customers_total",
			Help: "Customers handled by the scheduler, by outcome.",
		}, []string{"mode", "outcome"}),
		runDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "milkroute_scheduler_run_duration_seconds",
			Help:    "Wall time of a scheduler run.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
	}
}

func (m *SchedulerMetrics) IncRun(mode string) {
	m.runs.WithLabelValues(mode).Inc()
}

func (m *SchedulerMetrics) IncRunError(mode string) {
	m.runErrors.WithLabelValues(mode).Inc()
}

func (m *SchedulerMetrics) AddOutcome(mode, outcome string, n int) {
	if n <= 0 {
		return
	}
	m.customers.WithLabelValues(mode, outcome).Add(float64(n))
}

func (m *SchedulerMetrics) ObserveRunDuration(mode string, d time.Duration) {
	m.runDuration.WithLabelValues(mode).Observe(d.Seconds())
}

const (
	OutcomeScheduled = "scheduled"
	OutcomeDelivered = "delivered"
	OutcomeSkipped   = "skipped"
)

// ResetSchedulerMetricsForTest re-registers scheduler metrics against the
// current default registerer. Tests swap the registry first.
func ResetSchedulerMetricsForTest() {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	schedulerOnce = sync.Once{}
	schedulerMetrics = nil
}
