package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	subsystem = "sitegrader"

	// Labels
	stageLabel       = "stage"
	stageStatusLabel = "status"
	runStatusLabel   = "status"
)

/**
* Metrics definition
**/
var assessmentRunsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "assessment_runs_total",
		Help:      "number of finished assessment runs by terminal status",
	},
	[]string{runStatusLabel},
)

var stageResolutionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "stage_resolutions_total",
		Help:      "number of resolved stages by stage and status",
	},
	[]string{stageLabel, stageStatusLabel},
)

var stageDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "stage_duration_seconds",
		Help:      "wall time spent resolving a stage, retries included",
		Buckets:   []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120},
	},
	[]string{stageLabel},
)

var billedCostMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "billed_cost_dollars_total",
		Help:      "accumulated cost of external attempts, failed attempts included",
	},
)

// RecordRun counts one finished assessment run.
func RecordRun(status string) {
	assessmentRunsTotalMetric.With(prometheus.Labels{runStatusLabel: status}).Inc()
}

// ObserveStage counts one resolved stage and records its duration.
func ObserveStage(stage, status string, duration time.Duration) {
	stageResolutionsTotalMetric.With(prometheus.Labels{
		stageLabel:       stage,
		stageStatusLabel: status,
	}).Inc()
	if duration > 0 {
		stageDurationMetric.With(prometheus.Labels{stageLabel: stage}).Observe(duration.Seconds())
	}
}

// AddBilledCost accumulates billed external-call spend.
func AddBilledCost(cost float64) {
	if cost > 0 {
		billedCostMetric.Add(cost)
	}
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(assessmentRunsTotalMetric)
	prometheus.MustRegister(stageResolutionsTotalMetric)
	prometheus.MustRegister(stageDurationMetric)
	prometheus.MustRegister(billedCostMetric)
}
