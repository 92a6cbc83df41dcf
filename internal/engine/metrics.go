package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric label values for execution outcome.
const (
	outcomeSuccessful = "successful"
	outcomeFailed     = "failed"
)

var (
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geode_process_executions_total",
			Help: "Total number of process executions.",
		},
		[]string{"process", "mode", "status"},
	)

	executionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geode_process_execution_duration_seconds",
			Help:    "Process execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"process", "mode"},
	)

	activeJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "geode_active_async_jobs",
			Help: "Number of async jobs currently in flight.",
		},
	)
)

func init() {
	prometheus.MustRegister(executionsTotal)
	prometheus.MustRegister(executionDuration)
	prometheus.MustRegister(activeJobs)
}

// observeExecution records the outcome and duration of one process execution.
func observeExecution(processID, mode string, err error, elapsed time.Duration) {
	outcome := outcomeSuccessful
	if err != nil {
		outcome = outcomeFailed
	}
	executionsTotal.WithLabelValues(processID, mode, outcome).Inc()
	executionDuration.WithLabelValues(processID, mode).Observe(elapsed.Seconds())
}
