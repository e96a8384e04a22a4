// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exosurvey_runs_started_total",
		Help: "Total number of survey simulation runs started",
	})

	runsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exosurvey_runs_completed_total",
		Help: "Total number of survey simulation runs completed successfully",
	})

	runsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exosurvey_runs_failed_total",
		Help: "Total number of survey simulation runs that returned an error",
	})

	runsAborted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exosurvey_runs_aborted_total",
		Help: "Total number of survey simulation runs aborted as stragglers",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exosurvey_run_duration_seconds",
		Help:    "Wall clock duration of individual survey simulation runs",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	detectionsPerRun = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exosurvey_run_detections",
		Help:    "Number of planet detections per survey simulation run",
		Buckets: prometheus.LinearBuckets(0, 5, 12),
	})

	observationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exosurvey_observations_total",
		Help: "Total number of target observations simulated",
	})

	collatedDetections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exosurvey_collated_detections_total",
		Help: "Total number of detections ingested by the collation index",
	})

	collateErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exosurvey_collate_errors_total",
		Help: "Total number of run files the collator failed to ingest",
	})
)

// RunStarted records the start of one simulation run.
func RunStarted() { runsStarted.Inc() }

// RunCompleted records a successful run with its duration and detections.
func RunCompleted(d time.Duration, detections int) {
	runsCompleted.Inc()
	runDuration.Observe(d.Seconds())
	detectionsPerRun.Observe(float64(detections))
}

// RunFailed records a run that returned an error.
func RunFailed() { runsFailed.Inc() }

// RunAborted records a straggler run cancelled by the ensemble.
func RunAborted() { runsAborted.Inc() }

// ObservationMade records one simulated target observation.
func ObservationMade() { observationsTotal.Inc() }

// DetectionsCollated records detections ingested during collation.
func DetectionsCollated(n int) { collatedDetections.Add(float64(n)) }

// CollateError records a run file that could not be ingested.
func CollateError() { collateErrors.Inc() }
