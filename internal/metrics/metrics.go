// Package metrics records step outcomes and writes them in the Prometheus
// textfile collector format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutcomeSuccess labels a step that finished without error
const OutcomeSuccess = "success"

// Recorder collects the metrics of one process. A nil Recorder records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.GaugeVec
	secretsExported *prometheus.GaugeVec
	filesCleaned    prometheus.Counter
}

// NewRecorder creates a recorder backed by its own registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secrets_action_runs_total",
				Help: "Total number of step runs by step, auth method and outcome",
			},
			[]string{"step", "method", "outcome"},
		),
		runDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "secrets_action_run_duration_seconds",
				Help: "Wall time of the last step run in seconds",
			},
			[]string{"step"},
		),
		secretsExported: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "secrets_action_secrets_exported",
				Help: "Number of secrets exported by the last run",
			},
			[]string{"export_type"},
		),
		filesCleaned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "secrets_action_files_cleaned_total",
				Help: "Total number of exported files removed by cleanup",
			},
		),
	}
}

// Registry returns the registry the metrics are registered with
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordRun records a finished step
func (r *Recorder) RecordRun(step, method, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(step, method, outcome).Inc()
	r.runDuration.WithLabelValues(step).Set(elapsed.Seconds())
}

// RecordExported records how many secrets were exported
func (r *Recorder) RecordExported(exportType string, count int) {
	if r == nil {
		return
	}
	r.secretsExported.WithLabelValues(exportType).Set(float64(count))
}

// RecordCleaned records a removed export file
func (r *Recorder) RecordCleaned() {
	if r == nil {
		return
	}
	r.filesCleaned.Inc()
}

// WriteTextfile writes every metric to path, atomically replacing it
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
