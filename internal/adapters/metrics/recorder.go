// Package metrics records provisioning runs as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/benchup/internal/domain/compiler"
	"github.com/felixgeelhaar/benchup/internal/domain/execution"
)

const namespace = "benchup"

// Recorder is an execution.Observer backed by a private registry.
// The registry is written out as a node-exporter textfile after a run.
type Recorder struct {
	registry *prometheus.Registry

	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Gauge
	runSuccess   prometheus.Gauge
	notRun       prometheus.Gauge
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "results_total",
				Help:      "Step outcomes by step and status",
			},
			[]string{"step", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "duration_seconds",
				Help:      "Duration of executed steps in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~27min
			},
			[]string{"step"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "total",
				Help:      "Pipeline runs by final state",
			},
			[]string{"state"},
		),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_duration_seconds",
			Help:      "Duration of the last pipeline run in seconds",
		}),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_success",
			Help:      "Whether the last pipeline run succeeded (1) or not (0)",
		}),
		notRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_not_run_steps",
			Help:      "Steps that were never attempted in the last run",
		}),
	}

	r.registry.MustRegister(
		r.stepsTotal,
		r.stepDuration,
		r.runsTotal,
		r.runDuration,
		r.runSuccess,
		r.notRun,
	)
	return r
}

// Registry returns the registry holding the run metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// StepStarted implements execution.Observer.
func (r *Recorder) StepStarted(_ string, _ compiler.Step) {}

// StepFinished implements execution.Observer.
func (r *Recorder) StepFinished(_ string, result execution.StepResult) {
	step := result.StepID().String()
	r.stepsTotal.WithLabelValues(step, result.Status().String()).Inc()
	if !result.Skipped() {
		r.stepDuration.WithLabelValues(step).Observe(result.Duration().Seconds())
	}
}

// RunFinished implements execution.Observer.
func (r *Recorder) RunFinished(report *execution.Report) {
	r.runsTotal.WithLabelValues(report.State().String()).Inc()
	r.runDuration.Set(report.Duration().Seconds())
	r.notRun.Set(float64(len(report.NotRun())))
	if report.Success() {
		r.runSuccess.Set(1)
	} else {
		r.runSuccess.Set(0)
	}
}

// WriteTextfile writes the metrics in text exposition format, atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

var _ execution.Observer = (*Recorder)(nil)
