// Package metrics exposes the outcome of a run as Prometheus metrics. A
// batch tool has nobody to scrape it, so the registry is written to a
// node_exporter textfile collector file.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seahurt/bcl2fq-local/internal/service"
)

const namespace = "bcl2fq"

type Recorder struct {
	registry    *prometheus.Registry
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	info        *prometheus.GaugeVec
	exitCode    prometheus.Gauge
	lines       prometheus.Gauge
	duration    *prometheus.GaugeVec
	finished    prometheus.Gauge
	success     prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "state",
				Help:      "Current state of the run, 1 for the active state.",
			},
			[]string{"state"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "State transitions of the run.",
			},
			[]string{"from", "to"},
		),
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_info",
				Help:      "Identity of the run, always 1.",
			},
			[]string{"run_id", "run", "flowcell", "instrument", "mask"},
		),
		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bcl2fastq",
			Name:      "exit_code",
			Help:      "Exit code of bcl2fastq, -1 when it did not exit normally.",
		}),
		lines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bcl2fastq",
			Name:      "output_lines",
			Help:      "Lines bcl2fastq printed on stdout and stderr.",
		}),
		duration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Time spent per phase of the run.",
			},
			[]string{"phase"},
		),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "finished_timestamp_seconds",
			Help:      "Unix time the run reached a terminal state.",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "success",
			Help:      "1 if the run finished successfully.",
		}),
	}
	r.registry.MustRegister(r.state, r.transitions, r.info, r.exitCode, r.lines, r.duration, r.finished, r.success)
	for _, s := range service.States() {
		r.state.WithLabelValues(s.String()).Set(0)
	}
	r.state.WithLabelValues(service.StateIdle.String()).Set(1)
	return r
}

// Transition is a service.TransitionFunc.
func (r *Recorder) Transition(_ context.Context, from, to service.State) {
	r.state.WithLabelValues(from.String()).Set(0)
	r.state.WithLabelValues(to.String()).Set(1)
	r.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// Record copies the final report of a run into the metrics.
func (r *Recorder) Record(rep service.Report) {
	r.info.WithLabelValues(rep.RunID, rep.RunInfo.ID, rep.RunInfo.Flowcell, rep.RunInfo.Instrument, rep.Mask).Set(1)
	r.duration.WithLabelValues("wait").Set(rep.Waited.Seconds())
	if !rep.Exec.Started.IsZero() {
		r.exitCode.Set(float64(rep.Exec.ExitCode()))
		r.lines.Set(float64(rep.Exec.Lines))
		r.duration.WithLabelValues("execute").Set(rep.Exec.Stopped.Sub(rep.Exec.Started).Seconds())
	}
	if !rep.Finished.IsZero() {
		r.duration.WithLabelValues("total").Set(rep.Finished.Sub(rep.Started).Seconds())
		r.finished.Set(float64(rep.Finished.Unix()))
	}
	if rep.State == service.StateDone {
		r.success.Set(1)
	} else {
		r.success.Set(0)
	}
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
