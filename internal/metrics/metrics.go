// Package metrics exposes admission counters as Prometheus metrics and
// writes them to a node_exporter textfile after each run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private registry so runs and tests never share state.
type Recorder struct {
	registry *prometheus.Registry

	FoldersTotal  *prometheus.CounterVec
	FilesAdmitted *prometheus.CounterVec
	IssuesTotal   *prometheus.CounterVec
	RenamesTotal  *prometheus.CounterVec
	HighestSerial *prometheus.GaugeVec
	LastRun       prometheus.Gauge
	RunDuration   prometheus.Histogram
}

// NewRecorder registers every metric on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		FoldersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodgate_folders_total",
				Help: "Folders evaluated, by cadence and outcome",
			},
			[]string{"cadence", "status"},
		),
		FilesAdmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodgate_files_admitted_total",
				Help: "Files admitted, by cadence",
			},
			[]string{"cadence"},
		),
		IssuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodgate_issues_total",
				Help: "Admission issues reported, by cadence and kind",
			},
			[]string{"cadence", "kind"},
		),
		RenamesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodgate_renames_total",
				Help: "Files renamed to their canonical name, by cadence",
			},
			[]string{"cadence"},
		),
		HighestSerial: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "periodgate_highest_serial",
				Help: "Highest serial known after the last passing run, by cadence",
			},
			[]string{"cadence"},
		),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "periodgate_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "periodgate_run_duration_seconds",
			Help:    "Wall time of a run",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
	}
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Folder records the result of one folder.
func (r *Recorder) Folder(cadence string, passed bool, admitted, renamed int, issueKinds []string, highest int) {
	status := "failed"
	if passed {
		status = "passed"
		r.HighestSerial.WithLabelValues(cadence).Set(float64(highest))
	}
	r.FoldersTotal.WithLabelValues(cadence, status).Inc()
	r.FilesAdmitted.WithLabelValues(cadence).Add(float64(admitted))
	r.RenamesTotal.WithLabelValues(cadence).Add(float64(renamed))
	for _, k := range issueKinds {
		r.IssuesTotal.WithLabelValues(cadence, k).Inc()
	}
}

// Finish stamps the end of a run that began at start.
func (r *Recorder) Finish(start, end time.Time) {
	r.RunDuration.Observe(end.Sub(start).Seconds())
	r.LastRun.Set(float64(end.Unix()))
}

// WriteTextfile writes the registry in the text exposition format. An
// empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
