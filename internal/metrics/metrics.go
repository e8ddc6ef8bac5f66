package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a registry and the run metrics. A nil Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry

	StageDuration       *prometheus.HistogramVec
	StageFailures       *prometheus.CounterVec
	Runs                *prometheus.CounterVec
	FramesExtracted     prometheus.Counter
	PDFSizeBytes        *prometheus.GaugeVec
	CompressionAttempts prometheus.Counter
	LastRunTimestamp    prometheus.Gauge
}

// New registers the run metrics on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "framescribe_stage_duration_seconds",
				Help:    "Wall time spent in each pipeline stage",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 900, 1800},
			},
			[]string{"stage"},
		),
		StageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framescribe_stage_failures_total",
				Help: "Number of failed pipeline stages",
			},
			[]string{"stage"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framescribe_runs_total",
				Help: "Finished runs by terminal state",
			},
			[]string{"state"},
		),
		FramesExtracted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "framescribe_frames_extracted_total",
				Help: "Frames written to disk",
			},
		),
		PDFSizeBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "framescribe_pdf_size_bytes",
				Help: "Size of the last generated document",
			},
			[]string{"variant"},
		),
		CompressionAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "framescribe_compression_attempts_total",
				Help: "Quality ladder rungs tried while compressing",
			},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "framescribe_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveStage records a stage duration and, when failed, a failure.
func (r *Recorder) ObserveStage(stage string, elapsed time.Duration, failed bool) {
	if r == nil {
		return
	}
	r.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if failed {
		r.StageFailures.WithLabelValues(stage).Inc()
	}
}

// AddFrames counts written frames.
func (r *Recorder) AddFrames(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.FramesExtracted.Add(float64(n))
}

// SetPDFSize records the size of a document variant.
func (r *Recorder) SetPDFSize(variant string, size int64) {
	if r == nil {
		return
	}
	r.PDFSizeBytes.WithLabelValues(variant).Set(float64(size))
}

// AddCompressionAttempts counts ladder rungs.
func (r *Recorder) AddCompressionAttempts(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.CompressionAttempts.Add(float64(n))
}

// FinishRun counts a terminal state and stamps the finish time.
func (r *Recorder) FinishRun(state string, at time.Time) {
	if r == nil {
		return
	}
	r.Runs.WithLabelValues(state).Inc()
	r.LastRunTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry to path in text exposition format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
