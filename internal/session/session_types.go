package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/Microck/FrameScribe/internal/compress"
	"github.com/Microck/FrameScribe/internal/config"
	"github.com/Microck/FrameScribe/internal/downloader"
	"github.com/Microck/FrameScribe/internal/frames"
	"github.com/Microck/FrameScribe/internal/history"
	"github.com/Microck/FrameScribe/internal/metrics"
	"github.com/Microck/FrameScribe/internal/notifications"
	"github.com/Microck/FrameScribe/internal/subtitles"
)

// State names a step of the run.
type State string

const (
	StateAwaitingInput        State = "awaiting_input"
	StateDownloading          State = "downloading"
	StateExtractingTranscript State = "extracting_transcript"
	StateEstimatingFrames     State = "estimating_frames"
	StateConfirmingInterval   State = "confirming_interval"
	StateSamplingFrames       State = "sampling_frames"
	StateBuildingPDF          State = "building_pdf"
	StateCompressing          State = "compressing"
	StateCleaningUp           State = "cleaning_up"
	StateDone                 State = "done"
	StateFailed               State = "failed"
	StateCancelled            State = "cancelled"
)

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// Decision is the user's answer to a frame estimate.
type Decision int

const (
	DecisionProceed Decision = iota
	DecisionChange
	DecisionCancel
)

// Estimate is shown to the user before sampling begins.
type Estimate struct {
	Title    string
	Duration time.Duration
	Interval time.Duration
	Frames   int
}

// Prompter answers the questions a run asks. A non-nil problem carries the
// reason the previous answer was rejected. Returning io.EOF or
// pipeline.ErrCancelled ends the run as Cancelled.
type Prompter interface {
	URL(ctx context.Context, problem error) (string, error)
	Interval(ctx context.Context, problem error) (string, error)
	ConfirmEstimate(ctx context.Context, estimate Estimate) (Decision, error)
	Compress(ctx context.Context, size, target int64) (bool, error)
	KeepCompressed(ctx context.Context, original, compressed, target int64) (bool, error)
}

// FrameSampler probes a downloaded video and writes sampled frames.
type FrameSampler interface {
	Probe(ctx context.Context, path string) (frames.VideoInfo, error)
	Sample(ctx context.Context, req frames.Request) ([]frames.Record, error)
}

// Compressor shrinks an assembled PDF toward the size target.
type Compressor interface {
	Compress(ctx context.Context, records []frames.Record, originalSize int64, dst string) (compress.Result, error)
}

// TranscriptConverter writes a downloaded subtitle track as an SRT file.
type TranscriptConverter interface {
	Convert(src, dst string) (subtitles.Result, error)
}

// Revealer opens a folder in the platform file browser.
type Revealer interface {
	Reveal(ctx context.Context, dir string) error
}

// HistoryRecorder stores the outcome of a run.
type HistoryRecorder interface {
	Record(ctx context.Context, run history.Run) (history.Run, error)
}

// Progress receives per-frame sampling progress.
type Progress interface {
	Update(stage string, done, total int)
	Finish(stage string)
}

// Options holds the settings a run needs from configuration.
type Options struct {
	OutputRoot       string
	TempDirName      string
	Collision        string
	SubtitleLanguage string
	TargetBytes      int64
	OpenFolder       bool
	MetricsTextfile  string
}

// OptionsFromConfig extracts run settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		OutputRoot:       cfg.Paths.OutputRoot,
		TempDirName:      cfg.Frames.TempDirName,
		Collision:        cfg.Output.Collision,
		SubtitleLanguage: cfg.Downloader.SubtitleLanguage,
		TargetBytes:      cfg.TargetPDFBytes(),
		OpenFolder:       cfg.Output.OpenFolder,
		MetricsTextfile:  cfg.Metrics.TextfilePath,
	}
}

// Dependencies are the collaborators a run drives. Fetcher, Sampler,
// Assembler and Prompter are required; the rest are skipped when nil.
type Dependencies struct {
	Fetcher    downloader.Fetcher
	Sampler    FrameSampler
	Assembler  compress.Builder
	Compressor Compressor
	Converter  TranscriptConverter
	Prompter   Prompter
	Revealer   Revealer
	History    HistoryRecorder
	Metrics    *metrics.Recorder
	Notifier   notifications.Service
	Progress   Progress
	Logger     *slog.Logger
}

// Session is the state of a single run. It is never persisted.
type Session struct {
	ID        string
	URL       string
	Interval  time.Duration
	Title     string
	Duration  time.Duration
	OutputDir string
	WorkDir   string
}

// Report summarizes a finished run. FailedStage is only set when State is
// StateFailed.
type Report struct {
	Session         Session
	State           State
	Transitions     []State
	FailedStage     State
	EstimatedFrames int
	Frames          []frames.Record
	PDFPath         string
	PDFSize         int64
	OriginalPDFSize int64
	Compression     *compress.Result
	TranscriptPath  string
	Notices         []error
	Err             error
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Elapsed returns the wall-clock duration of the run.
func (r Report) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
