package session

import (
	"context"
	"time"

	"github.com/Microck/FrameScribe/internal/history"
	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/notifications"
)

const sideEffectTimeout = 15 * time.Second

// finish records the outcome. None of these steps can change the terminal
// state; failures are logged only.
func (r *run) finish(ctx context.Context) {
	r.report.FinishedAt = time.Now()
	state := r.report.State

	// Side effects still run after an interrupt.
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	r.recordHistory(sideCtx)
	r.writeMetrics()
	r.notify(sideCtx)
	if state == StateDone && r.o.opts.OpenFolder && r.o.deps.Revealer != nil && r.report.Session.OutputDir != "" {
		if err := r.o.deps.Revealer.Reveal(sideCtx, r.report.Session.OutputDir); err != nil {
			logging.WarnWithContext(r.logger, "failed to open output folder", "reveal_failed",
				logging.String("output_dir", r.report.Session.OutputDir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "open the folder manually"),
			)
		}
	}

	attrs := []logging.Attr{
		logging.String("state", string(state)),
		logging.Duration("elapsed", r.report.Elapsed()),
		logging.Int("frames", len(r.report.Frames)),
		logging.Int("notices", len(r.report.Notices)),
	}
	if r.report.PDFPath != "" {
		attrs = append(attrs, logging.String("pdf", r.report.PDFPath))
	}
	if r.report.Err != nil {
		attrs = append(attrs, logging.Error(r.report.Err))
	}
	r.logger.Info("session finished", logging.Args(attrs...)...)
}

func (r *run) recordHistory(ctx context.Context) {
	if r.o.deps.History == nil {
		return
	}
	entry := history.Run{
		ID:             r.report.Session.ID,
		StartedAt:      r.report.StartedAt,
		FinishedAt:     r.report.FinishedAt,
		URL:            r.report.Session.URL,
		Title:          r.report.Session.Title,
		OutputDir:      r.report.Session.OutputDir,
		Interval:       r.report.Session.Interval,
		Frames:         len(r.report.Frames),
		PDFPath:        r.report.PDFPath,
		PDFSize:        r.report.PDFSize,
		TranscriptPath: r.report.TranscriptPath,
		State:          string(r.report.State),
	}
	if c := r.report.Compression; c != nil && c.Path != "" && c.Path == r.report.PDFPath {
		entry.CompressedPath = c.Path
		entry.CompressedSize = c.Size
		entry.PDFSize = r.report.OriginalPDFSize
	}
	if r.report.Err != nil {
		entry.Error = r.report.Err.Error()
	}
	if _, err := r.o.deps.History.Record(ctx, entry); err != nil {
		r.logger.Warn("failed to record run history", logging.Error(err))
	}
}

func (r *run) writeMetrics() {
	m := r.o.deps.Metrics
	if m == nil {
		return
	}
	m.FinishRun(string(r.report.State), r.report.FinishedAt)
	if err := m.WriteTextfile(r.o.opts.MetricsTextfile); err != nil {
		r.logger.Warn("failed to write metrics textfile",
			logging.String("path", r.o.opts.MetricsTextfile),
			logging.Error(err),
		)
	}
}

func (r *run) notify(ctx context.Context) {
	notifier := r.o.deps.Notifier
	if notifier == nil {
		return
	}
	var err error
	switch r.report.State {
	case StateDone:
		err = notifier.NotifyRunCompleted(ctx, notifications.RunSummary{
			Title:     r.report.Session.Title,
			OutputDir: r.report.Session.OutputDir,
			Frames:    len(r.report.Frames),
			PDFSize:   r.report.PDFSize,
			Elapsed:   r.report.Elapsed(),
		})
	case StateFailed:
		err = notifier.NotifyRunFailed(ctx, r.report.Session.Title, string(r.report.FailedStage), r.report.Err)
	default:
		return
	}
	if err != nil {
		r.logger.Warn("failed to send notification", logging.Error(err))
	}
}
