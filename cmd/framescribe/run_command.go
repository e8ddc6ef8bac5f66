package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Microck/FrameScribe/internal/compress"
	"github.com/Microck/FrameScribe/internal/config"
	"github.com/Microck/FrameScribe/internal/desktop"
	"github.com/Microck/FrameScribe/internal/downloader"
	"github.com/Microck/FrameScribe/internal/frames"
	"github.com/Microck/FrameScribe/internal/history"
	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/metrics"
	"github.com/Microck/FrameScribe/internal/notifications"
	"github.com/Microck/FrameScribe/internal/pdf"
	"github.com/Microck/FrameScribe/internal/pipeline"
	"github.com/Microck/FrameScribe/internal/preflight"
	"github.com/Microck/FrameScribe/internal/session"
	"github.com/Microck/FrameScribe/internal/subtitles"
	"github.com/Microck/FrameScribe/internal/timecode"
)

type runOptions struct {
	url            string
	interval       string
	yes            bool
	compress       string
	keepCompressed string
	noOpen         bool
	outputRoot     string
	skipPreflight  bool
}

func bindRunFlags(cmd *cobra.Command, opts *runOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.url, "url", "", "Video URL (skips the URL prompt)")
	flags.StringVar(&opts.interval, "interval", "", "Seconds between sampled frames, e.g. 2 or 0.5 (skips the interval prompt)")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Accept the frame estimate without asking")
	flags.StringVar(&opts.compress, "compress", "", "Compress an oversized PDF: ask, yes or no")
	flags.StringVar(&opts.keepCompressed, "keep-compressed", "", "Keep a compressed PDF that missed the target: ask, yes or no")
	flags.BoolVar(&opts.noOpen, "no-open", false, "Do not open the output folder when done")
	flags.StringVar(&opts.outputRoot, "output-root", "", "Directory that receives the per-video output folder")
	flags.BoolVar(&opts.skipPreflight, "skip-preflight", false, "Skip external tool and disk space checks")
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive FrameScribe session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, ctx, opts)
		},
	}
	bindRunFlags(cmd, &opts)
	return cmd
}

func runSession(cmd *cobra.Command, ctx *commandContext, opts runOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := applyRunOverrides(cfg, opts); err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !opts.skipPreflight {
		if failed := preflight.Failed(preflight.RunAll(signalCtx, cfg)); len(failed) > 0 {
			return fmt.Errorf("preflight failed: %s (run 'framescribe deps' for details, or pass --skip-preflight)", preflight.Summary(failed))
		}
	}

	out := cmd.OutOrStdout()
	progress := newProgressReporter(cmd.ErrOrStderr())
	deps, closeDeps, err := buildDependencies(signalCtx, cfg, logger, progress)
	if err != nil {
		return err
	}
	defer closeDeps()
	deps.Prompter = newTerminalPrompter(cmd.InOrStdin(), out, opts, cfg)

	orchestrator, err := session.New(session.OptionsFromConfig(cfg), deps)
	if err != nil {
		return err
	}
	report := orchestrator.Run(signalCtx)
	printReport(out, report)
	return reportError(report)
}

func applyRunOverrides(cfg *config.Config, opts runOptions) error {
	if root := strings.TrimSpace(opts.outputRoot); root != "" {
		expanded, err := config.ExpandPath(root)
		if err != nil {
			return fmt.Errorf("--output-root: %w", err)
		}
		cfg.Paths.OutputRoot = expanded
	}
	if opts.noOpen {
		cfg.Output.OpenFolder = false
	}
	for flag, value := range map[string]string{"--compress": opts.compress, "--keep-compressed": opts.keepCompressed} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if config.NormalizeAnswer(value) == config.AnswerAsk && !strings.EqualFold(strings.TrimSpace(value), config.AnswerAsk) {
			return fmt.Errorf("%s must be ask, yes or no, got %q", flag, value)
		}
	}
	if opts.compress != "" {
		cfg.PDF.Compress = config.NormalizeAnswer(opts.compress)
	}
	if opts.keepCompressed != "" {
		cfg.PDF.KeepCompressed = config.NormalizeAnswer(opts.keepCompressed)
	}
	return nil
}

// buildDependencies wires the production collaborators for cfg. The returned
// func releases the history database.
func buildDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress *progressReporter) (session.Dependencies, func(), error) {
	closeFn := func() {}

	var fetcher downloader.Fetcher
	if cfg.Downloader.Backend == config.BackendNative {
		fetcher = downloader.NewNative(&http.Client{Timeout: 30 * time.Minute}, logger)
	} else {
		ytdlp, err := downloader.NewYTDLP(cfg.Downloader.Binary,
			downloader.WithLogger(logger),
			downloader.WithFormat(cfg.Downloader.Format),
		)
		if err != nil {
			return session.Dependencies{}, closeFn, err
		}
		fetcher = ytdlp
	}

	sampler := frames.NewSampler(
		frames.NewToolDecoder(cfg.Tools.FFmpeg, cfg.Tools.FFprobe),
		frames.WithQuality(cfg.Frames.ImageQuality),
		frames.WithBurnIn(cfg.Frames.BurnInTimestamp),
		frames.WithLogger(logger),
	)
	assembler := pdf.NewAssembler(pdf.Layout{
		PageSize:    cfg.PDF.PageSize,
		Orientation: cfg.PDF.Orientation,
		MarginMM:    cfg.PDF.MarginMM,
		Title:       "FrameScribe",
	}, pdf.WithLogger(logger))

	deps := session.Dependencies{
		Fetcher:   fetcher,
		Sampler:   sampler,
		Assembler: assembler,
		Converter: subtitles.NewConverter(logger),
		Notifier:  notifications.NewService(cfg),
		Logger:    logger,
	}
	if progress != nil {
		deps.Progress = progress
	}
	if cfg.PDF.Compress != config.AnswerNo {
		opts := compress.Options{
			TargetBytes:    cfg.TargetPDFBytes(),
			InitialQuality: cfg.PDF.CompressedImageQuality,
			Floor:          cfg.PDF.QualityFloor,
			Step:           cfg.PDF.QualityStep,
		}
		if progress != nil {
			opts.OnAttempt = progress.attempt
		}
		deps.Compressor = compress.New(assembler, opts, logger)
	}
	if cfg.Output.OpenFolder {
		deps.Revealer = desktop.NewOpener(desktop.DefaultCommand(), nil)
	}
	if cfg.Metrics.TextfilePath != "" {
		deps.Metrics = metrics.New()
	}
	if cfg.History.Enabled {
		store, err := history.Open(ctx, cfg.Paths.HistoryDB)
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.String("path", cfg.Paths.HistoryDB),
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not appear in 'framescribe history'"),
			)
		} else {
			deps.History = store
			closeFn = func() { _ = store.Close() }
		}
	}
	return deps, closeFn, nil
}

func printReport(out io.Writer, report session.Report) {
	switch report.State {
	case session.StateDone:
		fmt.Fprintln(out, "\nDone.")
	case session.StateCancelled:
		fmt.Fprintln(out, "\nCancelled.")
		return
	case session.StateFailed:
		fmt.Fprintf(out, "\nFailed while %s.\n", stageLabel(report.FailedStage))
	}
	for _, notice := range report.Notices {
		fmt.Fprintf(out, "Note: %s\n", strings.TrimSpace(notice.Error()))
	}
	if report.State != session.StateDone {
		return
	}

	rows := [][]string{
		{"Output folder", report.Session.OutputDir},
		{"Frames", fmt.Sprintf("%d (every %s)", len(report.Frames), timecode.Caption(report.Session.Interval))},
		{"PDF", report.PDFPath},
		{"PDF size", humanize.IBytes(uint64(report.PDFSize))},
	}
	if c := report.Compression; c != nil && c.Improved {
		rows = append(rows, []string{"Compression", fmt.Sprintf("%s -> %s at quality %d, target met: %s",
			humanize.IBytes(uint64(c.OriginalSize)), humanize.IBytes(uint64(c.Size)), c.Quality, yesNo(c.TargetMet))})
	}
	transcript := report.TranscriptPath
	if transcript == "" {
		transcript = "none"
	}
	rows = append(rows, []string{"Transcript", transcript})
	rows = append(rows, []string{"Elapsed", report.Elapsed().Round(time.Second).String()})
	fmt.Fprintln(out, renderKeyValueTable(rows))
}

// reportError converts a report into the command's exit status.
func reportError(report session.Report) error {
	switch {
	case report.State == session.StateDone:
		return nil
	case report.State == session.StateCancelled && report.Err == nil:
		return nil
	case report.Err == nil:
		return fmt.Errorf("session ended in state %s", report.State)
	case errors.Is(report.Err, pipeline.ErrCancelled):
		return fmt.Errorf("interrupted: %w", report.Err)
	default:
		msg := fmt.Sprintf("%s failed: %v", stageLabel(report.FailedStage), report.Err)
		if hint := pipeline.Hint(report.Err); hint != "" {
			msg += "\nhint: " + hint
		}
		return errors.New(msg)
	}
}

func stageLabel(state session.State) string {
	return strings.ReplaceAll(string(state), "_", " ")
}
