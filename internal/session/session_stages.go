package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Microck/FrameScribe/internal/downloader"
	"github.com/Microck/FrameScribe/internal/frames"
	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
	"github.com/Microck/FrameScribe/internal/staging"
	"github.com/Microck/FrameScribe/internal/textutil"
)

const frameDirName = "frames"

func (r *run) awaitInput(ctx context.Context, logger *slog.Logger) error {
	var problem error
	for {
		raw, err := r.o.deps.Prompter.URL(ctx, problem)
		if err != nil {
			return promptError(StateAwaitingInput, err)
		}
		url, err := downloader.ValidateURL(raw)
		if err == nil {
			r.report.Session.URL = url
			break
		}
		logger.Info("url rejected", logging.String("input", raw), logging.Error(err))
		problem = err
	}
	return r.promptInterval(ctx, logger)
}

// promptInterval asks until a valid interval arrives. Invalid answers never
// reach the network.
func (r *run) promptInterval(ctx context.Context, logger *slog.Logger) error {
	var problem error
	for {
		raw, err := r.o.deps.Prompter.Interval(ctx, problem)
		if err != nil {
			return promptError(StateAwaitingInput, err)
		}
		interval, err := frames.ParseInterval(raw)
		if err == nil {
			r.report.Session.Interval = interval
			logger.Info("interval accepted", logging.Duration("interval", interval))
			return nil
		}
		if !pipeline.IsRecoverable(err) {
			return err
		}
		logger.Info("interval rejected", logging.String("input", raw), logging.Error(err))
		problem = err
	}
}

func (r *run) download(ctx context.Context, logger *slog.Logger) error {
	meta, err := r.o.deps.Fetcher.Probe(ctx, r.report.Session.URL)
	if err != nil {
		return err
	}
	title := textutil.SanitizeTitle(meta.Title)
	r.report.Session.Title = title

	ws, err := staging.Prepare(r.o.opts.OutputRoot, title, staging.Options{
		TempDirName: r.o.opts.TempDirName,
		Collision:   r.o.opts.Collision,
		Logger:      r.o.deps.Logger,
	})
	if err != nil {
		return err
	}
	r.ws = ws
	r.report.Session.OutputDir = ws.OutputDir
	r.report.Session.WorkDir = ws.WorkDir

	media, err := r.o.deps.Fetcher.Fetch(ctx, downloader.Request{
		URL:              r.report.Session.URL,
		Dir:              ws.WorkDir,
		SubtitleLanguage: r.o.opts.SubtitleLanguage,
	})
	if err != nil {
		return err
	}
	r.media = media
	logger.Info("download complete",
		logging.String("title", title),
		logging.String("video", media.VideoPath),
		logging.Bool("subtitles", media.SubtitlePath != ""),
	)
	return nil
}

func (r *run) extractTranscript(_ context.Context, logger *slog.Logger) error {
	if r.media.SubtitlePath == "" {
		return pipeline.Wrap(pipeline.ErrTranscriptUnavailable, string(StateExtractingTranscript), "", "video has no subtitle track", nil)
	}
	if r.o.deps.Converter == nil {
		return pipeline.Wrap(pipeline.ErrTranscriptUnavailable, string(StateExtractingTranscript), "", "no transcript converter configured", nil)
	}
	lang := strings.TrimSpace(r.media.SubtitleLanguage)
	if lang == "" {
		lang = r.o.opts.SubtitleLanguage
	}
	name := r.report.Session.Title + ".srt"
	if lang != "" {
		name = fmt.Sprintf("%s.%s.srt", r.report.Session.Title, textutil.SanitizeToken(lang))
	}
	result, err := r.o.deps.Converter.Convert(r.media.SubtitlePath, r.ws.Path(name))
	if err != nil {
		if pipeline.IsNotice(err) {
			return err
		}
		return pipeline.Wrap(pipeline.ErrTranscriptUnavailable, string(StateExtractingTranscript), "convert", "", err)
	}
	r.report.TranscriptPath = result.Path
	logger.Info("transcript written", logging.String("path", result.Path), logging.Int("entries", result.Entries))
	return nil
}

func (r *run) estimate(ctx context.Context, logger *slog.Logger) error {
	if r.info == nil {
		info, err := r.o.deps.Sampler.Probe(ctx, r.media.VideoPath)
		if err != nil {
			return err
		}
		r.info = &info
		r.report.Session.Duration = info.Duration
	}
	r.report.EstimatedFrames = frames.EstimateFrameCount(r.info.Duration, r.report.Session.Interval)
	logger.Info("frame estimate",
		logging.Duration("video_duration", r.info.Duration),
		logging.Duration("interval", r.report.Session.Interval),
		logging.Int("estimated_frames", r.report.EstimatedFrames),
	)
	return nil
}

func (r *run) confirm(ctx context.Context, logger *slog.Logger) (State, error) {
	decision, err := r.o.deps.Prompter.ConfirmEstimate(ctx, Estimate{
		Title:    r.report.Session.Title,
		Duration: r.report.Session.Duration,
		Interval: r.report.Session.Interval,
		Frames:   r.report.EstimatedFrames,
	})
	if err != nil {
		return StateCleaningUp, promptError(StateConfirmingInterval, err)
	}
	switch decision {
	case DecisionProceed:
		return StateSamplingFrames, nil
	case DecisionChange:
		if err := r.promptInterval(ctx, logger); err != nil {
			return StateCleaningUp, err
		}
		return StateEstimatingFrames, nil
	default:
		logger.Info("run cancelled at frame estimate")
		return StateCleaningUp, pipeline.Wrap(pipeline.ErrCancelled, string(StateConfirmingInterval), "", "declined frame estimate", nil)
	}
}

func (r *run) sample(ctx context.Context, _ *slog.Logger) error {
	req := frames.Request{
		VideoPath: r.media.VideoPath,
		OutputDir: r.ws.WorkPath(frameDirName),
		Interval:  r.report.Session.Interval,
		Info:      r.info,
	}
	if progress := r.o.deps.Progress; progress != nil {
		req.Progress = func(done, total int) { progress.Update(string(StateSamplingFrames), done, total) }
		defer progress.Finish(string(StateSamplingFrames))
	}
	records, err := r.o.deps.Sampler.Sample(ctx, req)
	if err != nil {
		return err
	}
	r.report.Frames = records
	r.o.deps.Metrics.AddFrames(len(records))
	return nil
}

func (r *run) buildPDF(ctx context.Context, logger *slog.Logger) (State, error) {
	dst := r.ws.Path(r.report.Session.Title + "_frames.pdf")
	result, err := r.o.deps.Assembler.Build(ctx, r.report.Frames, dst)
	if err != nil {
		return StateCleaningUp, err
	}
	r.report.PDFPath = result.Path
	r.report.PDFSize = result.Size
	r.report.OriginalPDFSize = result.Size
	r.o.deps.Metrics.SetPDFSize("original", result.Size)
	logger.Info("pdf written",
		logging.String("path", result.Path),
		logging.Int("pages", result.Pages),
		logging.String("size", humanize.IBytes(uint64(result.Size))),
	)

	if r.o.deps.Compressor == nil || result.Size <= r.o.opts.TargetBytes {
		return StateCleaningUp, nil
	}
	accept, err := r.o.deps.Prompter.Compress(ctx, result.Size, r.o.opts.TargetBytes)
	if err != nil {
		if ctx.Err() != nil {
			return StateCleaningUp, ctx.Err()
		}
		logger.Info("compression prompt unanswered, keeping original", logging.Error(err))
		return StateCleaningUp, nil
	}
	if !accept {
		logger.Info("compression skipped by user")
		return StateCleaningUp, nil
	}
	return StateCompressing, nil
}

func (r *run) compress(ctx context.Context, logger *slog.Logger) error {
	dst := r.ws.Path(r.report.Session.Title + "_frames_compressed.pdf")
	result, err := r.o.deps.Compressor.Compress(ctx, r.report.Frames, r.report.OriginalPDFSize, dst)
	r.o.deps.Metrics.AddCompressionAttempts(len(result.Attempts))
	if err != nil && !pipeline.IsNotice(err) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return pipeline.Wrap(pipeline.ErrCompressionIncomplete, string(StateCompressing), "", "compression failed, keeping original", err)
	}
	r.report.Compression = &result
	if !result.Improved || result.Path == "" {
		return pipeline.Wrap(pipeline.ErrCompressionIncomplete, string(StateCompressing), "",
			"compression did not reduce size, keeping original", nil)
	}

	keep := result.TargetMet
	if !keep {
		answer, perr := r.o.deps.Prompter.KeepCompressed(ctx, r.report.OriginalPDFSize, result.Size, r.o.opts.TargetBytes)
		if perr != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		keep = perr == nil && answer
	}
	if keep {
		r.replaceOriginal(logger, result.Path, result.Size)
	} else if rmErr := os.Remove(result.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		logger.Warn("failed to remove rejected compressed pdf", logging.String("path", result.Path), logging.Error(rmErr))
	}
	return err
}

func (r *run) replaceOriginal(logger *slog.Logger, path string, size int64) {
	if err := os.Remove(r.report.PDFPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "failed to remove uncompressed pdf", "pdf_remove_failed",
			logging.String("path", r.report.PDFPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "both pdf variants remain in the output folder"),
		)
	}
	r.report.PDFPath = path
	r.report.PDFSize = size
	r.o.deps.Metrics.SetPDFSize("compressed", size)
	logger.Info("compressed pdf kept",
		logging.String("path", path),
		logging.String("size", humanize.IBytes(uint64(size))),
	)
}

func (r *run) cleanup(logger *slog.Logger) error {
	if r.ws == nil {
		return nil
	}
	if r.outcome == StateDone {
		return r.ws.Cleanup()
	}
	err := r.ws.Abandon()
	if _, statErr := os.Stat(r.ws.OutputDir); errors.Is(statErr, os.ErrNotExist) {
		logger.Info("output folder removed", logging.String("output_dir", r.ws.OutputDir))
		r.report.Session.OutputDir = ""
	}
	return err
}
