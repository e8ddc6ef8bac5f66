package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
)

// Observer receives stage timings.
type Observer interface {
	ObserveStage(stage string, elapsed time.Duration, failed bool)
}

// Func is the body of a stage. The logger carries the stage field.
type Func func(ctx context.Context, logger *slog.Logger) error

// Options controls stage execution.
type Options struct {
	Logger    *slog.Logger
	Observer  Observer
	StageName string
}

// Run executes fn as a named stage, logging start, completion or failure and
// reporting the elapsed time. The error from fn is returned unchanged.
func Run(ctx context.Context, opts Options, fn Func) error {
	if fn == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	stageCtx := logging.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, logger)

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("stage_label", DeriveStageLabel(opts.StageName)),
	)

	started := time.Now()
	err := fn(stageCtx, stageLogger)
	elapsed := time.Since(started)
	failed := err != nil && pipeline.IsFatal(err) && !isCancellation(err)
	if opts.Observer != nil {
		opts.Observer.ObserveStage(opts.StageName, elapsed, failed)
	}

	switch {
	case err == nil:
		stageLogger.Info(
			"stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", elapsed),
		)
	case isCancellation(err):
		stageLogger.Info(
			"stage cancelled",
			logging.String(logging.FieldEventType, "stage_cancelled"),
			logging.Duration("elapsed", elapsed),
		)
	case pipeline.IsNotice(err):
		logging.WarnWithContext(stageLogger, "stage completed with notice", "stage_notice",
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, pipeline.Hint(err)),
		)
	case pipeline.IsRecoverable(err):
		stageLogger.Info(
			"stage needs new input",
			logging.String(logging.FieldEventType, "stage_retry"),
			logging.String("error_message", strings.TrimSpace(err.Error())),
		)
	default:
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.Duration("elapsed", elapsed),
			logging.String("error_message", strings.TrimSpace(err.Error())),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, pipeline.Hint(err)),
		)
	}
	return err
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, pipeline.ErrCancelled)
}

// DeriveStageLabel turns "building_pdf" or "building pdf" into "Building Pdf".
func DeriveStageLabel(stage string) string {
	if stage == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(stage, "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
