package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Microck/FrameScribe/internal/downloader"
	"github.com/Microck/FrameScribe/internal/frames"
	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
	"github.com/Microck/FrameScribe/internal/stageexec"
	"github.com/Microck/FrameScribe/internal/staging"
)

// Orchestrator runs sessions with a fixed set of collaborators.
type Orchestrator struct {
	opts   Options
	deps   Dependencies
	logger *slog.Logger
}

// New validates the required collaborators and returns an orchestrator.
func New(opts Options, deps Dependencies) (*Orchestrator, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("session: fetcher is required")
	case deps.Sampler == nil:
		return nil, errors.New("session: frame sampler is required")
	case deps.Assembler == nil:
		return nil, errors.New("session: pdf assembler is required")
	case deps.Prompter == nil:
		return nil, errors.New("session: prompter is required")
	}
	if opts.OutputRoot == "" {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "", "session", "output root not set", nil)
	}
	return &Orchestrator{
		opts:   opts,
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "session"),
	}, nil
}

// run carries the mutable state of one Run call.
type run struct {
	o       *Orchestrator
	report  Report
	logger  *slog.Logger
	ws      *staging.Workspace
	media   downloader.Media
	info    *frames.VideoInfo
	outcome State
}

// Run executes one session to a terminal state and reports what happened.
func (o *Orchestrator) Run(ctx context.Context) Report {
	id := uuid.NewString()
	ctx = pipeline.WithSessionID(ctx, id)
	r := &run{
		o:       o,
		logger:  logging.WithContext(ctx, o.logger),
		outcome: StateDone,
		report: Report{
			Session:   Session{ID: id},
			StartedAt: time.Now(),
		},
	}

	lock, err := staging.AcquireLock(o.opts.OutputRoot)
	if err != nil {
		if errors.Is(err, staging.ErrLocked) {
			err = pipeline.Wrap(pipeline.ErrConfiguration, string(StateAwaitingInput), "lock",
				fmt.Sprintf("another FrameScribe session is using %s", o.opts.OutputRoot), err)
		}
		r.report.FailedStage = StateAwaitingInput
		r.report.Err = err
		r.enter(StateFailed)
		r.finish(ctx)
		return r.report
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("failed to release session lock", logging.String("lock", lock.Path()), logging.Error(err))
		}
	}()

	r.logger.Info("session started", logging.String("output_root", o.opts.OutputRoot))
	state := StateAwaitingInput
	for !state.Terminal() {
		r.enter(state)
		state = r.advance(ctx, state)
	}
	r.enter(state)
	r.finish(ctx)
	return r.report
}

func (r *run) enter(state State) {
	r.report.Transitions = append(r.report.Transitions, state)
	r.report.State = state
}

// advance executes state and returns the next one. Notices are recorded and
// the run continues; fatal errors route through CleaningUp to Failed.
func (r *run) advance(ctx context.Context, state State) State {
	var next State
	err := r.execute(ctx, state, func(ctx context.Context, logger *slog.Logger) error {
		var stepErr error
		next, stepErr = r.step(ctx, logger, state)
		return stepErr
	})
	if err == nil {
		return next
	}
	if pipeline.IsNotice(err) {
		r.report.Notices = append(r.report.Notices, err)
		return next
	}
	if state == StateCleaningUp {
		// Cleanup never fails the run.
		r.report.Notices = append(r.report.Notices, err)
		return r.outcome
	}

	switch {
	case errors.Is(err, pipeline.ErrCancelled):
		r.outcome = StateCancelled
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		r.outcome = StateCancelled
		r.report.Err = pipeline.Wrap(pipeline.ErrCancelled, string(state), "", "interrupted", err)
	default:
		r.outcome = StateFailed
		r.report.FailedStage = state
		r.report.Err = err
	}
	return StateCleaningUp
}

func (r *run) execute(ctx context.Context, state State, fn stageexec.Func) error {
	opts := stageexec.Options{Logger: r.logger, StageName: string(state)}
	if r.o.deps.Metrics != nil {
		opts.Observer = r.o.deps.Metrics
	}
	return stageexec.Run(ctx, opts, fn)
}

func (r *run) step(ctx context.Context, logger *slog.Logger, state State) (State, error) {
	switch state {
	case StateAwaitingInput:
		return StateDownloading, r.awaitInput(ctx, logger)
	case StateDownloading:
		return StateExtractingTranscript, r.download(ctx, logger)
	case StateExtractingTranscript:
		return StateEstimatingFrames, r.extractTranscript(ctx, logger)
	case StateEstimatingFrames:
		return StateConfirmingInterval, r.estimate(ctx, logger)
	case StateConfirmingInterval:
		return r.confirm(ctx, logger)
	case StateSamplingFrames:
		return StateBuildingPDF, r.sample(ctx, logger)
	case StateBuildingPDF:
		return r.buildPDF(ctx, logger)
	case StateCompressing:
		return StateCleaningUp, r.compress(ctx, logger)
	case StateCleaningUp:
		return r.outcome, r.cleanup(logger)
	default:
		return StateFailed, fmt.Errorf("session: no handler for state %q", state)
	}
}

// promptError maps end-of-input onto a user cancellation.
func promptError(stage State, err error) error {
	if errors.Is(err, io.EOF) {
		return pipeline.Wrap(pipeline.ErrCancelled, string(stage), "prompt", "input closed", err)
	}
	return err
}
