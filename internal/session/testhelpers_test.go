package session_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/Microck/FrameScribe/internal/downloader"
	"github.com/Microck/FrameScribe/internal/frames"
	"github.com/Microck/FrameScribe/internal/history"
	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/notifications"
	"github.com/Microck/FrameScribe/internal/pdf"
	"github.com/Microck/FrameScribe/internal/pipeline"
	"github.com/Microck/FrameScribe/internal/session"
	"github.com/Microck/FrameScribe/internal/subtitles"
)

const sampleSRT = `1
00:00:00,500 --> 00:00:02,000
Welcome back.

2
00:00:02,500 --> 00:00:05,000
Today we look at slides.
`

type stubFetcher struct {
	title     string
	subtitles bool
	fetchErr  error
	probes    int
	fetches   int
}

func (f *stubFetcher) Probe(context.Context, string) (downloader.Metadata, error) {
	f.probes++
	return downloader.Metadata{ID: "abc123", Title: f.title, Duration: 10 * time.Second}, nil
}

func (f *stubFetcher) Fetch(_ context.Context, req downloader.Request) (downloader.Media, error) {
	f.fetches++
	if f.fetchErr != nil {
		return downloader.Media{}, f.fetchErr
	}
	media := downloader.Media{VideoPath: filepath.Join(req.Dir, "abc123.mp4")}
	if err := os.WriteFile(media.VideoPath, []byte("not really a video"), 0o644); err != nil {
		return downloader.Media{}, err
	}
	if f.subtitles {
		media.SubtitlePath = filepath.Join(req.Dir, "abc123.en.srt")
		media.SubtitleLanguage = "en"
		if err := os.WriteFile(media.SubtitlePath, []byte(sampleSRT), 0o644); err != nil {
			return downloader.Media{}, err
		}
	}
	return media, nil
}

type stubDecoder struct {
	duration time.Duration
}

func (d stubDecoder) Probe(context.Context, string) (frames.VideoInfo, error) {
	return frames.VideoInfo{Duration: d.duration, FrameRate: 25, Width: 96, Height: 54}, nil
}

func (d stubDecoder) DecodeAt(_ context.Context, _ string, at time.Duration) (image.Image, error) {
	shade := uint8(at / time.Second * 20)
	return imaging.New(96, 54, color.NRGBA{R: shade, G: 90, B: 160, A: 255}), nil
}

// scriptedPrompter answers from fixed lists and returns io.EOF when a list
// runs out.
type scriptedPrompter struct {
	urls      []string
	intervals []string
	decisions []session.Decision
	compress  bool
	keep      bool

	urlProblems      []error
	intervalProblems []error
	estimates        []session.Estimate
	onInterval       func(problem error)
}

func (p *scriptedPrompter) URL(_ context.Context, problem error) (string, error) {
	p.urlProblems = append(p.urlProblems, problem)
	if len(p.urls) == 0 {
		return "", io.EOF
	}
	next := p.urls[0]
	p.urls = p.urls[1:]
	return next, nil
}

func (p *scriptedPrompter) Interval(_ context.Context, problem error) (string, error) {
	p.intervalProblems = append(p.intervalProblems, problem)
	if p.onInterval != nil {
		p.onInterval(problem)
	}
	if len(p.intervals) == 0 {
		return "", io.EOF
	}
	next := p.intervals[0]
	p.intervals = p.intervals[1:]
	return next, nil
}

func (p *scriptedPrompter) ConfirmEstimate(_ context.Context, estimate session.Estimate) (session.Decision, error) {
	p.estimates = append(p.estimates, estimate)
	if len(p.decisions) == 0 {
		return session.DecisionProceed, nil
	}
	next := p.decisions[0]
	p.decisions = p.decisions[1:]
	return next, nil
}

func (p *scriptedPrompter) Compress(context.Context, int64, int64) (bool, error) {
	return p.compress, nil
}

func (p *scriptedPrompter) KeepCompressed(context.Context, int64, int64, int64) (bool, error) {
	return p.keep, nil
}

type recordingRevealer struct {
	dirs []string
	err  error
}

func (r *recordingRevealer) Reveal(_ context.Context, dir string) error {
	r.dirs = append(r.dirs, dir)
	return r.err
}

type memoryHistory struct {
	mu   sync.Mutex
	runs []history.Run
}

func (m *memoryHistory) Record(_ context.Context, run history.Run) (history.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return run, nil
}

type recordingNotifier struct {
	completed []notifications.RunSummary
	failed    []string
}

func (n *recordingNotifier) NotifyRunCompleted(_ context.Context, summary notifications.RunSummary) error {
	n.completed = append(n.completed, summary)
	return nil
}

func (n *recordingNotifier) NotifyRunFailed(_ context.Context, _ string, stage string, _ error) error {
	n.failed = append(n.failed, stage)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error {
	return errors.New("not used")
}

type harness struct {
	root     string
	fetcher  *stubFetcher
	prompter *scriptedPrompter
	revealer *recordingRevealer
	history  *memoryHistory
	notifier *recordingNotifier
	opts     session.Options
	deps     session.Dependencies
}

func newHarness(t *testing.T, prompter *scriptedPrompter, fetcher *stubFetcher) *harness {
	t.Helper()
	h := &harness{
		root:     t.TempDir(),
		fetcher:  fetcher,
		prompter: prompter,
		revealer: &recordingRevealer{},
		history:  &memoryHistory{},
		notifier: &recordingNotifier{},
	}
	logger := logging.NewNop()
	h.opts = session.Options{
		OutputRoot:       h.root,
		TempDirName:      "temp_frames",
		Collision:        "suffix",
		SubtitleLanguage: "en",
		TargetBytes:      8 * 1024 * 1024,
		OpenFolder:       true,
	}
	h.deps = session.Dependencies{
		Fetcher:   fetcher,
		Sampler:   frames.NewSampler(stubDecoder{duration: 10 * time.Second}, frames.WithLogger(logger)),
		Assembler: pdf.NewAssembler(pdf.Layout{PageSize: "A4", Orientation: "L", MarginMM: 10}, pdf.WithLogger(logger)),
		Converter: subtitles.NewConverter(logger),
		Prompter:  prompter,
		Revealer:  h.revealer,
		History:   h.history,
		Notifier:  h.notifier,
		Logger:    logger,
	}
	return h
}

func (h *harness) run(t *testing.T) session.Report {
	t.Helper()
	orchestrator, err := session.New(h.opts, h.deps)
	if err != nil {
		t.Fatalf("session.New returned error: %v", err)
	}
	return orchestrator.Run(context.Background())
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

type failingDecoder struct {
	stubDecoder
}

func (failingDecoder) DecodeAt(context.Context, string, time.Duration) (image.Image, error) {
	return nil, errors.New("corrupt packet")
}

// failingAssembler writes a partial file beside the frames and then fails,
// like an assembler that dies halfway through its temp output.
type failingAssembler struct{}

func (failingAssembler) Build(_ context.Context, records []frames.Record, _ string) (pdf.Result, error) {
	if len(records) > 0 {
		partial := filepath.Join(filepath.Dir(records[0].Path), "partial.pdf.tmp")
		_ = os.WriteFile(partial, []byte("%PDF-1.3\n"), 0o644)
	}
	return pdf.Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, "building_pdf", "write", "disk full", nil)
}
