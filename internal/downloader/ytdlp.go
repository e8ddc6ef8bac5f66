package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
)

const (
	videoStem    = "video"
	subtitleStem = "subs"
	stderrTail   = 5
)

// Option configures the yt-dlp client.
type Option func(*YTDLP)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *YTDLP) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger for streamed tool output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *YTDLP) {
		c.logger = logging.NewComponentLogger(logger, "yt-dlp")
	}
}

// WithFormat overrides the yt-dlp format selector.
func WithFormat(format string) Option {
	return func(c *YTDLP) {
		if strings.TrimSpace(format) != "" {
			c.format = strings.TrimSpace(format)
		}
	}
}

// YTDLP wraps yt-dlp CLI interactions.
type YTDLP struct {
	binary string
	format string
	exec   Executor
	logger *slog.Logger
}

// NewYTDLP constructs a yt-dlp client.
func NewYTDLP(binary string, opts ...Option) (*YTDLP, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &YTDLP{
		binary: binary,
		format: "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/bv*+ba/b",
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type probeDocument struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Extractor string  `json:"extractor"`
	Type      string  `json:"_type"`
}

// Probe fetches title and duration without downloading.
func (c *YTDLP) Probe(ctx context.Context, rawURL string) (Metadata, error) {
	var out strings.Builder
	tail := newLineTail(stderrTail)
	args := []string{"--dump-single-json", "--no-playlist", "--skip-download", "--no-warnings", "--", rawURL}
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		out.WriteString(line)
		out.WriteByte('\n')
	}, tail.add)
	if err != nil {
		return Metadata{}, c.wrap("probe", tail, err)
	}

	var doc probeDocument
	if err := json.Unmarshal([]byte(out.String()), &doc); err != nil {
		return Metadata{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "probe", "decode yt-dlp metadata", err)
	}
	if doc.Type == "playlist" {
		return Metadata{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "probe", "url points to a playlist, not a single video", nil)
	}
	if math.IsNaN(doc.Duration) || doc.Duration < 0 {
		doc.Duration = 0
	}
	return Metadata{
		ID:        doc.ID,
		Title:     strings.TrimSpace(doc.Title),
		Duration:  time.Duration(doc.Duration * float64(time.Second)),
		Extractor: doc.Extractor,
	}, nil
}

// Fetch downloads the merged video, then separately requests subtitles.
func (c *YTDLP) Fetch(ctx context.Context, req Request) (Media, error) {
	if strings.TrimSpace(req.Dir) == "" {
		return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "fetch", "destination directory required", nil)
	}
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "fetch", "create destination", err)
	}

	tail := newLineTail(stderrTail)
	videoArgs := []string{
		"--no-playlist",
		"--newline",
		"--no-part",
		"-f", c.format,
		"--merge-output-format", "mp4",
		"-o", filepath.Join(req.Dir, videoStem+".%(ext)s"),
		"--", req.URL,
	}
	if err := c.exec.Run(ctx, c.binary, videoArgs, c.debugLine, tail.add); err != nil {
		return Media{}, c.wrap("video", tail, err)
	}
	videoPath, err := findVideo(req.Dir, videoStem)
	if err != nil {
		return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "video", "", err)
	}

	media := Media{VideoPath: videoPath}
	lang := strings.TrimSpace(req.SubtitleLanguage)
	if lang == "" {
		lang = "en"
	}
	subArgs := []string{
		"--no-playlist",
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", lang + "," + lang + "-.*",
		"--sub-format", "srt/vtt/best",
		"--convert-subs", "srt",
		"-o", filepath.Join(req.Dir, subtitleStem+".%(ext)s"),
		"--", req.URL,
	}
	subTail := newLineTail(stderrTail)
	if err := c.exec.Run(ctx, c.binary, subArgs, c.debugLine, subTail.add); err != nil {
		if ctx.Err() != nil {
			return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "subtitles", "", ctx.Err())
		}
		logging.WarnWithContext(c.logger, "subtitle download failed", "subtitle_download_failed",
			logging.Error(err),
			logging.String("stderr", subTail.String()),
			logging.String(logging.FieldImpact, "transcript will be omitted"),
		)
		return media, nil
	}
	media.SubtitlePath, media.SubtitleLanguage = findSubtitle(req.Dir, subtitleStem, lang)
	return media, nil
}

func (c *YTDLP) debugLine(line string) {
	c.logger.Debug("yt-dlp output", logging.String("line", line))
}

func (c *YTDLP) wrap(operation string, tail *lineTail, err error) error {
	return pipeline.Wrap(pipeline.ErrDownload, stageName, "yt-dlp "+operation, tail.String(), err)
}

// lineTail keeps the last n stderr lines for error messages.
type lineTail struct {
	mu    sync.Mutex
	limit int
	lines []string
}

func newLineTail(limit int) *lineTail {
	return &lineTail{limit: limit}
}

func (t *lineTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, " | ")
}

var _ Fetcher = (*YTDLP)(nil)
