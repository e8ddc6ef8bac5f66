package subtitles

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"

	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
)

const stageName = "extracting transcript"

// Result describes a written transcript.
type Result struct {
	Path    string
	Entries int
}

// Converter writes downloaded captions as an SRT transcript.
type Converter struct {
	logger *slog.Logger
}

// NewConverter constructs a converter.
func NewConverter(logger *slog.Logger) *Converter {
	return &Converter{logger: logging.NewComponentLogger(logger, "subtitles")}
}

// Load parses a caption file, picking the reader by extension.
func Load(path string) ([]Entry, error) {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open captions %s: %w", filepath.Base(path), err)
	}
	return fromAstisub(subs), nil
}

// Convert parses src and writes dst. An empty src means no subtitles were
// available and yields ErrTranscriptUnavailable. An existing dst is never
// overwritten.
func (c *Converter) Convert(src, dst string) (Result, error) {
	if strings.TrimSpace(src) == "" {
		return Result{}, pipeline.Wrap(pipeline.ErrTranscriptUnavailable, stageName, "", "no subtitle track downloaded", nil)
	}
	if _, err := os.Stat(dst); err == nil {
		return Result{}, pipeline.Wrap(pipeline.ErrTranscriptUnavailable, stageName, "write", "transcript already exists at "+dst, nil)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Result{}, pipeline.Wrap(pipeline.ErrTranscriptUnavailable, stageName, "write", "", err)
	}

	entries, err := Load(src)
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrTranscriptUnavailable, stageName, "parse", "", err)
	}
	if len(entries) == 0 {
		return Result{}, pipeline.Wrap(pipeline.ErrTranscriptUnavailable, stageName, "parse", "subtitle file has no cues", nil)
	}

	if err := writeAtomic(dst, entries); err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrTranscriptUnavailable, stageName, "write", "", err)
	}
	c.logger.Info("transcript written",
		logging.String("transcript_file", dst),
		logging.Int("cue_count", len(entries)),
	)
	return Result{Path: dst, Entries: len(entries)}, nil
}

func writeAtomic(dst string, entries []Entry) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".transcript-*.srt")
	if err != nil {
		return fmt.Errorf("create temp transcript: %w", err)
	}
	tmpPath := tmp.Name()
	if err := WriteSRT(tmp, entries); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close transcript: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod transcript: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename transcript: %w", err)
	}
	return nil
}
