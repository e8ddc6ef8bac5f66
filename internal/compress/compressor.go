package compress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"

	"github.com/Microck/FrameScribe/internal/frames"
	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pdf"
	"github.com/Microck/FrameScribe/internal/pipeline"
)

const stageName = "compressing"

// Builder renders frame records into a document.
type Builder interface {
	Build(ctx context.Context, records []frames.Record, dst string) (pdf.Result, error)
}

// Options bound the quality ladder.
type Options struct {
	TargetBytes    int64
	InitialQuality int
	Floor          int
	Step           int
	// WorkDir holds re-encoded frames and candidate documents. When empty a
	// scratch directory is created beside the source frames for each call.
	WorkDir string
	// OnAttempt is called before each attempt.
	OnAttempt func(attempt, maxAttempts, quality int)
}

// Attempt records one rung of the ladder.
type Attempt struct {
	Quality int
	Size    int64
}

// Result summarizes a compression run.
type Result struct {
	// Path is empty unless a candidate smaller than the original was kept.
	Path         string
	Size         int64
	OriginalSize int64
	Quality      int
	TargetMet    bool
	Improved     bool
	Attempts     []Attempt
}

// Compressor runs the quality ladder.
type Compressor struct {
	builder Builder
	opts    Options
	logger  *slog.Logger
}

// New constructs a compressor.
func New(builder Builder, opts Options, logger *slog.Logger) *Compressor {
	if opts.Step <= 0 {
		opts.Step = 10
	}
	if opts.Floor <= 0 {
		opts.Floor = 1
	}
	if opts.InitialQuality > 100 {
		opts.InitialQuality = 100
	}
	return &Compressor{builder: builder, opts: opts, logger: logging.NewComponentLogger(logger, "compress")}
}

// MaxAttempts returns how many rungs the ladder has.
func (c *Compressor) MaxAttempts() int {
	if c.opts.InitialQuality < c.opts.Floor {
		return 0
	}
	return (c.opts.InitialQuality-c.opts.Floor)/c.opts.Step + 1
}

// Compress re-encodes records at decreasing quality until a rebuilt document
// fits the target or the floor is reached. The smallest candidate smaller than
// originalSize is moved to dst. When that candidate is still over the target
// the result is returned together with an ErrCompressionIncomplete notice.
func (c *Compressor) Compress(ctx context.Context, records []frames.Record, originalSize int64, dst string) (Result, error) {
	if len(records) == 0 {
		return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "", "no frames to compress", nil)
	}
	workDir := c.opts.WorkDir
	if workDir == "" {
		scratch, err := os.MkdirTemp(filepath.Dir(records[0].Path), "compress-")
		if err != nil {
			return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "create scratch directory", "", err)
		}
		defer os.RemoveAll(scratch)
		workDir = scratch
	}

	result := Result{OriginalSize: originalSize, Size: originalSize}
	bestPath := ""
	discard := func(path string) {
		if path != "" {
			_ = os.Remove(path)
		}
	}
	defer func() {
		if result.Path == "" {
			discard(bestPath)
		}
	}()

	maxAttempts := c.MaxAttempts()
	for attempt, quality := 1, c.opts.InitialQuality; quality >= c.opts.Floor; attempt, quality = attempt+1, quality-c.opts.Step {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if c.opts.OnAttempt != nil {
			c.opts.OnAttempt(attempt, maxAttempts, quality)
		}
		candidate, size, err := c.attempt(ctx, workDir, records, quality)
		if err != nil {
			return Result{}, err
		}
		result.Attempts = append(result.Attempts, Attempt{Quality: quality, Size: size})
		c.logger.Info("compression attempt",
			logging.Int("quality", quality),
			logging.String("size", humanize.IBytes(uint64(size))),
			logging.String("target", humanize.IBytes(uint64(c.opts.TargetBytes))),
		)

		if size < result.Size {
			discard(bestPath)
			bestPath = candidate
			result.Size = size
			result.Quality = quality
			result.Improved = true
		} else {
			discard(candidate)
		}
		if result.Size <= c.opts.TargetBytes {
			break
		}
	}
	result.TargetMet = result.Size <= c.opts.TargetBytes

	if !result.Improved {
		c.logger.Info("compression did not reduce size", logging.Int("attempts", len(result.Attempts)))
		return result, nil
	}
	if err := os.Rename(bestPath, dst); err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "rename", "", err)
	}
	result.Path = dst

	if !result.TargetMet {
		return result, pipeline.Wrap(pipeline.ErrCompressionIncomplete, stageName, "",
			fmt.Sprintf("smallest result is %s, target %s", humanize.IBytes(uint64(result.Size)), humanize.IBytes(uint64(c.opts.TargetBytes))), nil)
	}
	return result, nil
}

func (c *Compressor) attempt(ctx context.Context, workDir string, records []frames.Record, quality int) (string, int64, error) {
	frameDir := filepath.Join(workDir, fmt.Sprintf("compressed_q%03d", quality))
	defer os.RemoveAll(frameDir)

	encoded, err := Reencode(ctx, records, frameDir, quality)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", 0, err
		}
		return "", 0, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "re-encode", fmt.Sprintf("quality %d", quality), err)
	}
	candidate := filepath.Join(workDir, fmt.Sprintf("candidate_q%03d.pdf", quality))
	built, err := c.builder.Build(ctx, encoded, candidate)
	if err != nil {
		return "", 0, err
	}
	return built.Path, built.Size, nil
}

// Reencode writes every record as a JPEG of the given quality into dir and
// returns records pointing at the new files. Timestamps and indexes are kept.
func Reencode(ctx context.Context, records []frames.Record, dir string, quality int) ([]frames.Record, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	out := make([]frames.Record, 0, len(records))
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := imaging.Open(record.Path)
		if err != nil {
			return nil, err
		}
		base := filepath.Base(record.Path)
		path := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".jpg")
		if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
			return nil, err
		}
		record.Path = path
		out = append(out, record)
	}
	return out, nil
}
