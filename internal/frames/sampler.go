package frames

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
	"github.com/Microck/FrameScribe/internal/timecode"
)

const (
	stageName      = "extracting frames"
	defaultQuality = 95
	filePattern    = "frame_%06d.jpg"
)

// Record is one frame written to disk.
type Record struct {
	Index     int
	Timestamp time.Duration
	Path      string
}

// Request describes one sampling run.
type Request struct {
	VideoPath string
	OutputDir string
	Interval  time.Duration
	// Info skips probing when already known.
	Info *VideoInfo
	// Progress is called after every target with the number processed so far.
	Progress func(done, total int)
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithQuality sets the JPEG quality of written frames.
func WithQuality(quality int) Option {
	return func(s *Sampler) {
		if quality > 0 && quality <= 100 {
			s.quality = quality
		}
	}
}

// WithBurnIn draws the frame timestamp into the bottom-left corner.
func WithBurnIn(enabled bool) Option {
	return func(s *Sampler) { s.burnIn = enabled }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) { s.logger = logging.NewComponentLogger(logger, "frames") }
}

// Sampler extracts frames through a Decoder.
type Sampler struct {
	decoder Decoder
	quality int
	burnIn  bool
	logger  *slog.Logger
}

// NewSampler constructs a sampler.
func NewSampler(decoder Decoder, opts ...Option) *Sampler {
	s := &Sampler{
		decoder: decoder,
		quality: defaultQuality,
		logger:  logging.NewComponentLogger(nil, "frames"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Probe returns stream metadata for path.
func (s *Sampler) Probe(ctx context.Context, path string) (VideoInfo, error) {
	info, err := s.decoder.Probe(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return VideoInfo{}, ctx.Err()
		}
		return VideoInfo{}, pipeline.Wrap(pipeline.ErrNoFramesExtracted, stageName, "probe", filepath.Base(path), err)
	}
	if info.Duration <= 0 {
		return VideoInfo{}, pipeline.Wrap(pipeline.ErrNoFramesExtracted, stageName, "probe", "video reports no duration", nil)
	}
	return info, nil
}

// Sample decodes one frame per interval and writes them to req.OutputDir.
func (s *Sampler) Sample(ctx context.Context, req Request) ([]Record, error) {
	interval, err := ValidateInterval(req.Interval)
	if err != nil {
		return nil, err
	}
	var info VideoInfo
	if req.Info != nil {
		info = *req.Info
	} else if info, err = s.Probe(ctx, req.VideoPath); err != nil {
		return nil, err
	}

	targets := Targets(info.Duration, interval)
	selected := targets
	if len(info.FrameTimes) > 0 {
		selected = SelectTimestamps(targets, info.FrameTimes, info.Duration)
	}
	if len(selected) == 0 {
		return nil, pipeline.Wrap(pipeline.ErrNoFramesExtracted, stageName, "", "no decodable timestamps", nil)
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrNoFramesExtracted, stageName, "create frame directory", "", err)
	}

	s.logger.Info("frame extraction started",
		logging.Int("frame_targets", len(selected)),
		logging.Duration("interval", interval),
		logging.Duration("video_duration", info.Duration),
	)

	sampler := logging.NewProgressSampler(25)
	records := make([]Record, 0, len(selected))
	skipped := 0
	for i, at := range selected {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		record, err := s.writeFrame(ctx, req.VideoPath, req.OutputDir, len(records)+1, at)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			skipped++
			logging.WarnWithContext(s.logger, "frame skipped", "frame_skipped",
				logging.String("timestamp", timecode.Caption(at)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "page omitted from pdf"),
				logging.String(logging.FieldErrorHint, "check the video file with ffprobe"),
			)
		} else {
			records = append(records, record)
		}
		if req.Progress != nil {
			req.Progress(i+1, len(selected))
		}
		percent := float64(i+1) / float64(len(selected)) * 100
		if sampler.ShouldLog(percent, stageName) {
			s.logger.Debug("frame extraction progress", logging.Float64("percent", percent))
		}
	}

	if len(records) == 0 {
		return nil, pipeline.Wrap(pipeline.ErrNoFramesExtracted, stageName, "", fmt.Sprintf("all %d frames failed to decode", len(selected)), nil)
	}
	s.logger.Info("frame extraction completed",
		logging.Int("frame_count", len(records)),
		logging.Int("skipped", skipped),
	)
	return records, nil
}

func (s *Sampler) writeFrame(ctx context.Context, videoPath, dir string, index int, at time.Duration) (Record, error) {
	img, err := s.decoder.DecodeAt(ctx, videoPath, at)
	if err != nil {
		return Record{}, err
	}
	if img == nil || img.Bounds().Empty() {
		return Record{}, fmt.Errorf("empty frame at %s", timecode.Caption(at))
	}
	if s.burnIn {
		img = BurnIn(img, timecode.Caption(at))
	}
	path := filepath.Join(dir, fmt.Sprintf(filePattern, index))
	if err := imaging.Save(img, path, imaging.JPEGQuality(s.quality)); err != nil {
		return Record{}, fmt.Errorf("save frame: %w", err)
	}
	return Record{Index: index, Timestamp: at, Path: path}, nil
}

// BurnIn returns a copy of img with label drawn on a dark box in the
// bottom-left corner.
func BurnIn(img image.Image, label string) image.Image {
	dst := imaging.Clone(img)
	face := basicfont.Face7x13
	const pad = 4
	bounds := dst.Bounds()
	width := font.MeasureString(face, label).Ceil() + 2*pad
	height := face.Metrics().Height.Ceil() + 2*pad
	box := image.Rect(bounds.Min.X, bounds.Max.Y-height, bounds.Min.X+width, bounds.Max.Y).Intersect(bounds)
	draw.Draw(dst, box, image.NewUniform(color.NRGBA{A: 180}), image.Point{}, draw.Over)

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(box.Min.X+pad, box.Max.Y-pad-face.Metrics().Descent.Ceil()),
	}
	drawer.DrawString(label)
	return dst
}
