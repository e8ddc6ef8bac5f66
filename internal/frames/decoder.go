package frames

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/Microck/FrameScribe/internal/media/ffmpeg"
	"github.com/Microck/FrameScribe/internal/media/ffprobe"
)

// VideoInfo summarizes the primary video stream.
type VideoInfo struct {
	Duration  time.Duration
	FrameRate float64
	Width     int
	Height    int
	// FrameTimes holds sorted presentation timestamps relative to the start
	// of the stream. Empty when the container does not expose them.
	FrameTimes []time.Duration
}

// Decoder reads stream metadata and decodes single frames.
type Decoder interface {
	Probe(ctx context.Context, path string) (VideoInfo, error)
	DecodeAt(ctx context.Context, path string, at time.Duration) (image.Image, error)
}

// ToolDecoder implements Decoder with the ffprobe and ffmpeg binaries.
type ToolDecoder struct {
	FFmpeg  string
	FFprobe string
}

// NewToolDecoder constructs a decoder for the given binaries.
func NewToolDecoder(ffmpegBinary, ffprobeBinary string) *ToolDecoder {
	return &ToolDecoder{FFmpeg: ffmpegBinary, FFprobe: ffprobeBinary}
}

// Probe inspects the container and collects packet timestamps. When packet
// timestamps are unavailable they are synthesized from the frame rate.
func (d *ToolDecoder) Probe(ctx context.Context, path string) (VideoInfo, error) {
	result, err := ffprobe.Inspect(ctx, d.FFprobe, path)
	if err != nil {
		return VideoInfo{}, err
	}
	video, ok := result.PrimaryVideo()
	if !ok {
		return VideoInfo{}, errors.New("no video stream")
	}
	info := VideoInfo{
		Duration:  secondsToDuration(result.DurationSeconds()),
		FrameRate: video.FrameRate(),
		Width:     video.Width,
		Height:    video.Height,
	}

	packets, err := ffprobe.PacketTimes(ctx, d.FFprobe, path)
	if err != nil {
		if ctx.Err() != nil {
			return VideoInfo{}, ctx.Err()
		}
		packets = nil
	}
	info.FrameTimes = relativeTimes(packets, result.StartTimeSeconds())
	if len(info.FrameTimes) == 0 {
		info.FrameTimes = synthesizeTimes(info.Duration, info.FrameRate)
	}
	return info, nil
}

// DecodeAt decodes the frame presented at or just after at.
func (d *ToolDecoder) DecodeAt(ctx context.Context, path string, at time.Duration) (image.Image, error) {
	img, err := ffmpeg.ExtractFrame(ctx, d.FFmpeg, path, at)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func relativeTimes(packets []float64, start float64) []time.Duration {
	if len(packets) == 0 {
		return nil
	}
	times := make([]time.Duration, 0, len(packets))
	for _, pts := range packets {
		rel := pts - start
		if rel < 0 {
			continue
		}
		at := secondsToDuration(rel)
		if n := len(times); n > 0 && times[n-1] == at {
			continue
		}
		times = append(times, at)
	}
	return times
}

func synthesizeTimes(duration time.Duration, fps float64) []time.Duration {
	if duration <= 0 || fps <= 0 {
		return nil
	}
	var times []time.Duration
	for k := 0; ; k++ {
		at := secondsToDuration(float64(k) / fps)
		if at >= duration {
			break
		}
		times = append(times, at)
	}
	return times
}
