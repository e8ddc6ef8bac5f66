// Package ffmpeg decodes single video frames through the ffmpeg binary.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// seekSlack backs the seek point off slightly so a frame whose timestamp was
// rounded by ffprobe is not skipped by accurate seeking.
const seekSlack = 500 * time.Microsecond

// ExtractFrame decodes the first frame whose presentation time is at or after
// at (relative to the start of the stream).
func ExtractFrame(ctx context.Context, binary, path string, at time.Duration) (image.Image, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ffmpeg extract: empty path")
	}
	if at < 0 {
		at = 0
	}

	cmd := exec.CommandContext(ctx, binary, Args(path, at)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg extract at %s: %w: %s", at, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg extract at %s: no frame decoded", at)
	}
	img, err := imaging.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg extract at %s: decode png: %w", at, err)
	}
	return img, nil
}

// Args builds the ffmpeg argument list for a single-frame PNG pipe.
func Args(path string, at time.Duration) []string {
	seek := at - seekSlack
	if seek < 0 {
		seek = 0
	}
	return []string{
		"-v", "error",
		"-hide_banner",
		"-nostdin",
		"-ss", strconv.FormatFloat(seek.Seconds(), 'f', 6, 64),
		"-i", path,
		"-map", "0:v:0",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}
