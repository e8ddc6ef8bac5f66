package ffprobe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	StartTime    string `json:"start_time"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	StartTime  string `json:"start_time"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary, path, err := normalizeArgs(binary, path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, stderrOf(err))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// PacketTimes lists the presentation timestamps (seconds) of every packet in
// the first video stream, sorted ascending. Packets without a PTS are skipped.
func PacketTimes(ctx context.Context, binary string, path string) ([]float64, error) {
	binary, path, err := normalizeArgs(binary, path)
	if err != nil {
		return nil, fmt.Errorf("ffprobe packets: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-select_streams", "v:0", "-show_entries", "packet=pts_time", "-of", "csv=p=0", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe packets: %w: %s", err, stderrOf(err))
	}
	return ParsePacketTimes(output)
}

// ParsePacketTimes decodes csv=p=0 packet output into sorted seconds.
func ParsePacketTimes(output []byte) ([]float64, error) {
	var times []float64
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		field, _, _ := strings.Cut(strings.TrimSpace(scanner.Text()), ",")
		if field == "" || field == "N/A" {
			continue
		}
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("ffprobe packets: parse %q: %w", field, err)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		times = append(times, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ffprobe packets: %w", err)
	}
	sort.Float64s(times)
	return times, nil
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// PrimaryVideo returns the first video stream.
func (r Result) PrimaryVideo() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration in seconds, falling back to
// the primary video stream. Returns 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	if d := parseFloat(r.Format.Duration); d > 0 {
		return d
	}
	if video, ok := r.PrimaryVideo(); ok {
		if d := parseFloat(video.Duration); d > 0 {
			return d
		}
	}
	return 0
}

// StartTimeSeconds returns the container start offset, or 0.
func (r Result) StartTimeSeconds() float64 {
	if s := parseFloat(r.Format.StartTime); s > 0 {
		return s
	}
	return 0
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if size <= 0 {
		return 0
	}
	return int64(size)
}

// FrameRate returns the stream frame rate in frames per second, preferring the
// average rate. Returns 0 when unknown.
func (s Stream) FrameRate() float64 {
	if rate := parseRational(s.AvgFrameRate); rate > 0 {
		return rate
	}
	return parseRational(s.RFrameRate)
}

func parseRational(value string) float64 {
	value = strings.TrimSpace(value)
	num, den, ok := strings.Cut(value, "/")
	if !ok {
		v := parseFloat(value)
		if math.IsNaN(v) {
			return 0
		}
		return v
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if math.IsNaN(n) || math.IsNaN(d) || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

func normalizeArgs(binary, path string) (string, string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", "", errors.New("empty path")
	}
	return binary, path, nil
}

func stderrOf(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return strings.TrimSpace(string(exitErr.Stderr))
	}
	return ""
}
