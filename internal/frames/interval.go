package frames

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Microck/FrameScribe/internal/pipeline"
)

// MinInterval is the smallest accepted sampling interval.
const MinInterval = time.Millisecond

// ParseInterval parses a sampling interval given in seconds ("2", "0.5") or as
// a Go duration ("1m30s").
func ParseInterval(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, pipeline.Wrap(pipeline.ErrInvalidInterval, "", "", "interval is required", nil)
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		d, durErr := time.ParseDuration(value)
		if durErr != nil {
			return 0, pipeline.Wrap(pipeline.ErrInvalidInterval, "", "", fmt.Sprintf("%q is not a number of seconds", value), nil)
		}
		return ValidateInterval(d)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, pipeline.Wrap(pipeline.ErrInvalidInterval, "", "", fmt.Sprintf("%q is not finite", value), nil)
	}
	if seconds <= 0 {
		return 0, pipeline.Wrap(pipeline.ErrInvalidInterval, "", "", "interval must be greater than zero", nil)
	}
	if seconds > math.MaxInt64/float64(time.Second) {
		return 0, pipeline.Wrap(pipeline.ErrInvalidInterval, "", "", fmt.Sprintf("%q is too large", value), nil)
	}
	return ValidateInterval(secondsToDuration(seconds))
}

// ValidateInterval checks that d is a usable sampling interval.
func ValidateInterval(d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, pipeline.Wrap(pipeline.ErrInvalidInterval, "", "", "interval must be greater than zero", nil)
	}
	if d < MinInterval {
		return 0, pipeline.Wrap(pipeline.ErrInvalidInterval, "", "", fmt.Sprintf("interval must be at least %s", MinInterval), nil)
	}
	return d, nil
}

// EstimateFrameCount returns ceil(duration / interval), or 0 when either value
// is not positive.
func EstimateFrameCount(duration, interval time.Duration) int {
	if duration <= 0 || interval <= 0 {
		return 0
	}
	return int((duration-1)/interval) + 1
}

// Targets lists the sampling points 0, i, 2i, ... strictly before duration.
func Targets(duration, interval time.Duration) []time.Duration {
	count := EstimateFrameCount(duration, interval)
	if count == 0 {
		return nil
	}
	targets := make([]time.Duration, 0, count)
	for k := 0; k < count; k++ {
		at := time.Duration(k) * interval
		if at >= duration {
			break
		}
		targets = append(targets, at)
	}
	return targets
}

// SelectTimestamps maps every target to the first timestamp in pts at or after
// it. pts must be sorted. Timestamps past duration and repeats of an earlier
// pick are dropped, so the result is strictly increasing.
func SelectTimestamps(targets, pts []time.Duration, duration time.Duration) []time.Duration {
	selected := make([]time.Duration, 0, len(targets))
	for _, target := range targets {
		idx := sort.Search(len(pts), func(i int) bool { return pts[i] >= target })
		if idx == len(pts) {
			continue
		}
		at := pts[idx]
		if duration > 0 && at > duration {
			continue
		}
		if n := len(selected); n > 0 && at <= selected[n-1] {
			continue
		}
		selected = append(selected, at)
	}
	return selected
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
