// Package timecode formats and parses HH:MM:SS.mmm style timestamps.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Separators between seconds and milliseconds.
const (
	CaptionSeparator = '.'
	SRTSeparator     = ','
)

// Format renders d as HH:MM:SS<sep>mmm, truncating to the millisecond. Hours
// grow past two digits for very long inputs; negative durations clamp to zero.
func Format(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, ms)
}

// Caption renders the timestamp printed under each PDF frame.
func Caption(d time.Duration) string {
	return Format(d, CaptionSeparator)
}

// SRT renders a cue timestamp.
func SRT(d time.Duration) string {
	return Format(d, SRTSeparator)
}

// Parse accepts HH:MM:SS,mmm or HH:MM:SS.mmm (milliseconds optional).
func Parse(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ",", ".")
	clock, frac, _ := strings.Cut(value, ".")
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	var parts [3]int64
	for i, p := range hms {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		parts[i] = n
	}
	if parts[1] > 59 || parts[2] > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	var millis int64
	if frac != "" {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		for len(frac) < 3 {
			frac += "0"
		}
		n, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		millis = n
	}
	total := parts[0]*3600_000 + parts[1]*60_000 + parts[2]*1000 + millis
	return time.Duration(total) * time.Millisecond, nil
}
