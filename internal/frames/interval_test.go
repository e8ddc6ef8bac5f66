package frames

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Microck/FrameScribe/internal/pipeline"
)

func TestParseInterval(t *testing.T) {
	valid := map[string]time.Duration{
		"2":     2 * time.Second,
		" 0.5 ": 500 * time.Millisecond,
		"0.001": time.Millisecond,
		"1m30s": 90 * time.Second,
	}
	for in, want := range valid {
		got, err := ParseInterval(in)
		if err != nil {
			t.Fatalf("ParseInterval(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseInterval(%q) = %v, want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "0", "-1", "abc", "NaN", "Inf", "0.0001", "1e300"} {
		if _, err := ParseInterval(in); !errors.Is(err, pipeline.ErrInvalidInterval) {
			t.Fatalf("ParseInterval(%q) = %v, want ErrInvalidInterval", in, err)
		}
	}
}

func TestEstimateFrameCount(t *testing.T) {
	tests := []struct {
		duration, interval time.Duration
		want               int
	}{
		{10 * time.Second, 2 * time.Second, 5},
		{11 * time.Second, 2 * time.Second, 6},
		{5 * time.Second, 30 * time.Second, 1},
		{0, time.Second, 0},
		{time.Second, 0, 0},
		{10 * time.Second, time.Duration(math.MaxInt64), 1},
		{time.Duration(math.MaxInt64), time.Duration(math.MaxInt64), 1},
		{time.Duration(math.MaxInt64), time.Hour, int((time.Duration(math.MaxInt64)-1)/time.Hour) + 1},
	}
	for _, tt := range tests {
		if got := EstimateFrameCount(tt.duration, tt.interval); got != tt.want {
			t.Fatalf("EstimateFrameCount(%v, %v) = %d, want %d", tt.duration, tt.interval, got, tt.want)
		}
	}
}

func TestTargets(t *testing.T) {
	got := Targets(10*time.Second, 2*time.Second)
	want := []time.Duration{0, 2 * time.Second, 4 * time.Second, 6 * time.Second, 8 * time.Second}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Targets = %v, want %v", got, want)
	}
	if got := Targets(3*time.Second, time.Minute); !reflect.DeepEqual(got, []time.Duration{0}) {
		t.Fatalf("expected single target at zero, got %v", got)
	}
	huge, err := ParseInterval("9223372036")
	if err != nil {
		t.Fatalf("ParseInterval: %v", err)
	}
	if got := Targets(10*time.Second, huge); !reflect.DeepEqual(got, []time.Duration{0}) {
		t.Fatalf("expected single target for huge interval, got %v", got)
	}
	if got := Targets(0, time.Second); len(got) != 0 {
		t.Fatalf("expected no targets for empty video, got %v", got)
	}
}

func TestSelectTimestampsSnapsForwardAndDropsRepeats(t *testing.T) {
	ms := time.Millisecond
	pts := []time.Duration{0, 1500 * ms, 3100 * ms, 3200 * ms}
	targets := []time.Duration{0, time.Second, 2 * time.Second, 3 * time.Second, 4 * time.Second}

	got := SelectTimestamps(targets, pts, 5*time.Second)
	want := []time.Duration{0, 1500 * ms, 3100 * ms}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SelectTimestamps = %v, want %v", got, want)
	}
}

func TestSelectTimestampsDropsBeyondDuration(t *testing.T) {
	pts := []time.Duration{0, 9 * time.Second, 11 * time.Second}
	got := SelectTimestamps([]time.Duration{0, 10 * time.Second}, pts, 10*time.Second)
	if !reflect.DeepEqual(got, []time.Duration{0}) {
		t.Fatalf("expected only the first frame, got %v", got)
	}
}

func TestSelectTimestampsIsStrictlyIncreasing(t *testing.T) {
	var pts []time.Duration
	for k := 0; k < 300; k++ {
		pts = append(pts, time.Duration(k)*time.Second/30)
	}
	got := SelectTimestamps(Targets(10*time.Second, 40*time.Millisecond), pts, 10*time.Second)
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("timestamps not increasing at %d: %v then %v", i, got[i-1], got[i])
		}
	}
}

func TestRelativeTimesSubtractsStartAndDedupes(t *testing.T) {
	got := relativeTimes([]float64{0.9, 1.0, 1.0, 1.5}, 1.0)
	want := []time.Duration{0, 500 * time.Millisecond}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("relativeTimes = %v, want %v", got, want)
	}
}

func TestSynthesizeTimes(t *testing.T) {
	got := synthesizeTimes(time.Second, 4)
	want := []time.Duration{0, 250 * time.Millisecond, 500 * time.Millisecond, 750 * time.Millisecond}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("synthesizeTimes = %v, want %v", got, want)
	}
	if synthesizeTimes(time.Second, 0) != nil {
		t.Fatal("expected nil without frame rate")
	}
}
