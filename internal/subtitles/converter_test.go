package subtitles

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/asticode/go-astisub"

	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
)

const sampleSRT = `1
00:00:00,500 --> 00:00:02,000
Hello there

2
00:00:02,250 --> 00:00:04,750
Second line
continues here

3
00:01:05,000 --> 00:01:06,001
Third
`

const sampleVTT = `WEBVTT

00:00:01.000 --> 00:00:03.500
First cue

00:00:04.000 --> 00:00:05.250
Second cue
`

func TestParseWriteRoundTripPreservesOrderAndTiming(t *testing.T) {
	entries, err := ParseSRT(strings.NewReader(sampleSRT))
	if err != nil {
		t.Fatalf("ParseSRT returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[1].Start != 2250*time.Millisecond || entries[1].End != 4750*time.Millisecond {
		t.Fatalf("unexpected timing %v-%v", entries[1].Start, entries[1].End)
	}
	if entries[1].Text != "Second line\ncontinues here" {
		t.Fatalf("unexpected multi-line text %q", entries[1].Text)
	}

	var buf bytes.Buffer
	if err := WriteSRT(&buf, entries); err != nil {
		t.Fatalf("WriteSRT returned error: %v", err)
	}
	if buf.String() != sampleSRT {
		t.Fatalf("round trip mismatch:\n%s\nwant:\n%s", buf.String(), sampleSRT)
	}

	again, err := ParseSRT(&buf)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	for i := range entries {
		if again[i].Start != entries[i].Start || again[i].End != entries[i].End || again[i].Text != entries[i].Text {
			t.Fatalf("entry %d changed: %#v vs %#v", i, again[i], entries[i])
		}
	}
}

func TestConvertVTTToSRT(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "subs.en.vtt")
	if err := os.WriteFile(src, []byte(sampleVTT), 0o644); err != nil {
		t.Fatalf("write vtt: %v", err)
	}
	dst := filepath.Join(dir, "out", "Title.en.srt")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result, err := NewConverter(logging.NewNop()).Convert(src, dst)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if result.Entries != 2 || result.Path != dst {
		t.Fatalf("unexpected result %#v", result)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	want := "1\n00:00:01,000 --> 00:00:03,500\nFirst cue\n\n2\n00:00:04,000 --> 00:00:05,250\nSecond cue\n"
	if string(data) != want {
		t.Fatalf("unexpected transcript:\n%s", data)
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(dst), ".transcript-*"))
	if len(leftovers) != 0 {
		t.Fatalf("expected no temp files, got %v", leftovers)
	}
}

func TestConvertWithoutSourceIsTranscriptUnavailable(t *testing.T) {
	_, err := NewConverter(nil).Convert("", filepath.Join(t.TempDir(), "x.srt"))
	if !errors.Is(err, pipeline.ErrTranscriptUnavailable) {
		t.Fatalf("expected transcript unavailable, got %v", err)
	}
	if pipeline.IsFatal(err) {
		t.Fatal("missing transcript must not be fatal")
	}
}

func TestConvertNeverOverwritesTranscript(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "subs.en.srt")
	dst := filepath.Join(dir, "Title.en.srt")
	if err := os.WriteFile(src, []byte(sampleSRT), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	if err := os.WriteFile(dst, []byte("original"), 0o644); err != nil {
		t.Fatalf("write dst: %v", err)
	}
	if _, err := NewConverter(nil).Convert(src, dst); err == nil {
		t.Fatal("expected error for existing transcript")
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "original" {
		t.Fatalf("transcript was modified: %q", data)
	}
}

func cue(start, end time.Duration, lines ...string) *astisub.Item {
	item := &astisub.Item{StartAt: start, EndAt: end}
	for _, text := range lines {
		item.Lines = append(item.Lines, astisub.Line{Items: []astisub.LineItem{{Text: text}}})
	}
	return item
}

// Cues without visible text would render as an empty SRT block, which players
// read as the end of the previous cue; they are dropped and the rest renumbered
// in their original order with untouched timing.
func TestBlankCuesAreDroppedAndRestKeepOrder(t *testing.T) {
	subs := &astisub.Subtitles{Items: []*astisub.Item{
		cue(time.Second, 2*time.Second, "first"),
		cue(2*time.Second, 3*time.Second, "   "),
		cue(3*time.Second, 4*time.Second),
		nil,
		cue(5*time.Second, 6*time.Second, "last", ""),
	}}

	entries := fromAstisub(subs)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %#v", entries)
	}
	if entries[0].Index != 1 || entries[0].Text != "first" || entries[0].Start != time.Second {
		t.Fatalf("unexpected first entry %#v", entries[0])
	}
	if entries[1].Index != 2 || entries[1].Text != "last" || entries[1].Start != 5*time.Second || entries[1].End != 6*time.Second {
		t.Fatalf("unexpected second entry %#v", entries[1])
	}
}
