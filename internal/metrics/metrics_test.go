package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteTextfileContainsRunMetrics(t *testing.T) {
	rec := New()
	rec.ObserveStage("extracting frames", 1500*time.Millisecond, false)
	rec.ObserveStage("building pdf", time.Second, true)
	rec.AddFrames(5)
	rec.SetPDFSize("original", 2048)
	rec.AddCompressionAttempts(3)
	rec.FinishRun("done", time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "framescribe.prom")
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`framescribe_frames_extracted_total 5`,
		`framescribe_pdf_size_bytes{variant="original"} 2048`,
		`framescribe_runs_total{state="done"} 1`,
		`framescribe_stage_failures_total{stage="building pdf"} 1`,
		`framescribe_stage_duration_seconds_count{stage="extracting frames"} 1`,
		`framescribe_compression_attempts_total 3`,
		`framescribe_last_run_timestamp_seconds 1.7e+09`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, text)
		}
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.ObserveStage("x", time.Second, true)
	rec.AddFrames(1)
	rec.FinishRun("done", time.Now())
	if err := rec.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rec.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}

func TestWriteTextfileEmptyPathIsNoop(t *testing.T) {
	if err := New().WriteTextfile(" "); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
