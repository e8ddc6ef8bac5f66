package stageexec

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Microck/FrameScribe/internal/pipeline"
)

type observation struct {
	stage  string
	failed bool
}

type recordingObserver struct {
	seen []observation
}

func (r *recordingObserver) ObserveStage(stage string, _ time.Duration, failed bool) {
	r.seen = append(r.seen, observation{stage: stage, failed: failed})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var record map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		out = append(out, record)
	}
	return out
}

func TestRunLogsStartAndCompletion(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	obs := &recordingObserver{}
	var sawStage string

	err := Run(context.Background(), Options{Logger: logger, Observer: obs, StageName: "building pdf"}, func(ctx context.Context, _ *slog.Logger) error {
		sawStage, _ = pipeline.StageFromContext(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if sawStage != "building pdf" {
		t.Fatalf("stage not propagated through context: %q", sawStage)
	}
	lines := decodeLines(t, &buf)
	if len(lines) != 2 || lines[0]["msg"] != "stage started" || lines[1]["msg"] != "stage completed" {
		t.Fatalf("unexpected log lines %v", lines)
	}
	if lines[1]["stage"] != "building pdf" || lines[1]["event_type"] != "stage_complete" {
		t.Fatalf("missing stage fields: %v", lines[1])
	}
	if len(obs.seen) != 1 || obs.seen[0].failed {
		t.Fatalf("unexpected observations %v", obs.seen)
	}
}

func TestRunClassifiesFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantMsg    string
		wantLevel  string
		wantFailed bool
	}{
		{"fatal", pipeline.Wrap(pipeline.ErrDownload, "downloading", "", "boom", nil), "stage failed", "ERROR", true},
		{"notice", pipeline.Wrap(pipeline.ErrTranscriptUnavailable, "", "", "none", nil), "stage completed with notice", "WARN", false},
		{"recoverable", pipeline.Wrap(pipeline.ErrInvalidInterval, "", "", "zero", nil), "stage needs new input", "INFO", false},
		{"cancelled", context.Canceled, "stage cancelled", "INFO", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			obs := &recordingObserver{}

			err := Run(context.Background(), Options{Logger: logger, Observer: obs, StageName: "s"}, func(context.Context, *slog.Logger) error {
				return tt.err
			})
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected error to pass through, got %v", err)
			}
			lines := decodeLines(t, &buf)
			last := lines[len(lines)-1]
			if last["msg"] != tt.wantMsg || last["level"] != tt.wantLevel {
				t.Fatalf("unexpected final line %v", last)
			}
			if obs.seen[0].failed != tt.wantFailed {
				t.Fatalf("failed = %v, want %v", obs.seen[0].failed, tt.wantFailed)
			}
		})
	}
}

func TestRunWithoutHandler(t *testing.T) {
	if err := Run(context.Background(), Options{StageName: "x"}, nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}

func TestDeriveStageLabel(t *testing.T) {
	cases := map[string]string{
		"building_pdf":      "Building Pdf",
		"extracting frames": "Extracting Frames",
		"":                  "",
	}
	for in, want := range cases {
		if got := DeriveStageLabel(in); got != want {
			t.Fatalf("DeriveStageLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
