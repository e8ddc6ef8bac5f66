package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Microck/FrameScribe/internal/config"
	"github.com/Microck/FrameScribe/internal/session"
)

func newTestPrompter(input string, opts runOptions, cfg *config.Config) (*terminalPrompter, *bytes.Buffer) {
	var out bytes.Buffer
	return newTerminalPrompter(strings.NewReader(input), &out, opts, cfg), &out
}

func TestPrompterUsesFlagValuesOnce(t *testing.T) {
	p, _ := newTestPrompter("https://example.com/second\n3\n", runOptions{url: "https://example.com/first", interval: "2"}, nil)
	ctx := context.Background()

	url, err := p.URL(ctx, nil)
	if err != nil || url != "https://example.com/first" {
		t.Fatalf("URL = %q, %v", url, err)
	}
	interval, err := p.Interval(ctx, nil)
	if err != nil || interval != "2" {
		t.Fatalf("Interval = %q, %v", interval, err)
	}

	url, err = p.URL(ctx, errors.New("bad"))
	if err != nil || url != "https://example.com/second" {
		t.Fatalf("re-asked URL = %q, %v", url, err)
	}
	interval, err = p.Interval(ctx, errors.New("bad"))
	if err != nil || interval != "3" {
		t.Fatalf("re-asked Interval = %q, %v", interval, err)
	}
}

func TestPrompterReportsProblemBeforeAsking(t *testing.T) {
	p, out := newTestPrompter("1.5\n", runOptions{}, nil)
	value, err := p.Interval(context.Background(), errors.New("interval must be positive"))
	if err != nil {
		t.Fatalf("Interval: %v", err)
	}
	if value != "1.5" {
		t.Fatalf("Interval = %q", value)
	}
	if !strings.Contains(out.String(), "Invalid interval: interval must be positive") {
		t.Fatalf("problem not printed: %q", out.String())
	}
}

func TestPrompterConfirmEstimate(t *testing.T) {
	estimate := session.Estimate{Title: "Intro", Duration: 10 * time.Second, Interval: 2 * time.Second, Frames: 5}
	tests := []struct {
		name  string
		input string
		want  session.Decision
	}{
		{"yes", "y\n", session.DecisionProceed},
		{"change", "c\n", session.DecisionChange},
		{"no", "n\n", session.DecisionCancel},
		{"retry after junk", "maybe\nyes\n", session.DecisionProceed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newTestPrompter(tt.input, runOptions{}, nil)
			got, err := p.ConfirmEstimate(context.Background(), estimate)
			if err != nil {
				t.Fatalf("ConfirmEstimate: %v", err)
			}
			if got != tt.want {
				t.Fatalf("decision = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "about 5 frames") {
				t.Fatalf("estimate not printed: %q", out.String())
			}
		})
	}
}

func TestPrompterYesFlagProceedsOnce(t *testing.T) {
	p, _ := newTestPrompter("n\n", runOptions{yes: true}, nil)
	estimate := session.Estimate{Title: "Intro", Duration: time.Minute, Interval: time.Second, Frames: 60}
	ctx := context.Background()

	if got, err := p.ConfirmEstimate(ctx, estimate); err != nil || got != session.DecisionProceed {
		t.Fatalf("first ConfirmEstimate = %v, %v", got, err)
	}
	if got, err := p.ConfirmEstimate(ctx, estimate); err != nil || got != session.DecisionCancel {
		t.Fatalf("second ConfirmEstimate = %v, %v", got, err)
	}
}

func TestPrompterClosedInput(t *testing.T) {
	p, _ := newTestPrompter("", runOptions{}, nil)
	if _, err := p.URL(context.Background(), nil); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestPrompterLastLineWithoutNewline(t *testing.T) {
	p, _ := newTestPrompter("https://example.com/v", runOptions{}, nil)
	url, err := p.URL(context.Background(), nil)
	if err != nil || url != "https://example.com/v" {
		t.Fatalf("URL = %q, %v", url, err)
	}
}

func TestPrompterCancelledContext(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	var out bytes.Buffer
	p := newTerminalPrompter(reader, &out, runOptions{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Interval(ctx, nil)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("prompt did not return after cancel")
	}
}

func TestPrompterCompressionPresets(t *testing.T) {
	cfg := config.Default()
	cfg.PDF.Compress = config.AnswerYes
	cfg.PDF.KeepCompressed = config.AnswerNo
	p, out := newTestPrompter("", runOptions{}, &cfg)
	ctx := context.Background()

	accept, err := p.Compress(ctx, 12<<20, 8<<20)
	if err != nil || !accept {
		t.Fatalf("Compress = %v, %v", accept, err)
	}
	keep, err := p.KeepCompressed(ctx, 12<<20, 9<<20, 8<<20)
	if err != nil || keep {
		t.Fatalf("KeepCompressed = %v, %v", keep, err)
	}
	if out.Len() != 0 {
		t.Fatalf("presets should not print questions, got %q", out.String())
	}
}

func TestPrompterCompressionAsks(t *testing.T) {
	p, out := newTestPrompter("sure\ny\n", runOptions{}, nil)
	accept, err := p.Compress(context.Background(), 12<<20, 8<<20)
	if err != nil || !accept {
		t.Fatalf("Compress = %v, %v", accept, err)
	}
	text := out.String()
	if !strings.Contains(text, "12 MiB") || !strings.Contains(text, "Please answer y or n.") {
		t.Fatalf("unexpected prompt output %q", text)
	}
}
