package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/Microck/FrameScribe/internal/session"
)

// progressReporter draws sampling and compression bars on a terminal.
type progressReporter struct {
	w io.Writer

	mu         sync.Mutex
	bar        *progressbar.ProgressBar
	stage      string
	compressed *progressbar.ProgressBar
}

// newProgressReporter returns nil when w is not a terminal so logs and
// redirected output stay free of control sequences.
func newProgressReporter(w io.Writer) *progressReporter {
	if !isTerminal(w) {
		return nil
	}
	return &progressReporter{w: w}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *progressReporter) newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.w)
		}),
	)
}

// Update implements session.Progress.
func (p *progressReporter) Update(stage string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil || p.stage != stage {
		p.bar = p.newBar(total, stageLabelText(stage))
		p.stage = stage
	}
	_ = p.bar.Set(done)
}

// Finish implements session.Progress.
func (p *progressReporter) Finish(stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil && p.stage == stage {
		_ = p.bar.Finish()
		p.bar = nil
		p.stage = ""
	}
}

// attempt advances the compression bar; it is wired to compress.Options.OnAttempt.
func (p *progressReporter) attempt(attempt, maxAttempts, quality int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.compressed == nil || attempt == 1 {
		p.compressed = p.newBar(maxAttempts, "Compressing")
	}
	p.compressed.Describe(fmt.Sprintf("Compressing (quality %d)", quality))
	_ = p.compressed.Set(attempt - 1)
	if attempt == maxAttempts {
		_ = p.compressed.Finish()
	}
}

func stageLabelText(stage string) string {
	if stage == string(session.StateSamplingFrames) {
		return "Extracting frames"
	}
	return stageLabel(session.State(stage))
}
