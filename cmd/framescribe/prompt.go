package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Microck/FrameScribe/internal/config"
	"github.com/Microck/FrameScribe/internal/session"
	"github.com/Microck/FrameScribe/internal/timecode"
)

// terminalPrompter asks questions on the terminal. Flag values answer the
// first question of each kind; a rejected flag value falls back to asking.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer

	url            string
	interval       string
	yes            bool
	compress       string
	keepCompressed string
}

func newTerminalPrompter(in io.Reader, out io.Writer, opts runOptions, cfg *config.Config) *terminalPrompter {
	p := &terminalPrompter{
		in:       bufio.NewReader(in),
		out:      out,
		url:      strings.TrimSpace(opts.url),
		interval: strings.TrimSpace(opts.interval),
		yes:      opts.yes,
	}
	if cfg != nil {
		p.compress = cfg.PDF.Compress
		p.keepCompressed = cfg.PDF.KeepCompressed
	}
	return p
}

func (p *terminalPrompter) URL(ctx context.Context, problem error) (string, error) {
	if problem != nil {
		fmt.Fprintf(p.out, "Invalid URL: %v\n", problem)
	}
	if value := take(&p.url); value != "" {
		return value, nil
	}
	return p.ask(ctx, "Enter video URL: ")
}

func (p *terminalPrompter) Interval(ctx context.Context, problem error) (string, error) {
	if problem != nil {
		fmt.Fprintf(p.out, "Invalid interval: %v\n", problem)
	}
	if value := take(&p.interval); value != "" {
		return value, nil
	}
	return p.ask(ctx, "Extract one frame every how many seconds (e.g. 2, 0.5)? ")
}

func (p *terminalPrompter) ConfirmEstimate(ctx context.Context, estimate session.Estimate) (session.Decision, error) {
	fmt.Fprintf(p.out, "%q runs %s; one frame every %s gives about %d frames.\n",
		estimate.Title, timecode.Caption(estimate.Duration), timecode.Caption(estimate.Interval), estimate.Frames)
	if p.yes {
		p.yes = false
		return session.DecisionProceed, nil
	}
	for {
		answer, err := p.ask(ctx, "Proceed? (y/n, or 'c' to change interval): ")
		if err != nil {
			return session.DecisionCancel, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return session.DecisionProceed, nil
		case "c", "change":
			return session.DecisionChange, nil
		case "n", "no":
			return session.DecisionCancel, nil
		}
		fmt.Fprintln(p.out, "Please answer y, n or c.")
	}
}

func (p *terminalPrompter) Compress(ctx context.Context, size, target int64) (bool, error) {
	question := fmt.Sprintf("PDF is %s, over the %s target. Try to compress it? (y/n): ",
		humanize.IBytes(uint64(size)), humanize.IBytes(uint64(target)))
	return p.confirm(ctx, p.compress, question)
}

func (p *terminalPrompter) KeepCompressed(ctx context.Context, original, compressed, target int64) (bool, error) {
	question := fmt.Sprintf("Compressed PDF is %s (original %s, target %s). Keep the compressed version? (y/n): ",
		humanize.IBytes(uint64(compressed)), humanize.IBytes(uint64(original)), humanize.IBytes(uint64(target)))
	return p.confirm(ctx, p.keepCompressed, question)
}

func (p *terminalPrompter) confirm(ctx context.Context, preset, question string) (bool, error) {
	switch preset {
	case config.AnswerYes:
		return true, nil
	case config.AnswerNo:
		return false, nil
	}
	for {
		answer, err := p.ask(ctx, question)
		if err != nil {
			return false, err
		}
		switch config.NormalizeAnswer(answer) {
		case config.AnswerYes:
			return true, nil
		case config.AnswerNo:
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

type readResult struct {
	line string
	err  error
}

// ask reads one trimmed line. io.EOF is returned once input is exhausted. A
// cancelled ctx abandons the pending read.
func (p *terminalPrompter) ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, question)

	done := make(chan readResult, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		done <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil && (res.err != io.EOF || res.line == "") {
			fmt.Fprintln(p.out)
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}

func take(value *string) string {
	v := *value
	*value = ""
	return v
}
