// Package desktop reveals the output folder in the platform file browser.
package desktop

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Runner starts a command. Tests replace it.
type Runner func(ctx context.Context, name string, args ...string) error

// Opener launches the file browser.
type Opener struct {
	command string
	run     Runner
}

// DefaultCommand returns the file browser launcher for the current platform.
func DefaultCommand() string {
	return commandFor(runtime.GOOS)
}

func commandFor(goos string) string {
	switch goos {
	case "darwin":
		return "open"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}

// NewOpener constructs an opener. An empty command selects the platform
// default; a nil runner starts a real process.
func NewOpener(command string, run Runner) *Opener {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand()
	}
	if run == nil {
		run = startDetached
	}
	return &Opener{command: strings.TrimSpace(command), run: run}
}

// Reveal opens dir in the file browser.
func (o *Opener) Reveal(ctx context.Context, dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("reveal: empty path")
	}
	if err := o.run(ctx, o.command, dir); err != nil {
		return fmt.Errorf("reveal %s with %s: %w", dir, o.command, err)
	}
	return nil
}

// startDetached launches the browser without tying its lifetime to ctx; a
// cancelled ctx only prevents the launch.
func startDetached(ctx context.Context, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// explorer exits non-zero even on success, so only the launch is checked
	go func() { _ = cmd.Wait() }()
	return nil
}
