package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/Microck/FrameScribe/internal/config"
	"github.com/Microck/FrameScribe/internal/deps"
	"github.com/Microck/FrameScribe/internal/desktop"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Output root", cfg.Paths.OutputRoot))
	results = append(results, CheckFreeSpace("Free space", cfg.Paths.OutputRoot, cfg.Preflight.MinFreeMB*1024*1024))

	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		}
		results = append(results, result)
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins failed checks into one line.
func Summary(failed []Result) string {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return strings.Join(parts, "; ")
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both the session and the CLI deps command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	tools := deps.Tools{
		YTDLP:     cfg.Downloader.Binary,
		FFmpeg:    cfg.Tools.FFmpeg,
		FFprobe:   cfg.Tools.FFprobe,
		NeedYTDLP: cfg.Downloader.Backend == config.BackendYTDLP,
	}
	if cfg.Output.OpenFolder {
		tools.FileBrowser = desktop.DefaultCommand()
	}
	return deps.CheckBinaries(deps.Requirements(tools))
}
