package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency FrameScribe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Tools names the binaries a run needs.
type Tools struct {
	YTDLP       string
	FFmpeg      string
	FFprobe     string
	NeedYTDLP   bool
	FileBrowser string
}

// Requirements lists the external binaries for the given tool settings.
func Requirements(tools Tools) []Requirement {
	reqs := []Requirement{
		{Name: "yt-dlp", Command: tools.YTDLP, Description: "Downloads video and subtitles", Optional: !tools.NeedYTDLP},
		{Name: "FFmpeg", Command: tools.FFmpeg, Description: "Decodes sampled frames"},
		{Name: "FFprobe", Command: tools.FFprobe, Description: "Reads duration and frame timestamps"},
	}
	if strings.TrimSpace(tools.FileBrowser) != "" {
		reqs = append(reqs, Requirement{Name: "File browser", Command: tools.FileBrowser, Description: "Reveals the output folder", Optional: true})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
