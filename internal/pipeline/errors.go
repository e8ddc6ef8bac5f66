package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal markers end the session in the Failed state.
var (
	ErrDownload          = errors.New("download failed")
	ErrNoFramesExtracted = errors.New("no frames extracted")
	ErrPDFGeneration     = errors.New("pdf generation failed")
	ErrExternalTool      = errors.New("external tool error")
	ErrConfiguration     = errors.New("configuration error")
)

// Recoverable markers send the session back to a prompt.
var (
	ErrInvalidInterval = errors.New("invalid interval")
	ErrInvalidURL      = errors.New("invalid url")
)

// Notice markers are reported to the user but never fail the session.
var (
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	ErrCompressionIncomplete = errors.New("compression incomplete")
	ErrCleanup               = errors.New("cleanup warning")
)

// ErrCancelled marks a session the user declined to continue.
var ErrCancelled = errors.New("cancelled by user")

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRecoverable reports whether err should re-prompt instead of failing.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInvalidInterval) || errors.Is(err, ErrInvalidURL)
}

// IsNotice reports whether err is a warning that leaves the session alive.
func IsNotice(err error) bool {
	return errors.Is(err, ErrTranscriptUnavailable) ||
		errors.Is(err, ErrCompressionIncomplete) ||
		errors.Is(err, ErrCleanup)
}

// IsFatal reports whether err must move the session to Failed.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsRecoverable(err) && !IsNotice(err) && !errors.Is(err, ErrCancelled)
}

// Hint returns a short next step for the user given a failure.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDownload):
		return "check the URL and that yt-dlp is installed and up to date"
	case errors.Is(err, ErrNoFramesExtracted):
		return "check that the download produced a playable video and ffmpeg is installed"
	case errors.Is(err, ErrPDFGeneration):
		return "check free disk space in the output folder"
	case errors.Is(err, ErrConfiguration):
		return "run 'framescribe config validate'"
	case errors.Is(err, ErrExternalTool):
		return "run 'framescribe deps' to check external tools"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
