// Package pipeline defines the error taxonomy and context helpers shared by
// every FrameScribe stage.
//
// Key responsibilities:
//   - Sentinel markers that separate fatal failures (download, sampling, PDF)
//     from recoverable input errors and non-fatal notices.
//   - The Wrap helper that stamps stage and operation onto an error while
//     keeping the marker reachable through errors.Is.
//   - Context helpers that carry the session ID and current stage so loggers
//     can tag every line.
package pipeline
