// Package logging assembles structured slog loggers and formatting helpers used
// across FrameScribe.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with the session ID and current stage. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
