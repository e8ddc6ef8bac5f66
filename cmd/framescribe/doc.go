// Package main hosts the FrameScribe CLI entrypoint and command graph.
//
// Running the binary with no subcommand starts an interactive session: it asks
// for a video URL and a sampling interval, shows the estimated frame count and
// then writes a captioned PDF plus transcript into a folder named after the
// video. Flags pre-answer any of those questions.
//
// The remaining commands are maintenance helpers: estimate, config
// scaffolding, dependency checks, run history, log tailing, stale working
// directory cleanup and a test notification. Heavy lifting lives in the internal
// packages; this package only wires them to the terminal.
package main
