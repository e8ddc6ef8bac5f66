// Package ffprobe provides a typed wrapper around ffprobe output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties including frame rates
//
// Entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - PacketTimes: lists video packet presentation timestamps
package ffprobe
