// Package metrics records per-run Prometheus metrics for FrameScribe.
//
// FrameScribe is a one-shot CLI, so nothing is scraped. Metrics live in a
// private registry and, when metrics.textfile_path is configured, are written
// at the end of a run in the node_exporter textfile format. All metric names
// are prefixed with "framescribe_".
//
// # Metrics
//
//   - StageDuration: histogram of stage wall time by stage
//   - StageFailures: counter of failed stages by stage
//   - Runs: counter of finished runs by terminal state
//   - FramesExtracted: counter of frames written
//   - PDFSizeBytes: gauge of the last document size by variant (original, compressed)
//   - CompressionAttempts: counter of quality ladder rungs tried
//   - LastRunTimestamp: gauge of the last finished run (unix seconds)
package metrics
