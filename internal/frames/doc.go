// Package frames samples still images from a downloaded video at a fixed
// interval.
//
// Timestamps are planned up front (Targets), snapped to real presentation
// timestamps reported by the container (SelectTimestamps), then decoded one
// by one through a Decoder and written as zero-padded JPEG files. Decoding is
// sequential; a frame that fails to decode is logged and skipped.
package frames
