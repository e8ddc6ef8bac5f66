// Package logs reads the FrameScribe log file for `framescribe logs`.
//
// Last returns the final N lines with bounded memory, and Follow streams lines
// appended after an offset until its context ends. A file that shrinks below
// the current offset is treated as replaced and read again from the start.
package logs
