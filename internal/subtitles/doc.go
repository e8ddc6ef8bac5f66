// Package subtitles converts downloaded caption files into the SRT transcript
// stored next to the PDF.
//
// Parsing of SRT, WebVTT, SSA/ASS and TTML is delegated to go-astisub; this
// package owns the Entry model, the SRT writer and the atomic write into the
// output folder. Cue order and timing are carried through unchanged.
package subtitles
