// Package compress shrinks a finished PDF towards a size target by
// re-encoding its frames at decreasing JPEG quality and rebuilding the
// document. The smallest candidate seen is kept.
package compress
