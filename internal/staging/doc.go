// Package staging owns the on-disk layout of a run: the per-root lock, the
// output folder named after the video, and the working directory holding the
// downloaded media and sampled frames.
package staging
