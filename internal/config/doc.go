// Package config loads, normalizes, and validates FrameScribe configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the TARGET_PDF_SIZE_MB,
// COMPRESSED_IMAGE_QUALITY and TEMP_FRAME_DIR_NAME environment overrides.
// The resulting Config is passed explicitly to the session at construction;
// nothing reads configuration from globals.
package config
