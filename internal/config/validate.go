package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownloader(); err != nil {
		return err
	}
	if err := c.validateFrames(); err != nil {
		return err
	}
	if err := c.validatePDF(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if topic := c.Notifications.NtfyTopic; topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) URL, got %q", topic)
	}
	if c.Preflight.MinFreeMB < 0 {
		return errors.New("preflight.min_free_mb must be zero or positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		return errors.New("paths.output_root must be set")
	}
	if c.History.Enabled && strings.TrimSpace(c.Paths.HistoryDB) == "" {
		return errors.New("paths.history_db must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateDownloader() error {
	switch c.Downloader.Backend {
	case BackendYTDLP, BackendNative:
	default:
		return fmt.Errorf("downloader.backend must be %q or %q, got %q", BackendYTDLP, BackendNative, c.Downloader.Backend)
	}
	return nil
}

func (c *Config) validateFrames() error {
	name := c.Frames.TempDirName
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("frames.temp_dir_name must be a plain directory name, got %q", name)
	}
	if c.Frames.ImageQuality < 1 || c.Frames.ImageQuality > 100 {
		return errors.New("frames.image_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validatePDF() error {
	switch c.PDF.PageSize {
	case "A3", "A4", "A5", "LETTER", "LEGAL":
	default:
		return fmt.Errorf("pdf.page_size: unsupported value %q", c.PDF.PageSize)
	}
	if c.PDF.MarginMM < 0 {
		return errors.New("pdf.margin_mm must be zero or positive")
	}
	if math.IsNaN(c.PDF.TargetSizeMB) || math.IsInf(c.PDF.TargetSizeMB, 0) || c.PDF.TargetSizeMB <= 0 {
		return errors.New("pdf.target_size_mb must be positive")
	}
	if c.PDF.CompressedImageQuality < 1 || c.PDF.CompressedImageQuality > 100 {
		return errors.New("pdf.compressed_image_quality must be between 1 and 100")
	}
	if c.PDF.QualityFloor < 1 || c.PDF.QualityFloor > c.PDF.CompressedImageQuality {
		return errors.New("pdf.quality_floor must be between 1 and pdf.compressed_image_quality")
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Collision {
	case CollisionSuffix, CollisionFail:
		return nil
	default:
		return fmt.Errorf("output.collision must be %q or %q, got %q", CollisionSuffix, CollisionFail, c.Output.Collision)
	}
}
