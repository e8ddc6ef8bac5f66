package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.applyEnvOverrides(); err != nil {
		return err
	}
	c.normalizeDownloader()
	c.normalizeTools()
	c.normalizeFrames()
	c.normalizePDF()
	c.normalizeOutput()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		if c.Paths.OutputRoot, err = executableDir(); err != nil {
			return fmt.Errorf("paths.output_root: %w", err)
		}
	}
	if c.Paths.OutputRoot, err = expandPath(c.Paths.OutputRoot); err != nil {
		return fmt.Errorf("paths.output_root: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if value, ok := os.LookupEnv(EnvTargetPDFSizeMB); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTargetPDFSizeMB, err)
		}
		c.PDF.TargetSizeMB = parsed
	}
	if value, ok := os.LookupEnv(EnvCompressedImageQuality); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCompressedImageQuality, err)
		}
		c.PDF.CompressedImageQuality = parsed
	}
	if value, ok := os.LookupEnv(EnvTempFrameDirName); ok && strings.TrimSpace(value) != "" {
		c.Frames.TempDirName = strings.TrimSpace(value)
	}
	return nil
}

func (c *Config) normalizeDownloader() {
	c.Downloader.Backend = strings.ToLower(strings.TrimSpace(c.Downloader.Backend))
	if c.Downloader.Backend == "" || c.Downloader.Backend == "ytdlp" {
		c.Downloader.Backend = defaultDownloaderBackend
	}
	c.Downloader.Binary = strings.TrimSpace(c.Downloader.Binary)
	if c.Downloader.Binary == "" {
		c.Downloader.Binary = defaultDownloaderBinary
	}
	c.Downloader.Format = strings.TrimSpace(c.Downloader.Format)
	if c.Downloader.Format == "" {
		c.Downloader.Format = defaultDownloaderFormat
	}
	c.Downloader.SubtitleLanguage = strings.TrimSpace(c.Downloader.SubtitleLanguage)
	if c.Downloader.SubtitleLanguage == "" {
		c.Downloader.SubtitleLanguage = defaultSubtitleLanguage
	}
	if tag, err := language.Parse(c.Downloader.SubtitleLanguage); err == nil {
		c.Downloader.SubtitleLanguage = tag.String()
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
}

func (c *Config) normalizeFrames() {
	c.Frames.TempDirName = strings.TrimSpace(c.Frames.TempDirName)
	if c.Frames.TempDirName == "" {
		c.Frames.TempDirName = defaultTempFrameDirName
	}
	if c.Frames.ImageQuality <= 0 {
		c.Frames.ImageQuality = defaultFrameImageQuality
	}
}

func (c *Config) normalizePDF() {
	c.PDF.PageSize = strings.ToUpper(strings.TrimSpace(c.PDF.PageSize))
	if c.PDF.PageSize == "" {
		c.PDF.PageSize = defaultPageSize
	}
	switch strings.ToUpper(strings.TrimSpace(c.PDF.Orientation)) {
	case "P", "PORTRAIT":
		c.PDF.Orientation = "P"
	default:
		c.PDF.Orientation = defaultOrientation
	}
	if c.PDF.QualityStep <= 0 {
		c.PDF.QualityStep = defaultQualityStep
	}
	c.PDF.Compress = normalizeAnswer(c.PDF.Compress)
	c.PDF.KeepCompressed = normalizeAnswer(c.PDF.KeepCompressed)
}

func (c *Config) normalizeOutput() {
	c.Output.Collision = strings.ToLower(strings.TrimSpace(c.Output.Collision))
	if c.Output.Collision == "" {
		c.Output.Collision = defaultCollisionPolicy
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// NormalizeAnswer maps yes/no/ask spellings onto the canonical constants.
func NormalizeAnswer(value string) string {
	return normalizeAnswer(value)
}

func normalizeAnswer(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "true", "always":
		return AnswerYes
	case "n", "no", "false", "never":
		return AnswerNo
	default:
		return AnswerAsk
	}
}
