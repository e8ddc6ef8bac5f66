package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputRoot string `toml:"output_root"`
	LogDir     string `toml:"log_dir"`
	HistoryDB  string `toml:"history_db"`
}

// Downloader selects and tunes the video download backend.
type Downloader struct {
	Backend          string `toml:"backend"`
	Binary           string `toml:"binary"`
	Format           string `toml:"format"`
	SubtitleLanguage string `toml:"subtitle_language"`
}

// Tools names the external media binaries.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Frames contains frame sampling settings.
type Frames struct {
	TempDirName     string `toml:"temp_dir_name"`
	ImageQuality    int    `toml:"image_quality"`
	BurnInTimestamp bool   `toml:"burn_in_timestamp"`
}

// PDF contains document layout and compression settings.
type PDF struct {
	PageSize               string  `toml:"page_size"`
	Orientation            string  `toml:"orientation"`
	MarginMM               float64 `toml:"margin_mm"`
	TargetSizeMB           float64 `toml:"target_size_mb"`
	CompressedImageQuality int     `toml:"compressed_image_quality"`
	QualityFloor           int     `toml:"quality_floor"`
	QualityStep            int     `toml:"quality_step"`
	Compress               string  `toml:"compress"`
	KeepCompressed         string  `toml:"keep_compressed"`
}

// Output controls what happens around the output folder.
type Output struct {
	OpenFolder bool   `toml:"open_folder"`
	Collision  string `toml:"collision"`
}

// History controls the local run ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Metrics controls the Prometheus textfile export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Notifications configures ntfy push messages for finished runs.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Preflight contains startup check thresholds.
type Preflight struct {
	MinFreeMB int64 `toml:"min_free_mb"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for FrameScribe.
//
// Configuration sections by subsystem:
//   - Paths: output root, log directory, history database
//   - Downloader: yt-dlp or native backend, format, subtitle language
//   - Tools: ffmpeg/ffprobe binaries
//   - Frames: temporary frame directory and image settings
//   - PDF: page layout plus compression target and quality ladder
//   - Output: folder collision policy and reveal-on-done
//   - History, Metrics, Notifications, Preflight, Logging
type Config struct {
	Paths         Paths         `toml:"paths"`
	Downloader    Downloader    `toml:"downloader"`
	Tools         Tools         `toml:"tools"`
	Frames        Frames        `toml:"frames"`
	PDF           PDF           `toml:"pdf"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Metrics       Metrics       `toml:"metrics"`
	Notifications Notifications `toml:"notifications"`
	Preflight     Preflight     `toml:"preflight"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("framescribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output root and log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputRoot, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TargetPDFBytes returns the compression target in bytes.
func (c *Config) TargetPDFBytes() int64 {
	return int64(c.PDF.TargetSizeMB * 1024 * 1024)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
