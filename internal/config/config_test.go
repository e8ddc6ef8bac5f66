package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/Microck/FrameScribe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "framescribe", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if !filepath.IsAbs(cfg.Paths.OutputRoot) {
		t.Fatalf("expected absolute output root, got %q", cfg.Paths.OutputRoot)
	}
	if cfg.PDF.TargetSizeMB != 8 {
		t.Fatalf("expected 8 MB target, got %v", cfg.PDF.TargetSizeMB)
	}
	if cfg.PDF.CompressedImageQuality != 75 {
		t.Fatalf("expected quality 75, got %d", cfg.PDF.CompressedImageQuality)
	}
	if cfg.Frames.TempDirName != "temp_frames" {
		t.Fatalf("expected temp_frames, got %q", cfg.Frames.TempDirName)
	}
	if cfg.Output.Collision != config.CollisionSuffix {
		t.Fatalf("expected suffix collision policy, got %q", cfg.Output.Collision)
	}
	if cfg.Notifications.RequestTimeout != 10 {
		t.Fatalf("expected 10s ntfy timeout, got %d", cfg.Notifications.RequestTimeout)
	}
	if cfg.TargetPDFBytes() != 8*1024*1024 {
		t.Fatalf("unexpected target bytes %d", cfg.TargetPDFBytes())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := struct {
		Paths struct {
			OutputRoot string `toml:"output_root"`
		} `toml:"paths"`
		Downloader struct {
			Backend          string `toml:"backend"`
			SubtitleLanguage string `toml:"subtitle_language"`
		} `toml:"downloader"`
		Output struct {
			Collision string `toml:"collision"`
		} `toml:"output"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}{}
	payload.Paths.OutputRoot = "~/videos"
	payload.Downloader.Backend = "Native"
	payload.Downloader.SubtitleLanguage = "pt-br"
	payload.Output.Collision = "FAIL"
	payload.Logging.Format = "JSON"

	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected %q to be loaded, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.OutputRoot != filepath.Join(tempHome, "videos") {
		t.Fatalf("unexpected output root %q", cfg.Paths.OutputRoot)
	}
	if cfg.Downloader.Backend != config.BackendNative {
		t.Fatalf("unexpected backend %q", cfg.Downloader.Backend)
	}
	if cfg.Downloader.SubtitleLanguage != "pt-BR" {
		t.Fatalf("expected canonical language tag, got %q", cfg.Downloader.SubtitleLanguage)
	}
	if cfg.Output.Collision != config.CollisionFail {
		t.Fatalf("unexpected collision policy %q", cfg.Output.Collision)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvTargetPDFSizeMB, "2.5")
	t.Setenv(config.EnvCompressedImageQuality, "60")
	t.Setenv(config.EnvTempFrameDirName, "scratch")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PDF.TargetSizeMB != 2.5 {
		t.Fatalf("expected env target, got %v", cfg.PDF.TargetSizeMB)
	}
	if cfg.PDF.CompressedImageQuality != 60 {
		t.Fatalf("expected env quality, got %d", cfg.PDF.CompressedImageQuality)
	}
	if cfg.Frames.TempDirName != "scratch" {
		t.Fatalf("expected env temp dir, got %q", cfg.Frames.TempDirName)
	}
}

func TestEnvironmentOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvTargetPDFSizeMB, "eight")

	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for non-numeric target size")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"backend", func(c *config.Config) { c.Downloader.Backend = "curl" }, "downloader.backend"},
		{"temp dir", func(c *config.Config) { c.Frames.TempDirName = "../x" }, "frames.temp_dir_name"},
		{"target", func(c *config.Config) { c.PDF.TargetSizeMB = 0 }, "pdf.target_size_mb"},
		{"quality", func(c *config.Config) { c.PDF.CompressedImageQuality = 101 }, "pdf.compressed_image_quality"},
		{"floor", func(c *config.Config) { c.PDF.QualityFloor = 90 }, "pdf.quality_floor"},
		{"collision", func(c *config.Config) { c.Output.Collision = "overwrite" }, "output.collision"},
		{"page", func(c *config.Config) { c.PDF.PageSize = "B7" }, "pdf.page_size"},
		{"ntfy", func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/topic" }, "notifications.ntfy_topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.OutputRoot = t.TempDir()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.PDF.QualityFloor != 10 || cfg.PDF.QualityStep != 10 {
		t.Fatalf("unexpected quality ladder %d/%d", cfg.PDF.QualityFloor, cfg.PDF.QualityStep)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	cases := map[string]string{"Y": config.AnswerYes, "never": config.AnswerNo, "": config.AnswerAsk, "maybe": config.AnswerAsk}
	for in, want := range cases {
		if got := config.NormalizeAnswer(in); got != want {
			t.Fatalf("NormalizeAnswer(%q) = %q, want %q", in, got, want)
		}
	}
}
