package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Microck/FrameScribe/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if _, err := os.Stat(ctx.configPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Value"}, configRows(cfg), nil))
			return nil
		},
	}
}

func configRows(cfg *config.Config) [][]string {
	orEmpty := func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "(unset)"
		}
		return value
	}
	return [][]string{
		{"paths.output_root", cfg.Paths.OutputRoot},
		{"paths.log_dir", cfg.Paths.LogDir},
		{"paths.history_db", cfg.Paths.HistoryDB},
		{"downloader.backend", cfg.Downloader.Backend},
		{"downloader.binary", cfg.Downloader.Binary},
		{"downloader.format", cfg.Downloader.Format},
		{"downloader.subtitle_language", cfg.Downloader.SubtitleLanguage},
		{"tools.ffmpeg", cfg.Tools.FFmpeg},
		{"tools.ffprobe", cfg.Tools.FFprobe},
		{"frames.temp_dir_name", cfg.Frames.TempDirName},
		{"frames.image_quality", strconv.Itoa(cfg.Frames.ImageQuality)},
		{"frames.burn_in_timestamp", yesNo(cfg.Frames.BurnInTimestamp)},
		{"pdf.page_size", cfg.PDF.PageSize},
		{"pdf.orientation", cfg.PDF.Orientation},
		{"pdf.margin_mm", strconv.FormatFloat(cfg.PDF.MarginMM, 'f', -1, 64)},
		{"pdf.target_size_mb", strconv.FormatFloat(cfg.PDF.TargetSizeMB, 'f', -1, 64)},
		{"pdf.compressed_image_quality", strconv.Itoa(cfg.PDF.CompressedImageQuality)},
		{"pdf.quality_floor", strconv.Itoa(cfg.PDF.QualityFloor)},
		{"pdf.quality_step", strconv.Itoa(cfg.PDF.QualityStep)},
		{"pdf.compress", cfg.PDF.Compress},
		{"pdf.keep_compressed", cfg.PDF.KeepCompressed},
		{"output.open_folder", yesNo(cfg.Output.OpenFolder)},
		{"output.collision", cfg.Output.Collision},
		{"history.enabled", yesNo(cfg.History.Enabled)},
		{"metrics.textfile_path", orEmpty(cfg.Metrics.TextfilePath)},
		{"notifications.ntfy_topic", orEmpty(cfg.Notifications.NtfyTopic)},
		{"preflight.min_free_mb", strconv.FormatInt(cfg.Preflight.MinFreeMB, 10)},
		{"logging.format", cfg.Logging.Format},
		{"logging.level", cfg.Logging.Level},
	}
}
