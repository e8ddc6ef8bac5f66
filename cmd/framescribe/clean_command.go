package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Microck/FrameScribe/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove working directories left behind by interrupted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			lock, err := staging.AcquireLock(cfg.Paths.OutputRoot)
			if err != nil {
				return fmt.Errorf("clean: %w", err)
			}
			defer lock.Release()

			result := staging.CleanStale(cmd.Context(), cfg.Paths.OutputRoot, cfg.Frames.TempDirName, maxAge, logger)
			out := cmd.OutOrStdout()
			for _, path := range result.Removed {
				fmt.Fprintf(out, "removed %s\n", path)
			}
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "failed %s: %v\n", failure.Path, failure.Error)
			}
			fmt.Fprintf(out, "Removed %d director%s, reclaimed %s\n",
				len(result.Removed), pluralY(len(result.Removed)), humanize.IBytes(uint64(result.Reclaimed)))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d director%s could not be removed", len(result.Errors), pluralY(len(result.Errors)))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Only remove working directories older than this")
	return cmd
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
