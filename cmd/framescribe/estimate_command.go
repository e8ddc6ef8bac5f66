package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Microck/FrameScribe/internal/frames"
	"github.com/Microck/FrameScribe/internal/timecode"
)

func newEstimateCommand() *cobra.Command {
	var durationFlag string
	var intervalFlag string

	cmd := &cobra.Command{
		Use:         "estimate",
		Short:       "Print how many frames an interval yields for a video length",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, err := parseVideoDuration(durationFlag)
			if err != nil {
				return err
			}
			interval, err := frames.ParseInterval(intervalFlag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d frames (duration %s, one every %s)\n",
				frames.EstimateFrameCount(duration, interval), timecode.Caption(duration), timecode.Caption(interval))
			return nil
		},
	}
	cmd.Flags().StringVar(&durationFlag, "duration", "", "Video length: seconds, a Go duration (1h2m) or HH:MM:SS.mmm")
	cmd.Flags().StringVar(&intervalFlag, "interval", "", "Seconds between frames")
	_ = cmd.MarkFlagRequired("duration")
	_ = cmd.MarkFlagRequired("interval")
	return cmd
}

// parseVideoDuration accepts the same forms as --interval plus a timecode.
func parseVideoDuration(value string) (time.Duration, error) {
	if d, err := frames.ParseInterval(value); err == nil {
		return d, nil
	}
	d, err := timecode.Parse(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("--duration: cannot parse %q as a positive length", value)
	}
	return d, nil
}
