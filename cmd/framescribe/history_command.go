package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Microck/FrameScribe/internal/history"
	"github.com/Microck/FrameScribe/internal/timecode"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cmd.Context(), cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				size := run.PDFSize
				if run.CompressedSize > 0 {
					size = run.CompressedSize
				}
				sizeText := "-"
				if size > 0 {
					sizeText = humanize.IBytes(uint64(size))
				}
				rows = append(rows, []string{
					humanize.Time(run.FinishedAt),
					run.Title,
					run.State,
					strconv.Itoa(run.Frames),
					timecode.Caption(run.Interval),
					sizeText,
				})
			}
			headers := []string{"Finished", "Title", "State", "Frames", "Interval", "PDF"}
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}
