package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Microck/FrameScribe/internal/deps"
	"github.com/Microck/FrameScribe/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools FrameScribe runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				switch {
				case !status.Available && status.Optional:
					state = "missing (optional)"
				case !status.Available:
					state = "missing"
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Description
				}
				rows = append(rows, []string{status.Name, status.Command, state, detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Status", "Detail"}, rows, nil))
			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return nil
		},
	}
}
