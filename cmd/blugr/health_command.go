package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check daemon health",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			resp, err := ctx.client().Health()
			if err != nil {
				if jsonOut {
					return err
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", statusError, err.Error(), colorize))
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}

			fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, resp.Status, colorize))
			load := fmt.Sprintf("%d of %d task slots in use", resp.ActiveTasks, resp.TaskCeiling)
			kind := statusOK
			if resp.ActiveTasks >= resp.TaskCeiling {
				kind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Tasks", kind, load, colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
