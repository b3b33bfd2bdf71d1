package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "process <url>",
		Short: "Submit a video URL for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceURL := strings.TrimSpace(args[0])
			if sourceURL == "" {
				return fmt.Errorf("url must not be empty")
			}

			resp, err := ctx.client().Process(sourceURL)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Accepted: task %s\n", resp.TaskID)
			fmt.Fprintf(out, "Track it with `blugr tasks %s`\n", resp.TaskID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
