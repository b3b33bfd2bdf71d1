package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"blugr/internal/api"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "tasks [task-id]",
		Short: "List background tasks or show one task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				view, err := ctx.client().Task(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, view)
				}
				printTaskDetail(cmd, view)
				return nil
			}

			resp, err := ctx.client().Tasks()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			if len(resp.Tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTaskTable(resp.Tasks))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func renderTaskTable(views []api.TaskView) string {
	headers := []string{"Task", "Descriptor", "Status", "Progress", "Elapsed", "Remaining"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}

	rows := make([][]string, 0, len(views))
	for _, view := range views {
		rows = append(rows, []string{
			shortID(view.TaskID),
			truncate(view.Descriptor, 48),
			view.Status,
			fmt.Sprintf("%.0f%%", view.Progress),
			formatSecondsValue(view.ElapsedSeconds),
			formatRemaining(view),
		})
	}
	return renderTable(headers, rows, aligns)
}

func printTaskDetail(cmd *cobra.Command, view api.TaskView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Task:       %s\n", view.TaskID)
	fmt.Fprintf(out, "Descriptor: %s\n", view.Descriptor)
	fmt.Fprintf(out, "Status:     %s\n", view.Status)
	fmt.Fprintf(out, "Progress:   %.0f%%\n", view.Progress)
	fmt.Fprintf(out, "Started:    %s\n", view.StartTime.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "Elapsed:    %s\n", formatSecondsValue(view.ElapsedSeconds))
	if remaining := formatRemaining(view); remaining != "-" {
		fmt.Fprintf(out, "Remaining:  %s\n", remaining)
	}
	if view.Result != "" {
		fmt.Fprintf(out, "Result:     %s\n", view.Result)
	}
	if view.Error != "" {
		fmt.Fprintf(out, "Error:      %s\n", view.Error)
	}
}

func formatRemaining(view api.TaskView) string {
	if view.Status != "processing" || view.RemainingSeconds <= 0 {
		return "-"
	}
	return formatSecondsValue(view.RemainingSeconds)
}

func formatSecondsValue(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return strings.TrimSpace(value[:limit-3]) + "..."
}
