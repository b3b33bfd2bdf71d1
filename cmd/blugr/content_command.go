package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"blugr/internal/docstore"
)

func newContentCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "content <content-id>",
		Short: "Show a processed content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Content(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			printContentItem(cmd, resp.Item)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func printContentItem(cmd *cobra.Command, item docstore.Item) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Content:  %s\n", item.ContentID)
	fmt.Fprintf(out, "Source:   %s\n", item.SourceURL)
	fmt.Fprintf(out, "Status:   %s\n", item.Status)
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    %s\n", item.ErrorMessage)
	}

	if item.Summary != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Title: %s\n", item.Summary.Title)
		if item.Summary.Fallback {
			fmt.Fprintln(out, "(fallback summary; structured generation failed)")
		}
		fmt.Fprintf(out, "%s\n", item.Summary.Description)
		for _, section := range item.Summary.Sections {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "## %s\n", section.Heading)
			fmt.Fprintln(out, section.Body)
		}
	}

	if len(item.SearchResults) > 0 {
		fmt.Fprintln(out)
		headers := []string{"Heading", "Best Match", "Span", "Score"}
		aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}
		rows := make([][]string, 0, len(item.SearchResults))
		for _, result := range item.SearchResults {
			if len(result.Matches) == 0 {
				rows = append(rows, []string{truncate(result.Heading, 40), "-", "-", "-"})
				continue
			}
			best := result.Matches[0]
			rows = append(rows, []string{
				truncate(result.Heading, 40),
				truncate(best.Text, 48),
				fmt.Sprintf("%.1fs-%.1fs", best.Start, best.End),
				fmt.Sprintf("%.3f", best.Score),
			})
		}
		fmt.Fprintln(out, renderTable(headers, rows, aligns))
	}

	if len(item.MediaURLs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Media:")
		keys := make([]string, 0, len(item.MediaURLs))
		for key := range item.MediaURLs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(out, "  %s: %s\n", key, item.MediaURLs[key])
		}
	}
}
