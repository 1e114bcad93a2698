package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/smartmark/internal/client"
	"github.com/MrSnakeDoc/smartmark/internal/scheduler"
	"github.com/MrSnakeDoc/smartmark/internal/sources/homepage"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <bookmarks.yaml>",
		Short: "Save every link of a Homepage bookmarks.yaml or services.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := homepage.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if dryRun {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.Group, e.Title, e.URL})
				}
				fmt.Fprintln(out, renderTable([]string{"Group", "Title", "URL"}, rows, nil))
				return nil
			}

			c, err := ctx.client()
			if err != nil {
				return err
			}

			counts := map[string]int{}
			for _, e := range entries {
				outcome := importOne(cmd, c, e)
				counts[outcome]++
			}

			if ctx.json {
				return writeJSON(cmd, counts)
			}
			rows := [][]string{}
			for _, o := range []string{scheduler.OutcomeImported, scheduler.OutcomeDuplicate, scheduler.OutcomeRejected, scheduler.OutcomeFailed} {
				rows = append(rows, []string{o, strconv.Itoa(counts[o])})
			}
			fmt.Fprintln(out, renderTable([]string{"Outcome", "Entries"}, rows, []columnAlignment{alignLeft, alignRight}))
			if counts[scheduler.OutcomeFailed] > 0 {
				return fmt.Errorf("%d entries failed", counts[scheduler.OutcomeFailed])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only print the entries found in the file")
	return cmd
}

func importOne(cmd *cobra.Command, c *client.Client, e homepage.Entry) string {
	_, err := c.Create(cmd.Context(), e.URL, e.Title)
	if err == nil {
		return scheduler.OutcomeImported
	}
	if _, ok := client.IsDuplicate(err); ok {
		return scheduler.OutcomeDuplicate
	}
	var apiErr *client.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", e.URL, apiErr.Body.Error)
		return scheduler.OutcomeRejected
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", e.URL, err)
	return scheduler.OutcomeFailed
}
