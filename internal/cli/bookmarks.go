package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/smartmark/internal/api"
	"github.com/MrSnakeDoc/smartmark/internal/client"
	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/session"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Save a bookmark; title, summary, category and tags are generated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.client()
			if err != nil {
				return err
			}

			resp, err := c.Create(cmd.Context(), args[0], title)
			if dup, ok := client.IsDuplicate(err); ok {
				return fmt.Errorf("already saved as %s (confidence %d%%)", dup.Body.ExistingBookmarkID, dup.Body.Confidence)
			}
			if err != nil {
				return err
			}

			if ctx.json {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(bookmarkHeaders, bookmarkRows([]*domain.Bookmark{resp.Bookmark}), nil))
			if resp.Bookmark.Summary != "" {
				fmt.Fprintln(out, resp.Bookmark.Summary)
			}
			if resp.Warning != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s\n", *resp.Warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title to keep instead of a generated one")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		search   string
		category string
		tag      string
		sortBy   string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List bookmarks with optional search and filters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if category != "" && !domain.Category(category).Valid() {
				return fmt.Errorf("unknown category %q", category)
			}

			c, err := ctx.client()
			if err != nil {
				return err
			}

			coll := session.NewCollection(c, ctx.logger())
			if err := coll.Refresh(cmd.Context()); err != nil {
				return err
			}
			// Filtering runs locally; the stats cover the whole list.
			resp := api.ListBookmarksResponse{
				Bookmarks: coll.View(domain.ListQuery{
					Search:   search,
					Category: domain.Category(category),
					Tag:      tag,
					Sort:     domain.ParseSortOrder(sortBy),
				}),
				Stats: coll.Stats(),
			}

			if ctx.json {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Bookmarks) == 0 {
				fmt.Fprintln(out, "No bookmarks found.")
			} else {
				fmt.Fprintln(out, renderTable(bookmarkHeaders, bookmarkRows(resp.Bookmarks), nil))
			}
			s := resp.Stats
			fmt.Fprintf(out, "%d bookmarks, %d categories, %d tags, %d this week\n",
				s.Total, s.Categories, s.Tags, s.ThisWeek)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&search, "query", "q", "", "Search in title, summary and URL")
	flags.StringVar(&category, "category", "", "Only this category")
	flags.StringVar(&tag, "tag", "", "Only bookmarks with this tag")
	flags.StringVar(&sortBy, "sort", "newest", "newest, oldest, alphabetical or category")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete bookmarks by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.client()
			if err != nil {
				return err
			}

			coll := session.NewCollection(c, ctx.logger())
			if err := coll.Refresh(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var errs []error
			for _, id := range args {
				if err := coll.Delete(cmd.Context(), id); err != nil {
					errs = append(errs, err)
					fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s not deleted, %d bookmarks restored from the server\n", id, coll.Len())
					continue
				}
				fmt.Fprintf(out, "Deleted %s\n", id)
			}
			fmt.Fprintf(out, "%d bookmarks left\n", coll.Len())
			return errors.Join(errs...)
		},
	}
}
