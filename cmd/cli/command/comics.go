package command

import (
	"context"
	"fmt"
	"strings"

	"comichub/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

var comicsCmd = &cobra.Command{
	Use:   "comics",
	Short: "Browse the catalog",
}

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search comics by title with optional filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		var p client.SearchParams
		p.Keyword = strings.Join(args, " ")
		p.Category, _ = cmd.Flags().GetString("category")
		p.Status, _ = cmd.Flags().GetString("status")
		p.Sort, _ = cmd.Flags().GetInt("sort")
		p.Page, _ = cmd.Flags().GetInt("page")

		return call(cmd, false, func(ctx context.Context, c *client.HTTPClient) error {
			res, err := c.Search(ctx, p)
			if err != nil {
				return err
			}
			if len(res.Result.Items) == 0 {
				info("No comics found.")
				return nil
			}
			for _, e := range res.Result.Items {
				heading(e.Title)
				field("Slug", e.Slug)
				field("Status", e.Status)
				field("Categories", strings.Join(e.Categories, ", "))
				field("Chapters", fmt.Sprint(e.ChapterCount))
				field("Followers", fmt.Sprint(e.Followers))
				field("Views", fmt.Sprint(e.Views))
				rule()
			}
			pageFooter(res.Result.Page, res.Result.TotalPages, int64(res.Result.Total))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a comic with its chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, false, func(ctx context.Context, c *client.HTTPClient) error {
			d, err := c.Comic(ctx, args[0])
			if err != nil {
				return err
			}
			heading(d.Comic.Title)
			field("Other name", d.Comic.OtherName)
			field("Author", d.Comic.Author)
			field("Status", d.Comic.Status)
			field("Updated", d.UpdatedLabel)
			names := make([]string, 0, len(d.Categories))
			for _, cat := range d.Categories {
				names = append(names, cat.Name)
			}
			field("Categories", strings.Join(names, ", "))
			field("Followers", fmt.Sprint(d.Followers))
			field("Views", fmt.Sprint(d.Views))
			if d.IsFollowed {
				field("Following", "yes")
			}
			if d.LastRead != nil {
				field("Last read", d.LastRead.Chapter)
			}
			if d.Comic.Description != "" {
				fmt.Println()
				fmt.Println(d.Comic.Description)
			}
			fmt.Println()

			read := make(map[string]bool, len(d.ReadChapters))
			for _, t := range d.ReadChapters {
				read[t] = true
			}
			for _, ch := range d.Chapters {
				line := fmt.Sprintf("%-16s %-14s %d views", ch.Title, ch.Slug, ch.Views)
				if read[ch.Title] {
					dimColor.Println(line)
				} else {
					fmt.Println(line)
				}
			}
			return nil
		})
	},
}

var readCmd = &cobra.Command{
	Use:   "read <slug> <chapter-slug>",
	Short: "Print a chapter's page URLs and record the read",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, false, func(ctx context.Context, c *client.HTTPClient) error {
			view, err := c.Chapter(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			heading(view.ComicTitle + " - " + view.Chapter.Title)
			for i, img := range view.Images {
				fmt.Printf("%3d  %s\n", i+1, img)
			}
			field("Prev", view.Prev)
			field("Next", view.Next)

			if _, err := c.RecordRead(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("record read: %w", err)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(comicsCmd, readCmd)
	comicsCmd.AddCommand(searchCmd, showCmd)

	searchCmd.Flags().StringP("category", "c", "", "category slug")
	searchCmd.Flags().StringP("status", "s", "", "status filter: 1 finished, 2 ongoing")
	searchCmd.Flags().Int("sort", 0, "1 updated, 2 follows, 3 chapters, 4 top follow, 5 views")
	searchCmd.Flags().IntP("page", "p", 1, "page number")
}
