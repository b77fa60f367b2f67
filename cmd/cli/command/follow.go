package command

import (
	"context"

	"comichub/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

var followCmd = &cobra.Command{
	Use:   "follow",
	Short: "Manage followed comics",
}

var followAddCmd = &cobra.Command{
	Use:   "add <slug>",
	Short: "Follow a comic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, true, func(ctx context.Context, c *client.HTTPClient) error {
			f, err := c.Follow(ctx, args[0])
			if err != nil {
				return err
			}
			success("Following %s.", f.Title)
			return nil
		})
	},
}

var followRemoveCmd = &cobra.Command{
	Use:   "remove <slug>",
	Short: "Unfollow a comic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, true, func(ctx context.Context, c *client.HTTPClient) error {
			if err := c.Unfollow(ctx, args[0]); err != nil {
				return err
			}
			success("Unfollowed %s.", args[0])
			return nil
		})
	},
}

var followListCmd = &cobra.Command{
	Use:   "list",
	Short: "List followed comics",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		return call(cmd, true, func(ctx context.Context, c *client.HTTPClient) error {
			res, err := c.Follows(ctx, page)
			if err != nil {
				return err
			}
			if len(res.Items) == 0 {
				info("You are not following any comics.")
				return nil
			}
			for _, f := range res.Items {
				heading(f.Title)
				field("Slug", f.ComicSlug)
				field("Latest", f.LatestChapter)
				if f.LastReadAt != nil {
					field("Last read", f.LastReadAt.Local().Format("2006-01-02 15:04"))
				}
				rule()
			}
			pageFooter(res.Page, res.TotalPages, res.Total)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(followCmd)
	followCmd.AddCommand(followAddCmd, followRemoveCmd, followListCmd)
	followListCmd.Flags().IntP("page", "p", 1, "page number")
}
