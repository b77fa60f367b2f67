package command

import (
	"context"
	"fmt"

	"comichub/cmd/cli/authentication"
	"comichub/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Reading history of this device or the signed-in account",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently read comics, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetBool("account")
		page, _ := cmd.Flags().GetInt("page")

		return call(cmd, account, func(ctx context.Context, c *client.HTTPClient) error {
			res, err := c.History(ctx, account, page)
			if err != nil {
				return err
			}
			if len(res.Items) == 0 {
				info("No reading history yet.")
				return nil
			}
			for _, it := range res.Items {
				heading(it.Title)
				field("Slug", it.Slug)
				field("Last read", it.Chapter)
				field("Read", fmt.Sprintf("%d chapters", len(it.ChaptersRead)))
				field("At", it.ReadAt.Local().Format("2006-01-02 15:04"))
				rule()
			}
			pageFooter(res.Page, res.TotalPages, int64(res.Total))
			return nil
		})
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <slug>",
	Short: "Remove a comic from history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetBool("account")
		return call(cmd, account, func(ctx context.Context, c *client.HTTPClient) error {
			if err := c.RemoveHistory(ctx, account, args[0]); err != nil {
				return err
			}
			success("Removed %s from history.", args[0])
			return nil
		})
	},
}

var historySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge this device's history into the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, true, func(ctx context.Context, c *client.HTTPClient) error {
			n, err := c.SyncHistory(ctx)
			if err != nil {
				return err
			}
			success("Merged %d comics into your account history.", n)
			return nil
		})
	},
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Print the device id used for anonymous history",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := authentication.DeviceID()
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyRemoveCmd, historySyncCmd, deviceCmd)

	for _, c := range []*cobra.Command{historyListCmd, historyRemoveCmd} {
		c.Flags().BoolP("account", "a", false, "use the account history instead of the device history")
	}
	historyListCmd.Flags().IntP("page", "p", 1, "page number")
}
