package command

import (
	"context"
	"fmt"

	"comichub/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administration commands (admin role required)",
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard totals and daily views",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, true, func(ctx context.Context, c *client.HTTPClient) error {
			st, err := c.Stats(ctx)
			if err != nil {
				return err
			}
			field("Users", fmt.Sprint(st.Users))
			field("Comics", fmt.Sprint(st.Comics))
			field("Chapters", fmt.Sprint(st.Chapters))
			field("Views", fmt.Sprint(st.TotalViews))
			fmt.Println()
			for _, d := range st.Daily {
				fmt.Printf("%s  %d\n", d.Day, d.Count)
			}
			return nil
		})
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List user accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		return call(cmd, true, func(ctx context.Context, c *client.HTTPClient) error {
			res, err := c.Users(ctx, page)
			if err != nil {
				return err
			}
			for _, u := range res.Data {
				fmt.Printf("%-36s  %-28s  %-6s  ", u.ID, u.Email, u.Role)
				if u.Status == "locked" {
					warnColor.Println(u.StatusLabel)
				} else {
					fmt.Println(u.StatusLabel)
				}
			}
			pageFooter(res.Pagination.Page, res.Pagination.TotalPages, res.Pagination.Total)
			return nil
		})
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock <user-id>",
	Short: "Lock or unlock an account; without --status the status toggles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		return call(cmd, true, func(ctx context.Context, c *client.HTTPClient) error {
			u, err := c.SetUserStatus(ctx, args[0], status)
			if err != nil {
				return err
			}
			success("%s is now %s.", u.Email, u.StatusLabel)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(statsCmd, usersCmd, lockCmd)
	usersCmd.Flags().IntP("page", "p", 1, "page number")
	lockCmd.Flags().String("status", "", "active or locked")
}
