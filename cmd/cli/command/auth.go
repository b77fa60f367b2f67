package command

import (
	"context"
	"fmt"

	"comichub/cmd/cli/authentication"
	"comichub/cmd/cli/command/client"
	"comichub/internal/microservices/http-api/dto"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.RegisterRequest
		req.DisplayName, _ = cmd.Flags().GetString("name")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")

		return call(cmd, false, func(ctx context.Context, c *client.HTTPClient) error {
			user, err := c.Register(ctx, req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			success("Account created for %s. Run 'comichub login' to continue.", user.Email)
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session in the OS keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		return call(cmd, false, func(ctx context.Context, c *client.HTTPClient) error {
			resp, err := c.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			role := ""
			if resp.User != nil {
				role = resp.User.Role
			}
			if err := saveSession(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn, email, role); err != nil {
				return fmt.Errorf("store session: %w", err)
			}
			success("Logged in as %s", email)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session and forget stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if err != nil {
			info("Not logged in.")
			return nil
		}
		// the server always accepts logout; a network failure still clears local state
		_ = call(cmd, false, func(ctx context.Context, c *client.HTTPClient) error {
			return c.Logout(ctx, creds.RefreshToken)
		})
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		success("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, true, func(ctx context.Context, c *client.HTTPClient) error {
			me, err := c.Me(ctx)
			if err != nil {
				return err
			}
			field("Name", me.DisplayName)
			field("Email", me.Email)
			field("Role", me.Role)
			field("Status", me.StatusLabel)
			if me.LastLogin != nil {
				field("Last login", me.LastLogin.Local().Format("2006-01-02 15:04"))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)

	registerCmd.Flags().StringP("name", "n", "", "display name")
	registerCmd.Flags().StringP("email", "e", "", "email address")
	registerCmd.Flags().StringP("password", "p", "", "password")
	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringP("email", "e", "", "email address")
	loginCmd.Flags().StringP("password", "p", "", "password")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")
}
