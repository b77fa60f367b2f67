package command

// root.go defines the root command and the plumbing shared by subcommands.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"comichub/cmd/cli/authentication"
	"comichub/cmd/cli/command/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	apiURL  string // global flag for the API base URL
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "comichub",
	Short: "comichub - command line client for the comic API",
	Long: `comichub talks to the comic API. Use it to:
- search comics and read chapters
- keep and sync reading history
- follow comics
- run admin tasks (stats, user locking)`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("COMICHUB_API", "http://localhost:8080/api/v1"), "API base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// newClient builds a client carrying the device id and, when present, the
// stored access token.
func newClient() (*client.HTTPClient, *authentication.StoredCredentials, error) {
	c := client.NewHTTPClient(apiURL)
	if id, err := authentication.DeviceID(); err == nil {
		c.SetDeviceID(id)
	}
	creds, err := authentication.GetTokens()
	if err != nil {
		if errors.Is(err, authentication.ErrNotLoggedIn) {
			return c, nil, nil
		}
		return nil, nil, err
	}
	c.SetToken(creds.AccessToken)
	return c, creds, nil
}

// call runs fn once, and again after a token refresh when the server
// answers 401 and a refresh token is stored. requireLogin fails fast when
// there are no credentials.
func call(cmd *cobra.Command, requireLogin bool, fn func(ctx context.Context, c *client.HTTPClient) error) error {
	c, creds, err := newClient()
	if err != nil {
		return err
	}
	if requireLogin && creds == nil {
		return authentication.ErrNotLoggedIn
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	err = fn(ctx, c)
	if err == nil || !client.IsUnauthorized(err) || creds == nil || creds.RefreshToken == "" {
		return err
	}

	resp, rerr := c.Refresh(ctx, creds.RefreshToken)
	if rerr != nil {
		_ = authentication.DeleteTokens()
		return fmt.Errorf("session expired, please log in again: %w", rerr)
	}
	if err := saveSession(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn, creds.Email, creds.Role); err != nil {
		return err
	}
	c.SetToken(resp.AccessToken)
	return fn(ctx, c)
}

func saveSession(access, refresh string, expiresIn int64, email, role string) error {
	return authentication.StoreTokens(&authentication.StoredCredentials{
		AccessToken:  access,
		RefreshToken: refresh,
		Email:        email,
		Role:         role,
		ExpiresAt:    time.Now().Add(time.Duration(expiresIn) * time.Second).Unix(),
	})
}
