package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/state"
)

func loginCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the user service",
		Long: `Log in with a username and password. The session token is stored in the
local database and used by every other command until it expires or you log out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				p := newPrompter(cmd)
				if strings.TrimSpace(username) == "" {
					var err error
					if username, err = p.Line(ctx, "username"); err != nil {
						return err
					}
				}
				password, err := p.Secret(ctx, "password")
				if err != nil {
					return err
				}

				session, err := a.client.Login(ctx, username, password)
				if err != nil {
					return err
				}
				msg := "Logged in as " + session.Username
				if !session.ExpiresAt.IsZero() {
					msg += ", session expires " + session.ExpiresAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(msg))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted for when empty)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session and cached pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if err := a.client.Logout(ctx); err != nil {
					return err
				}
				for _, kind := range state.Kinds() {
					invalidate(ctx, a, kind)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Logged out"))
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				session, err := a.client.CurrentSession(cmd.Context())
				if err != nil {
					return err
				}
				format, err := cli.ParseFormat(output)
				if err != nil {
					return err
				}
				view := struct {
					Username  string `json:"username" yaml:"username"`
					ExpiresAt string `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
					UserID    int    `json:"userId" yaml:"userId"`
				}{Username: session.Username, UserID: session.UserID}
				if !session.ExpiresAt.IsZero() {
					view.ExpiresAt = session.ExpiresAt.Format(time.RFC3339)
				}
				return cli.PrintValue(cmd.OutOrStdout(), format, view, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s (id %d)\n", session.Username, session.UserID)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json, yaml)")
	return cmd
}
