package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/presence"
	"github.com/Veraticus/bankctl/internal/state"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow users going online and offline",
		Long: `Connect to the presence service and print every status change until
interrupted. The command stops when the server logs this session out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				out := cmd.OutOrStdout()
				client, err := presence.New(presence.Options{
					Sessions: a.store,
					Logger:   slog.Default(),
					URL:      a.cfg.Services.PresenceURL,
					OnUpdate: printUpdate(out),
				})
				if err != nil {
					return err
				}

				err = client.Run(ctx)
				switch {
				case err == nil, errors.Is(err, context.Canceled) && ctx.Err() != nil:
					return nil
				case errors.Is(err, presence.ErrLoggedOut):
					for _, kind := range state.Kinds() {
						invalidate(ctx, a, kind)
					}
					fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Your session was ended by the server, log in again"))
					return nil
				case errors.Is(err, presence.ErrNoSession):
					return errors.New("not logged in, run bankctl login first")
				default:
					return err
				}
			})
		},
	}
}

// printUpdate returns an OnUpdate callback writing one line per change.
func printUpdate(w io.Writer) func(presence.Update) {
	var mu sync.Mutex
	return func(u presence.Update) {
		icon, word := cli.OfflineIcon, "offline"
		if u.Online {
			icon, word = cli.OnlineIcon, "online"
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s  %s user %d %s\n", u.At.Local().Format("15:04:05"), icon, u.UserID, word)
	}
}
