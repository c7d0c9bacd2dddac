package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/model"
	"github.com/Veraticus/bankctl/internal/state"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notification", "notes"},
		Short:   "Read notifications",
	}

	var flags listFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return runList(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr(), listRequest[model.Notification]{
					fetcher: a.client.ListNotifications,
					kind:    state.KindNotifications,
					columns: cli.NotificationColumns(),
					flags:   flags,
				})
			})
		},
	}
	addListFlags(listCmd, &flags)

	readCmd := &cobra.Command{
		Use:   "read <id>...",
		Short: "Mark notifications as read",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, len(args))
			for i, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				for _, id := range ids {
					if err := a.client.MarkNotificationRead(ctx, id); err != nil {
						return fmt.Errorf("failed to mark notification %d read: %w", id, err)
					}
				}
				invalidate(ctx, a, state.KindNotifications)
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Marked %d notification(s) read", len(ids))))
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(readCmd)
	return cmd
}
