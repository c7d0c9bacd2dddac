package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/notify"
	"github.com/Veraticus/bankctl/internal/state"
	"github.com/Veraticus/bankctl/internal/tui"
	"github.com/Veraticus/bankctl/internal/tui/themes"
)

func browseCmd() *cobra.Command {
	var (
		filterPairs []string
		take        int
	)
	cmd := &cobra.Command{
		Use:   "browse <users|bills|consumers|receivers|locations|notifications>",
		Short: "Page through a list interactively",
		Long: `Open an interactive browser over one list. Use n and p to change pages,
r to retry a failed load, / to search the current page and q to quit. Pages
already seen are shown from memory while the next one loads.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := state.ParseKind(args[0])
			if err != nil {
				return err
			}
			filters, err := parseFilters(filterPairs)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				if take <= 0 {
					take = a.cfg.PageSize
				}
				b := browseSession{app: a, kind: kind, filters: filters, take: take}
				switch kind {
				case state.KindUsers:
					return browse(cmd.Context(), b, a.client.ListUsers, cli.UserColumns())
				case state.KindConsumers:
					return browse(cmd.Context(), b, a.client.ListConsumers, cli.ConsumerColumns())
				case state.KindReceivers:
					return browse(cmd.Context(), b, a.client.ListReceivers, cli.ReceiverColumns())
				case state.KindLocations:
					return browse(cmd.Context(), b, a.client.ListLocations, cli.LocationColumns())
				case state.KindNotifications:
					return browse(cmd.Context(), b, a.client.ListNotifications, cli.NotificationColumns())
				default:
					return browse(cmd.Context(), b, a.client.ListBills, cli.BillColumns(time.Now()))
				}
			})
		},
	}
	cmd.Flags().StringArrayVar(&filterPairs, "filter", nil, "filter as key=value (repeatable)")
	cmd.Flags().IntVar(&take, "take", 0, "items per page (default: list.page_size)")
	return cmd
}

type browseSession struct {
	app     *app
	filters map[string]string
	kind    state.ListKind
	take    int
}

func browse[T any](ctx context.Context, s browseSession, fetcher listing.Fetcher[T], columns []cli.Column[T]) error {
	store := state.NewStore()
	defer store.Close()

	center := notify.NewCenter(0)
	ctrl := state.Register(store, s.kind, fetcher,
		listing.WithPageSize(s.take),
		listing.WithNotifier(center),
		listing.WithSnapshots(s.app.snapshots, string(s.kind)),
		listing.WithLogger(slog.Default()),
	)

	theme := themes.Default
	b := tui.NewBrowser(ctx, ctrl, tui.Config[T]{
		Notices: center,
		Theme:   &theme,
		Filters: s.filters,
		Title:   title(s.kind),
		Columns: columns,
	})
	return tui.Run(ctx, b)
}

func title(kind state.ListKind) string {
	name := string(kind)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func kindNames() []string {
	kinds := state.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
