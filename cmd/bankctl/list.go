package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/notify"
	"github.com/Veraticus/bankctl/internal/state"
	"github.com/Veraticus/bankctl/internal/status"
)

// listFlags are shared by every list command.
type listFlags struct {
	output  string
	filters []string
	page    int
	take    int
	all     bool
	offline bool
}

func addListFlags(cmd *cobra.Command, f *listFlags) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page to show")
	cmd.Flags().IntVar(&f.take, "take", 0, "items per page (default: list.page_size)")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "filter as key=value (repeatable); keys ending in From or To are ranges")
	cmd.Flags().BoolVar(&f.all, "all", false, "fetch every page")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "show the last stored snapshot instead of fetching")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "output format (table, json, yaml)")
	cmd.MarkFlagsMutuallyExclusive("all", "offline")
}

// parseFilters turns key=value pairs into a filter map.
func parseFilters(pairs []string) (map[string]string, error) {
	filters := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=value", pair)
		}
		filters[k] = strings.TrimSpace(v)
	}
	return filters, nil
}

// listRequest describes one run of a list command.
type listRequest[T any] struct {
	fetcher listing.Fetcher[T]
	kind    state.ListKind
	columns []cli.Column[T]
	flags   listFlags
}

// runList loads the requested page (or every page, or a snapshot) through a
// listing controller and prints it.
func runList[T any](ctx context.Context, a *app, out, errOut io.Writer, req listRequest[T]) error {
	format, err := cli.ParseFormat(req.flags.output)
	if err != nil {
		return err
	}
	filters, err := parseFilters(req.flags.filters)
	if err != nil {
		return err
	}
	if req.flags.page < 1 {
		return fmt.Errorf("invalid page %d: pages start at 1", req.flags.page)
	}
	take := req.flags.take
	if take <= 0 {
		take = a.cfg.PageSize
	}

	store := state.NewStore()
	defer store.Close()

	ctrl := state.Register(store, req.kind, req.fetcher,
		listing.WithPageSize(take),
		listing.WithSnapshots(a.snapshots, string(req.kind)),
		listing.WithLogger(slog.Default()),
	)
	tracker := store.Tracker()
	op := req.kind.Operation()

	var items []T
	switch {
	case req.flags.offline:
		fetchedAt, err := ctrl.Restore(ctx, req.flags.page, filters)
		if err != nil {
			return err
		}
		fmt.Fprintln(errOut, cli.FormatInfo(fmt.Sprintf("showing %s page %d as of %s", req.kind, req.flags.page, fetchedAt.Local().Format("2006-01-02 15:04"))))
		items = ctrl.Items()

	case req.flags.all:
		progress := cli.NewProgress(errOut, "Fetching "+string(req.kind))
		ok := ctrl.LoadAll(ctx, filters, progress.Report)
		progress.Done()
		if !ok {
			return loadError(ctx, tracker, op, req.kind)
		}
		items = ctrl.Cache().AllItems()

	default:
		ctrl.Load(ctx, req.flags.page, filters, listing.LoadOptions{Initial: true})
		if !tracker.HasSucceeded(op, status.BucketInitial) {
			loadErr := loadError(ctx, tracker, op, req.kind)
			if ctx.Err() != nil {
				return loadErr
			}
			// Fall back to the last stored copy of the page, if any
			fetchedAt, err := ctrl.Restore(ctx, req.flags.page, filters)
			if err != nil {
				return loadErr
			}
			cli.WriterNotifier(errOut).Notify(notify.Notice{
				At:        time.Now(),
				Operation: op,
				Message:   fmt.Sprintf("%v, showing the copy from %s", loadErr, fetchedAt.Local().Format("2006-01-02 15:04")),
				Level:     notify.LevelWarn,
			})
		}
		items = ctrl.Items()
	}

	if err := cli.PrintList(out, format, req.columns, items); err != nil {
		return err
	}
	if format == cli.FormatTable && !req.flags.all {
		fmt.Fprintln(out, cli.PageFooter(ctrl.CurrentPage(), ctrl.TotalPages(), ctrl.Cache().TotalCount()))
	}
	return nil
}

// loadError turns the failure recorded for op into a command error.
func loadError(ctx context.Context, tracker *status.Tracker, op status.OperationID, kind state.ListKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, bucket := range []status.Bucket{status.BucketSubsequent, status.BucketInitial} {
		if info, ok := tracker.Error(op, bucket); ok {
			if info.StatusCode != 0 {
				return fmt.Errorf("failed to load %s (HTTP %d): %s", kind, info.StatusCode, info.Message)
			}
			return fmt.Errorf("failed to load %s: %s", kind, info.Message)
		}
	}
	return errors.New("failed to load " + string(kind))
}
