package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/bankctl/internal/api"
	"github.com/Veraticus/bankctl/internal/common"
	"github.com/Veraticus/bankctl/internal/config"
	"github.com/Veraticus/bankctl/internal/snapshot"
	"github.com/Veraticus/bankctl/internal/storage"
)

// app bundles what the commands need, built from the resolved configuration.
type app struct {
	cfg       *config.Config
	store     *storage.SQLiteStorage
	client    *api.Client
	snapshots snapshot.Store
	closers   []func() error
}

// newApp loads the configuration, opens the local database and builds the
// REST client and the snapshot backend.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store.SetSnapshotTTL(cfg.Cache.TTL)
	if n, err := store.PruneSnapshots(ctx); err != nil {
		slog.Warn("Failed to prune expired snapshots", "error", err)
	} else if n > 0 {
		slog.Debug("Pruned expired snapshots", "count", n)
	}

	a := &app{cfg: cfg, store: store, closers: []func() error{store.Close}}

	snapshots, closeSnapshots, err := openSnapshots(ctx, cfg, store)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.snapshots = snapshots
	if closeSnapshots != nil {
		a.closers = append(a.closers, closeSnapshots)
	}

	a.client, err = api.New(api.Config{
		Logger:          slog.Default(),
		UserURL:         cfg.Services.UserURL,
		BankURL:         cfg.Services.BankURL,
		NotificationURL: cfg.Services.NotificationURL,
		Timeout:         cfg.HTTPTimeout,
	}, store)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// openSnapshots picks the snapshot backend. The returned close function is
// nil when the backend needs no closing of its own.
func openSnapshots(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage) (snapshot.Store, func() error, error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return snapshot.None{}, nil, nil
	case config.CacheRedis:
		rs, err := snapshot.NewRedisStore(snapshot.RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			Prefix:   cfg.Cache.Redis.Prefix,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := rs.Ping(ctx); err != nil {
			slog.Warn("Redis snapshot cache unavailable, falling back to sqlite", "addr", cfg.Cache.Redis.Addr, "error", err)
			_ = rs.Close()
			return store, nil, nil
		}
		return rs, rs.Close, nil
	default:
		return store, nil, nil
	}
}

// Close releases everything newApp opened, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withApp runs fn with a freshly built app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			common.LogError(cerr, "Failed to close resources", nil)
		}
	}()
	return fn(a)
}
