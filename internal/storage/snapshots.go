package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/bankctl/internal/common"
	"github.com/Veraticus/bankctl/internal/snapshot"
)

// SavePage stores a page snapshot, replacing any earlier one.
func (s *SQLiteStorage) SavePage(ctx context.Context, entry snapshot.Entry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(entry); err != nil {
		return err
	}
	fetchedAt := entry.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.now()
	}
	items := string(entry.Items)
	if items == "" {
		items = "[]"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO page_snapshots
			(list_kind, filters_key, page, page_size, total, items, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Kind, entry.FiltersKey, entry.Page, entry.PageSize, entry.Total, items, fetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadPage returns a stored snapshot. Snapshots older than the configured
// TTL are reported as missing.
func (s *SQLiteStorage) LoadPage(ctx context.Context, kind, filtersKey string, page int) (snapshot.Entry, error) {
	if err := validateContext(ctx); err != nil {
		return snapshot.Entry{}, err
	}
	if err := validateString(kind, "kind"); err != nil {
		return snapshot.Entry{}, err
	}

	entry := snapshot.Entry{Kind: kind, FiltersKey: filtersKey, Page: page}
	var items string
	err := s.db.QueryRowContext(ctx, `
		SELECT page_size, total, items, fetched_at
		FROM page_snapshots
		WHERE list_kind = ? AND filters_key = ? AND page = ?
	`, kind, filtersKey, page).Scan(&entry.PageSize, &entry.Total, &items, &entry.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Entry{}, fmt.Errorf("snapshot %s page %d: %w", kind, page, common.ErrNotFound)
	}
	if err != nil {
		return snapshot.Entry{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if s.snapshotTTL > 0 && s.now().Sub(entry.FetchedAt) > s.snapshotTTL {
		return snapshot.Entry{}, fmt.Errorf("snapshot %s page %d expired: %w", kind, page, common.ErrNotFound)
	}
	entry.Items = []byte(items)
	return entry, nil
}

// InvalidateKind deletes every snapshot of kind.
func (s *SQLiteStorage) InvalidateKind(ctx context.Context, kind string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(kind, "kind"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM page_snapshots WHERE list_kind = ?`, kind); err != nil {
		return fmt.Errorf("failed to invalidate snapshots: %w", err)
	}
	return nil
}

// PruneSnapshots deletes snapshots older than the TTL and returns how many
// were removed.
func (s *SQLiteStorage) PruneSnapshots(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if s.snapshotTTL <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM page_snapshots WHERE fetched_at < ?`,
		s.now().Add(-s.snapshotTTL).UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return res.RowsAffected()
}
