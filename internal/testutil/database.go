// Package testutil provides shared test fixtures backed by the real storage
// layer.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/bankctl/internal/model"
	"github.com/Veraticus/bankctl/internal/snapshot"
	"github.com/Veraticus/bankctl/internal/storage"
)

// TestDB is a migrated in-memory database that is closed when the test ends.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions seeds a TestDB.
type TestDBOptions struct {
	Session     *model.Session
	Snapshots   []snapshot.Entry
	FormValues  map[string]map[string]string
	SnapshotTTL time.Duration
}

// SetupTestDB creates an empty in-memory database.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates an in-memory database seeded from opts.
//
// Example:
//
//	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
//		Session: &model.Session{Token: "t", UserID: 1, Username: "ana"},
//	})
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	s, err := storage.Open(context.Background(), storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	s.SetSnapshotTTL(opts.SnapshotTTL)

	db := &TestDB{Storage: s, t: t}
	if opts.Session != nil {
		db.LogIn(*opts.Session)
	}
	for _, entry := range opts.Snapshots {
		db.SaveSnapshot(entry)
	}
	for form, values := range opts.FormValues {
		if err := s.SaveFormValues(context.Background(), form, values); err != nil {
			t.Fatalf("failed to seed form %q: %v", form, err)
		}
	}
	return db
}

// LogIn stores session as the current session.
func (db *TestDB) LogIn(session model.Session) {
	db.t.Helper()
	if err := db.Storage.SaveSession(context.Background(), session); err != nil {
		db.t.Fatalf("failed to seed session: %v", err)
	}
}

// SaveSnapshot stores entry, filling in FetchedAt when unset.
func (db *TestDB) SaveSnapshot(entry snapshot.Entry) {
	db.t.Helper()
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now()
	}
	if err := db.Storage.SavePage(context.Background(), entry); err != nil {
		db.t.Fatalf("failed to seed snapshot %s page %d: %v", entry.Kind, entry.Page, err)
	}
}
