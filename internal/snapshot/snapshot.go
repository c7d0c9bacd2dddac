// Package snapshot persists fetched list pages so they can be shown when the
// remote services are unreachable.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/Veraticus/bankctl/internal/common"
)

// Entry is one stored page of a list.
type Entry struct {
	FetchedAt  time.Time       `json:"fetchedAt"`
	Kind       string          `json:"kind"`
	FiltersKey string          `json:"filtersKey"`
	Items      json.RawMessage `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	Total      int             `json:"total"`
}

// Store saves and loads page snapshots.
type Store interface {
	SavePage(ctx context.Context, entry Entry) error
	// LoadPage returns an error wrapping common.ErrNotFound on a miss.
	LoadPage(ctx context.Context, kind, filtersKey string, page int) (Entry, error)
	InvalidateKind(ctx context.Context, kind string) error
}

// FiltersKey builds a stable key for a filter set. Keys are sorted, so two
// maps with the same contents always produce the same key.
func FiltersKey(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}
	v := url.Values{}
	for k, val := range filters {
		v.Set(k, val)
	}
	return v.Encode()
}

// Encode marshals page items for storage.
func Encode[T any](items []T) (json.RawMessage, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot items: %w", err)
	}
	return data, nil
}

// Decode unmarshals items stored by Encode.
func Decode[T any](raw json.RawMessage) ([]T, error) {
	items := []T{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot items: %w", err)
	}
	return items, nil
}

func notFound(kind, filtersKey string, page int) error {
	return fmt.Errorf("%w: snapshot %s[%s] page %d", common.ErrNotFound, kind, filtersKey, page)
}

// None stores nothing. It backs cache.backend "none".
type None struct{}

// SavePage discards the entry.
func (None) SavePage(context.Context, Entry) error { return nil }

// LoadPage always misses.
func (None) LoadPage(_ context.Context, kind, filtersKey string, page int) (Entry, error) {
	return Entry{}, notFound(kind, filtersKey, page)
}

// InvalidateKind does nothing.
func (None) InvalidateKind(context.Context, string) error { return nil }

type memKey struct {
	kind       string
	filtersKey string
	page       int
}

// Memory keeps snapshots in process memory.
type Memory struct {
	entries map[memKey]Entry
	mu      sync.RWMutex
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[memKey]Entry)}
}

// SavePage stores entry, replacing any earlier snapshot of the same page.
func (m *Memory) SavePage(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memKey{entry.Kind, entry.FiltersKey, entry.Page}] = entry
	return nil
}

// LoadPage returns the stored snapshot.
func (m *Memory) LoadPage(_ context.Context, kind, filtersKey string, page int) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[memKey{kind, filtersKey, page}]
	if !ok {
		return Entry{}, notFound(kind, filtersKey, page)
	}
	return entry, nil
}

// InvalidateKind removes every snapshot of kind.
func (m *Memory) InvalidateKind(_ context.Context, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if k.kind == kind {
			delete(m.entries, k)
		}
	}
	return nil
}
