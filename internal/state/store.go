// Package state holds the application's shared request state: one status
// tracker and one list controller per list kind.
package state

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/status"
)

// ListKind names a list screen.
type ListKind string

// List kinds.
const (
	KindUsers         ListKind = "users"
	KindBills         ListKind = "bills"
	KindConsumers     ListKind = "consumers"
	KindReceivers     ListKind = "receivers"
	KindLocations     ListKind = "locations"
	KindNotifications ListKind = "notifications"
)

// Kinds lists every known list kind.
func Kinds() []ListKind {
	return []ListKind{KindUsers, KindBills, KindConsumers, KindReceivers, KindLocations, KindNotifications}
}

// Operation returns the tracked operation of a list kind.
func (k ListKind) Operation() status.OperationID {
	switch k {
	case KindUsers:
		return status.OpListUsers
	case KindBills:
		return status.OpListBills
	case KindConsumers:
		return status.OpListConsumers
	case KindReceivers:
		return status.OpListReceivers
	case KindLocations:
		return status.OpListLocations
	case KindNotifications:
		return status.OpListNotifications
	default:
		return status.OperationID(string(k) + ".list")
	}
}

// ParseKind validates a list kind name.
func ParseKind(s string) (ListKind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	if suggestion := closestKind(s); suggestion != "" {
		return "", fmt.Errorf("unknown list %q, did you mean %q?", s, suggestion)
	}
	return "", fmt.Errorf("unknown list %q", s)
}

// closestKind returns the kind name nearest to s, or "" when nothing is close.
func closestKind(s string) string {
	names := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		names = append(names, string(k))
	}
	ranks := fuzzy.RankFindNormalizedFold(s, names)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// controller is the type-erased part of listing.Controller.
type controller interface {
	Reset()
	Close()
}

// Store is the state container passed to everything that renders lists.
type Store struct {
	tracker     *status.Tracker
	controllers map[ListKind]controller
	mu          sync.RWMutex
}

// NewStore creates an empty store with a fresh tracker.
func NewStore() *Store {
	return &Store{
		tracker:     status.NewTracker(),
		controllers: make(map[ListKind]controller),
	}
}

// Tracker returns the shared tracker.
func (s *Store) Tracker() *status.Tracker {
	return s.tracker
}

// Register creates the controller for kind. Registering a kind twice
// closes and replaces the earlier controller.
func Register[T any](s *Store, kind ListKind, fetcher listing.Fetcher[T], opts ...listing.Option) *listing.Controller[T] {
	c := listing.New(kind.Operation(), fetcher, s.tracker, opts...)

	s.mu.Lock()
	old := s.controllers[kind]
	s.controllers[kind] = c
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return c
}

// Controller returns the controller registered for kind.
func Controller[T any](s *Store, kind ListKind) (*listing.Controller[T], error) {
	s.mu.RLock()
	c, ok := s.controllers[kind]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no controller registered for %s", kind)
	}
	typed, ok := c.(*listing.Controller[T])
	if !ok {
		return nil, fmt.Errorf("controller for %s has item type %T", kind, c)
	}
	return typed, nil
}

// Registered returns the registered kinds in name order.
func (s *Store) Registered() []ListKind {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kinds := make([]ListKind, 0, len(s.controllers))
	for k := range s.controllers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ClearState forgets every request outcome and cached page, as when the
// user navigates away from all screens.
func (s *Store) ClearState() {
	s.mu.RLock()
	for _, c := range s.controllers {
		c.Reset()
	}
	s.mu.RUnlock()

	s.tracker.Clear()
}

// Close closes every controller.
func (s *Store) Close() {
	s.mu.Lock()
	controllers := s.controllers
	s.controllers = make(map[ListKind]controller)
	s.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
}
