// Package pagecache stores fetched pages of a server-side list together with
// the page size and the authoritative total reported by the server.
package pagecache

import (
	"sort"
	"sync"
)

// Cache holds pages keyed by their 1-based page number.
//
// The cache never invalidates itself when the filters behind a list change;
// callers Reset it before loading page 1 for new filters.
type Cache[T any] struct {
	pages      map[int][]T
	pageSize   int
	totalCount int
	mu         sync.RWMutex
}

// New creates an empty cache for pages of pageSize items.
func New[T any](pageSize int) *Cache[T] {
	return &Cache[T]{
		pages:    make(map[int][]T),
		pageSize: pageSize,
	}
}

// SetPage stores or overwrites the items of a page.
func (c *Cache[T]) SetPage(page int, items []T) {
	stored := make([]T, len(items))
	copy(stored, items)

	c.mu.Lock()
	c.pages[page] = stored
	c.mu.Unlock()
}

// AppendPage stores a page fetched while accumulating an infinite-scroll
// view. Each page keeps its own key; slices are never merged.
func (c *Cache[T]) AppendPage(page int, items []T) {
	c.SetPage(page, items)
}

// SetTotalCount overwrites the server-reported item count.
func (c *Cache[T]) SetTotalCount(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.totalCount = n
	c.mu.Unlock()
}

// ItemsForPage returns a copy of the cached items, or an empty slice if the
// page is not cached.
func (c *Cache[T]) ItemsForPage(page int) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, ok := c.pages[page]
	if !ok {
		return []T{}
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// PageCount returns ceil(totalCount / pageSize). An unknown page size
// (<= 0) yields 0.
func (c *Cache[T]) PageCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.pageSize <= 0 || c.totalCount <= 0 {
		return 0
	}
	return (c.totalCount + c.pageSize - 1) / c.pageSize
}

// IsEmpty reports whether the server has no items, regardless of what is cached.
func (c *Cache[T]) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalCount <= 0
}

// HasPage reports whether page is cached.
func (c *Cache[T]) HasPage(page int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.pages[page]
	return ok
}

// TotalCount returns the last server-reported count.
func (c *Cache[T]) TotalCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalCount
}

// PageSize returns the declared page size.
func (c *Cache[T]) PageSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pageSize
}

// SetPageSize changes the declared page size. Pages already cached were
// fetched with the old size; callers normally Reset as well.
func (c *Cache[T]) SetPageSize(n int) {
	c.mu.Lock()
	c.pageSize = n
	c.mu.Unlock()
}

// Pages returns the cached page numbers in ascending order.
func (c *Cache[T]) Pages() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	nums := make([]int, 0, len(c.pages))
	for n := range c.pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// AllItems concatenates every cached page in page order.
func (c *Cache[T]) AllItems() []T {
	pages := c.Pages()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var all []T
	for _, n := range pages {
		all = append(all, c.pages[n]...)
	}
	if all == nil {
		return []T{}
	}
	return all
}

// Reset drops every cached page and the total count. The page size is kept.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	c.pages = make(map[int][]T)
	c.totalCount = 0
	c.mu.Unlock()
}
