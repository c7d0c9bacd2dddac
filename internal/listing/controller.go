// Package listing drives paginated fetches of remote lists and keeps the
// status tracker and page cache consistent with what was fetched.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/Veraticus/bankctl/internal/notify"
	"github.com/Veraticus/bankctl/internal/pagecache"
	"github.com/Veraticus/bankctl/internal/snapshot"
	"github.com/Veraticus/bankctl/internal/status"
)

// DefaultPageSize is used when no page size option is given.
const DefaultPageSize = 10

// ErrNoSnapshots is returned by Restore when no snapshot store is configured.
var ErrNoSnapshots = errors.New("no snapshot store configured")

// Query is what a Fetcher is asked for. Filters are opaque to the controller.
type Query struct {
	Filters  map[string]string
	Page     int
	PageSize int
}

// Page is one page of results plus the server's total item count.
type Page[T any] struct {
	Items []T
	Total int
}

// Fetcher loads one page of a remote list.
type Fetcher[T any] func(ctx context.Context, q Query) (Page[T], error)

// LoadOptions distinguishes a screen's first fetch from later interactive
// ones, and page replacement from infinite-scroll accumulation.
type LoadOptions struct {
	Initial bool
	Append  bool
}

func (o LoadOptions) bucket() status.Bucket {
	if o.Initial {
		return status.BucketInitial
	}
	return status.BucketSubsequent
}

type options struct {
	notifier  notify.Notifier
	snapshots snapshot.Store
	logger    *slog.Logger
	kind      string
	pageSize  int
}

// Option configures a Controller.
type Option func(*options)

// WithPageSize sets the page size sent with every query.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithNotifier sets where load failures are announced.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithSnapshots saves every successfully fetched page to store under kind.
func WithSnapshots(store snapshot.Store, kind string) Option {
	return func(o *options) {
		o.snapshots = store
		o.kind = kind
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// noBucket is passed to supersedeLocked when no load follows.
const noBucket status.Bucket = -1

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSucceeded
	outcomeFailed
	outcomeDropped
)

// run is one issued load.
type run struct {
	ctx        context.Context
	cancel     context.CancelFunc
	filters    map[string]string
	generation uint64
	page       int
	prevPage   int
	opts       LoadOptions
}

// Controller fetches pages of one list.
//
// Every load gets its own cancellable context. Issuing a load for another
// page cancels the one in flight, and a superseded response never touches
// the cache, the tracker or the current page: the last issued load wins.
type Controller[T any] struct {
	fetch       Fetcher[T]
	tracker     *status.Tracker
	cache       *pagecache.Cache[T]
	inflight    *run
	filters     map[string]string
	opts        options
	op          status.OperationID
	generation  uint64
	currentPage int
	wg          sync.WaitGroup
	mu          sync.Mutex
	closed      bool
}

// New creates a controller for op. The tracker is shared with the rest of
// the application; the page cache is owned by the controller.
func New[T any](op status.OperationID, fetcher Fetcher[T], tracker *status.Tracker, opts ...Option) *Controller[T] {
	o := options{
		notifier: notify.Discard,
		logger:   slog.Default(),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Controller[T]{
		fetch:   fetcher,
		tracker: tracker,
		cache:   pagecache.New[T](o.pageSize),
		filters: map[string]string{},
		opts:    o,
		op:      op,
	}
}

// Load fetches page with filters. It returns once the fetch has settled or
// been skipped; results are observed through the tracker and the cache.
//
// A load for the page already in flight is a no-op. Failures leave cached
// pages untouched and raise a notice.
func (c *Controller[T]) Load(ctx context.Context, page int, filters map[string]string, opts LoadOptions) {
	c.load(ctx, page, filters, opts)
}

// LoadAsync issues the load before returning and fetches in the background,
// so successive calls are ordered as issued. The returned channel is closed
// when the load has settled or been skipped.
func (c *Controller[T]) LoadAsync(ctx context.Context, page int, filters map[string]string, opts LoadOptions) <-chan struct{} {
	done := make(chan struct{})

	r := c.start(ctx, page, filters, opts)
	if r == nil {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		c.finish(ctx, r)
	}()
	return done
}

func (c *Controller[T]) load(ctx context.Context, page int, filters map[string]string, opts LoadOptions) outcome {
	r := c.start(ctx, page, filters, opts)
	if r == nil {
		return outcomeSkipped
	}
	return c.finish(ctx, r)
}

// finish fetches the page of an issued run and records the result.
func (c *Controller[T]) finish(ctx context.Context, r *run) outcome {
	defer c.wg.Done()
	defer r.cancel()

	result, err := c.fetch(r.ctx, Query{
		Filters:  maps.Clone(r.filters),
		Page:     r.page,
		PageSize: c.cache.PageSize(),
	})
	if err != nil {
		return c.fail(r, err)
	}
	return c.succeed(ctx, r, result)
}

func (c *Controller[T]) start(ctx context.Context, page int, filters map[string]string, opts LoadOptions) *run {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if page < 1 {
		c.opts.logger.Warn("ignoring load of invalid page", "operation", c.op, "page", page)
		return nil
	}
	if c.inflight != nil && c.inflight.page == page {
		c.opts.logger.Debug("page already loading", "operation", c.op, "page", page)
		return nil
	}

	prevPage := c.currentPage
	if c.inflight != nil {
		prevPage = c.inflight.prevPage
		c.supersedeLocked(opts.bucket())
	}

	if filters == nil {
		filters = map[string]string{}
	}
	c.generation++
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		ctx:        runCtx,
		cancel:     cancel,
		filters:    maps.Clone(filters),
		generation: c.generation,
		page:       page,
		prevPage:   prevPage,
		opts:       opts,
	}
	c.inflight = r
	c.currentPage = page
	c.wg.Add(1)
	c.filters = maps.Clone(r.filters)

	c.tracker.Begin(c.op, opts.bucket())
	return r
}

// supersedeLocked cancels the in-flight load. Its bucket is released unless
// the next load is about to claim the same one.
func (c *Controller[T]) supersedeLocked(next status.Bucket) {
	prev := c.inflight
	prev.cancel()
	c.inflight = nil
	if b := prev.opts.bucket(); b != next {
		c.tracker.Abandon(c.op, b)
	}
	c.opts.logger.Debug("superseded in-flight load", "operation", c.op, "page", prev.page)
}

func (c *Controller[T]) succeed(ctx context.Context, r *run, result Page[T]) outcome {
	c.mu.Lock()
	if r.generation != c.generation {
		c.mu.Unlock()
		c.opts.logger.Debug("dropping superseded response", "operation", c.op, "page", r.page)
		return outcomeDropped
	}

	c.cache.SetTotalCount(result.Total)
	if r.opts.Append {
		c.cache.AppendPage(r.page, result.Items)
	} else {
		c.cache.SetPage(r.page, result.Items)
	}
	c.inflight = nil
	c.tracker.Succeed(c.op, r.opts.bucket())
	c.mu.Unlock()

	c.opts.logger.Debug("loaded page",
		"operation", c.op,
		"page", r.page,
		"items", len(result.Items),
		"total", result.Total)

	c.saveSnapshot(context.WithoutCancel(ctx), r, result)
	return outcomeSucceeded
}

func (c *Controller[T]) fail(r *run, err error) outcome {
	c.mu.Lock()
	if r.generation != c.generation {
		c.mu.Unlock()
		c.opts.logger.Debug("dropping superseded failure", "operation", c.op, "page", r.page, "error", err)
		return outcomeDropped
	}

	c.inflight = nil
	if !c.cache.HasPage(r.page) {
		c.currentPage = r.prevPage
	}

	if errors.Is(err, context.Canceled) {
		c.tracker.Abandon(c.op, r.opts.bucket())
		c.mu.Unlock()
		c.opts.logger.Debug("load canceled", "operation", c.op, "page", r.page)
		return outcomeDropped
	}

	info := status.ErrorInfoFrom(err)
	c.tracker.Fail(c.op, r.opts.bucket(), info)
	c.mu.Unlock()

	c.opts.logger.Warn("failed to load page",
		"operation", c.op,
		"page", r.page,
		"initial", r.opts.Initial,
		"error", err)

	c.opts.notifier.Notify(notify.Notice{
		At:        time.Now(),
		Operation: c.op,
		Message:   info.Message,
		Level:     notify.LevelError,
		Initial:   r.opts.Initial,
	})
	return outcomeFailed
}

func (c *Controller[T]) saveSnapshot(ctx context.Context, r *run, result Page[T]) {
	if c.opts.snapshots == nil {
		return
	}
	items, err := snapshot.Encode(result.Items)
	if err != nil {
		c.opts.logger.Warn("failed to encode snapshot", "operation", c.op, "error", err)
		return
	}
	entry := snapshot.Entry{
		FetchedAt:  time.Now(),
		Kind:       c.opts.kind,
		FiltersKey: snapshot.FiltersKey(r.filters),
		Items:      items,
		Page:       r.page,
		PageSize:   c.cache.PageSize(),
		Total:      result.Total,
	}
	if err := c.opts.snapshots.SavePage(ctx, entry); err != nil {
		c.opts.logger.Warn("failed to save snapshot", "operation", c.op, "page", r.page, "error", err)
	}
}

// Restore fills the cache from a stored snapshot instead of the network.
// The tracker is left alone since no fetch took place.
func (c *Controller[T]) Restore(ctx context.Context, page int, filters map[string]string) (time.Time, error) {
	if c.opts.snapshots == nil {
		return time.Time{}, ErrNoSnapshots
	}
	entry, err := c.opts.snapshots.LoadPage(ctx, c.opts.kind, snapshot.FiltersKey(filters), page)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to restore %s page %d: %w", c.op, page, err)
	}
	items, err := snapshot.Decode[T](entry.Items)
	if err != nil {
		return time.Time{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.PageSize > 0 {
		c.cache.SetPageSize(entry.PageSize)
	}
	c.cache.SetTotalCount(entry.Total)
	c.cache.SetPage(page, items)
	c.currentPage = page
	c.filters = maps.Clone(filters)
	if c.filters == nil {
		c.filters = map[string]string{}
	}
	return entry.FetchedAt, nil
}

// Next loads the page after the current one. It reports false when already
// on the last known page.
func (c *Controller[T]) Next(ctx context.Context) bool {
	page := c.CurrentPage() + 1
	if total := c.TotalPages(); total > 0 && page > total {
		return false
	}
	c.Load(ctx, page, c.Filters(), LoadOptions{})
	return true
}

// Prev loads the page before the current one. It reports false on page 1.
func (c *Controller[T]) Prev(ctx context.Context) bool {
	page := c.CurrentPage() - 1
	if page < 1 {
		return false
	}
	c.Load(ctx, page, c.Filters(), LoadOptions{})
	return true
}

// Retry reloads the current page as an interactive call.
func (c *Controller[T]) Retry(ctx context.Context) {
	page := c.CurrentPage()
	if page < 1 {
		page = 1
	}
	c.Load(ctx, page, c.Filters(), LoadOptions{})
}

// LoadAll clears the cache and walks every page, appending each one. The
// first page is an initial load. onProgress, if set, is called after each
// page with the pages loaded so far and the page count. It reports whether
// every page loaded.
func (c *Controller[T]) LoadAll(ctx context.Context, filters map[string]string, onProgress func(done, total int)) bool {
	c.Reset()

	if c.load(ctx, 1, filters, LoadOptions{Initial: true, Append: true}) != outcomeSucceeded {
		return false
	}
	total := c.TotalPages()
	if onProgress != nil {
		onProgress(1, max(total, 1))
	}

	for page := 2; page <= total; page++ {
		if ctx.Err() != nil {
			return false
		}
		if c.load(ctx, page, filters, LoadOptions{Append: true}) != outcomeSucceeded {
			return false
		}
		if onProgress != nil {
			onProgress(page, total)
		}
	}
	return true
}

// Reset drops every cached page and the current page, and abandons any
// load in flight. Callers reset before loading with different filters.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight != nil {
		c.supersedeLocked(noBucket)
	}
	c.generation++
	c.cache.Reset()
	c.currentPage = 0
	c.filters = map[string]string{}
}

// Close cancels the load in flight and waits for background loads to finish.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		if c.inflight != nil {
			c.supersedeLocked(noBucket)
		}
		c.generation++
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// Operation returns the tracked operation name.
func (c *Controller[T]) Operation() status.OperationID { return c.op }

// Tracker returns the shared status tracker.
func (c *Controller[T]) Tracker() *status.Tracker { return c.tracker }

// Cache returns the page cache.
func (c *Controller[T]) Cache() *pagecache.Cache[T] { return c.cache }

// CurrentPage returns the page last requested, or the last page shown if
// that request failed. It is 0 before any load.
func (c *Controller[T]) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

// Filters returns a copy of the filters of the current page.
func (c *Controller[T]) Filters() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.filters)
}

// InFlight reports whether a load is running.
func (c *Controller[T]) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != nil
}

// Items returns the cached items of the current page.
func (c *Controller[T]) Items() []T {
	return c.cache.ItemsForPage(c.CurrentPage())
}

// TotalPages returns the page count derived from the server total.
func (c *Controller[T]) TotalPages() int { return c.cache.PageCount() }

// IsEmpty reports whether the server reported no items.
func (c *Controller[T]) IsEmpty() bool { return c.cache.IsEmpty() }

// HasPage reports whether page is cached.
func (c *Controller[T]) HasPage(page int) bool { return c.cache.HasPage(page) }
