// Package status records the loading, success and failure state of named
// remote operations, split into an initial bucket (first load of a screen)
// and a subsequent bucket (interactive reloads).
package status

import (
	"errors"
	"sync"
)

// OperationID names a remote operation whose state is tracked.
type OperationID string

// Operations issued by the console's list screens.
const (
	OpListUsers         OperationID = "users.list"
	OpListBills         OperationID = "bills.list"
	OpListConsumers     OperationID = "consumers.list"
	OpListReceivers     OperationID = "receivers.list"
	OpListLocations     OperationID = "locations.list"
	OpListNotifications OperationID = "notifications.list"
	OpDashboard         OperationID = "dashboard.summary"
)

// Bucket separates first page-load calls from interactive re-fetches.
type Bucket int

const (
	// BucketInitial tracks the first fetch a screen performs.
	BucketInitial Bucket = iota
	// BucketSubsequent tracks pagination, filter and retry fetches.
	BucketSubsequent
)

func (b Bucket) String() string {
	switch b {
	case BucketInitial:
		return "initial"
	case BucketSubsequent:
		return "subsequent"
	default:
		return "unknown"
	}
}

// Phase is the position of an operation in idle → loading → {succeeded | failed}.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrorInfo is the user-facing description of a failed call.
// StatusCode is 0 when no HTTP status is known (transport failures).
type ErrorInfo struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// statusCoder is implemented by errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// ErrorInfoFrom builds an ErrorInfo from err, picking up the HTTP status
// from any error in the chain that reports one.
func ErrorInfoFrom(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}
	info := ErrorInfo{Message: err.Error()}
	var sc statusCoder
	if errors.As(err, &sc) {
		info.StatusCode = sc.HTTPStatus()
		if m, ok := sc.(interface{ UserMessage() string }); ok {
			info.Message = m.UserMessage()
		}
	}
	return info
}

// Change is published to subscribers after every tracker mutation.
// Cleared is set when the whole tracker was wiped.
type Change struct {
	Op      OperationID
	Bucket  Bucket
	Phase   Phase
	Cleared bool
}

type entry struct {
	err       *ErrorInfo
	loading   bool
	succeeded bool
	settled   bool // a success or failure has been recorded at least once
}

func (e entry) phase() Phase {
	switch {
	case e.loading:
		return PhaseLoading
	case e.err != nil:
		return PhaseFailed
	case e.succeeded:
		return PhaseSucceeded
	default:
		return PhaseIdle
	}
}

type key struct {
	op     OperationID
	bucket Bucket
}

const subscriberBuffer = 32

// Tracker is a passive, concurrency-safe record of operation state.
// It never retries anything itself.
type Tracker struct {
	entries     map[key]*entry
	subscribers map[int]chan Change
	nextSub     int
	mu          sync.RWMutex
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries:     make(map[key]*entry),
		subscribers: make(map[int]chan Change),
	}
}

// BeginInitial marks op as loading in the initial bucket.
func (t *Tracker) BeginInitial(op OperationID) { t.begin(op, BucketInitial) }

// BeginSubsequent marks op as loading in the subsequent bucket.
func (t *Tracker) BeginSubsequent(op OperationID) { t.begin(op, BucketSubsequent) }

// SucceedInitial records a success in the initial bucket.
func (t *Tracker) SucceedInitial(op OperationID) { t.succeed(op, BucketInitial) }

// SucceedSubsequent records a success in the subsequent bucket.
func (t *Tracker) SucceedSubsequent(op OperationID) { t.succeed(op, BucketSubsequent) }

// FailInitial records a failure in the initial bucket.
func (t *Tracker) FailInitial(op OperationID, info ErrorInfo) { t.fail(op, BucketInitial, info) }

// FailSubsequent records a failure in the subsequent bucket.
func (t *Tracker) FailSubsequent(op OperationID, info ErrorInfo) {
	t.fail(op, BucketSubsequent, info)
}

// Begin marks op as loading in bucket.
func (t *Tracker) Begin(op OperationID, bucket Bucket) { t.begin(op, bucket) }

// Succeed records a success for op in bucket.
func (t *Tracker) Succeed(op OperationID, bucket Bucket) { t.succeed(op, bucket) }

// Fail records a failure for op in bucket.
func (t *Tracker) Fail(op OperationID, bucket Bucket, info ErrorInfo) { t.fail(op, bucket, info) }

func (t *Tracker) begin(op OperationID, bucket Bucket) {
	t.mutate(op, bucket, func(e *entry) {
		e.loading = true
		e.succeeded = false
		e.err = nil
	})
}

func (t *Tracker) succeed(op OperationID, bucket Bucket) {
	t.mutate(op, bucket, func(e *entry) {
		e.loading = false
		e.succeeded = true
		e.err = nil
		e.settled = true
	})
}

func (t *Tracker) fail(op OperationID, bucket Bucket, info ErrorInfo) {
	t.mutate(op, bucket, func(e *entry) {
		e.loading = false
		e.succeeded = false
		e.err = &info
		e.settled = true
	})
}

// Abandon ends an in-flight call for op in bucket without recording an
// outcome. It is used when a call is cancelled or superseded; the bucket
// returns to idle and its first-load flag is unchanged.
func (t *Tracker) Abandon(op OperationID, bucket Bucket) {
	t.mutate(op, bucket, func(e *entry) {
		e.loading = false
	})
}

func (t *Tracker) mutate(op OperationID, bucket Bucket, fn func(*entry)) {
	t.mu.Lock()
	k := key{op: op, bucket: bucket}
	e, ok := t.entries[k]
	if !ok {
		e = &entry{}
		t.entries[k] = e
	}
	fn(e)
	change := Change{Op: op, Bucket: bucket, Phase: e.phase()}
	t.publishLocked(change)
	t.mu.Unlock()
}

func (t *Tracker) lookup(op OperationID, bucket Bucket) entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.entries[key{op: op, bucket: bucket}]; ok {
		return *e
	}
	return entry{}
}

// IsLoading reports whether op has a call in flight in bucket.
func (t *Tracker) IsLoading(op OperationID, bucket Bucket) bool {
	return t.lookup(op, bucket).loading
}

// HasSucceeded reports whether the last call for op in bucket succeeded.
func (t *Tracker) HasSucceeded(op OperationID, bucket Bucket) bool {
	return t.lookup(op, bucket).succeeded
}

// HasFailed reports whether the last call for op in bucket failed.
func (t *Tracker) HasFailed(op OperationID, bucket Bucket) bool {
	return t.lookup(op, bucket).err != nil
}

// ErrorMessage returns the last error message for op in bucket, or "".
func (t *Tracker) ErrorMessage(op OperationID, bucket Bucket) string {
	if e := t.lookup(op, bucket); e.err != nil {
		return e.err.Message
	}
	return ""
}

// Error returns the last recorded error for op in bucket.
func (t *Tracker) Error(op OperationID, bucket Bucket) (ErrorInfo, bool) {
	if e := t.lookup(op, bucket); e.err != nil {
		return *e.err, true
	}
	return ErrorInfo{}, false
}

// State returns the current phase of op in bucket.
func (t *Tracker) State(op OperationID, bucket Bucket) Phase {
	return t.lookup(op, bucket).phase()
}

// IsFirstLoad is true until a success or failure has been recorded for op in
// bucket. It holds before any Begin call as well, so the very first render
// shows a loading skeleton rather than an empty state.
func (t *Tracker) IsFirstLoad(op OperationID, bucket Bucket) bool {
	return !t.lookup(op, bucket).settled
}

// ClearOperation drops both buckets for op.
func (t *Tracker) ClearOperation(op OperationID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range []Bucket{BucketInitial, BucketSubsequent} {
		delete(t.entries, key{op: op, bucket: b})
		t.publishLocked(Change{Op: op, Bucket: b, Phase: PhaseIdle})
	}
}

// Clear wipes every entry.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[key]*entry)
	t.publishLocked(Change{Cleared: true})
}

// Subscribe returns a channel receiving every subsequent Change and a func
// that unsubscribes and closes it. Slow subscribers miss changes rather than
// blocking the tracker.
func (t *Tracker) Subscribe() (<-chan Change, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	ch := make(chan Change, subscriberBuffer)
	t.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subscribers, id)
			close(ch)
		})
	}
}

func (t *Tracker) publishLocked(change Change) {
	for _, ch := range t.subscribers {
		select {
		case ch <- change:
		default:
		}
	}
}
