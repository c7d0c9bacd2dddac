// Package notify carries user-facing notices raised by background work,
// such as a list page that failed to load.
package notify

import (
	"sync"
	"time"

	"github.com/Veraticus/bankctl/internal/status"
)

// Level classifies a notice.
type Level int

// Notice levels.
const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is a single global message.
type Notice struct {
	At        time.Time
	Operation status.OperationID
	Message   string
	Level     Level
	Initial   bool
}

// Notifier receives notices.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Notice) {})

const defaultHistory = 20

// Center fans notices out to subscribers and remembers the most recent ones.
type Center struct {
	subscribers map[int]chan Notice
	history     []Notice
	limit       int
	nextID      int
	mu          sync.Mutex
}

// NewCenter creates a Center keeping the last limit notices. A limit <= 0
// uses the default of 20.
func NewCenter(limit int) *Center {
	if limit <= 0 {
		limit = defaultHistory
	}
	return &Center{
		subscribers: make(map[int]chan Notice),
		limit:       limit,
	}
}

// Notify records the notice and delivers it to every subscriber that has
// room. Slow subscribers miss notices rather than block the sender.
func (c *Center) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, n)
	if over := len(c.history) - c.limit; over > 0 {
		c.history = append([]Notice(nil), c.history[over:]...)
	}
	for _, ch := range c.subscribers {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe returns a channel of future notices and a function that
// unsubscribes and closes it.
func (c *Center) Subscribe() (<-chan Notice, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan Notice, 16)
	c.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

// Recent returns the remembered notices, oldest first.
func (c *Center) Recent() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notice, len(c.history))
	copy(out, c.history)
	return out
}
