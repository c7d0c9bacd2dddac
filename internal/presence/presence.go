// Package presence follows the users' online status over the notification
// service's websocket and reacts to forced logouts.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Veraticus/bankctl/internal/common"
	"github.com/Veraticus/bankctl/internal/model"
)

// Event names sent by the server. Both spellings of the logout event are
// in use.
const (
	EventUsersStatus  = "users-status"
	EventUserStatus   = "user-status"
	EventLogoutUser   = "logout_user"
	EventLogoutUserV2 = "logout-user"
)

var (
	// ErrLoggedOut is returned by Run after the server logged this session out.
	ErrLoggedOut = errors.New("logged out by server")
	// ErrNoSession is returned when there is no valid session to connect with.
	ErrNoSession = errors.New("no valid session")
)

// SessionStore is the part of the session store presence needs.
type SessionStore interface {
	LoadSession(ctx context.Context) (model.Session, error)
	ClearSession(ctx context.Context) error
}

// Update describes one change applied to the roster.
type Update struct {
	At     time.Time
	Event  string
	UserID int
	Online bool
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type userStatus struct {
	UserID int  `json:"userId"`
	Online bool `json:"online"`
}

type logoutUser struct {
	UserID int `json:"userId"`
}

// Roster is the set of known user states.
type Roster struct {
	online map[int]bool
	mu     sync.RWMutex
}

func newRoster() *Roster {
	return &Roster{online: make(map[int]bool)}
}

// Online reports whether userID is online.
func (r *Roster) Online(userID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.online[userID]
}

// Snapshot returns a copy of every known state.
func (r *Roster) Snapshot() map[int]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.online)
}

func (r *Roster) replace(states map[int]bool) {
	r.mu.Lock()
	r.online = states
	r.mu.Unlock()
}

func (r *Roster) set(userID int, online bool) {
	r.mu.Lock()
	r.online[userID] = online
	r.mu.Unlock()
}

// Options configures a Client.
type Options struct {
	Sessions SessionStore
	Dialer   *websocket.Dialer
	Logger   *slog.Logger
	OnUpdate func(Update)
	OnLogout func(userID int)
	URL      string
	Retry    common.RetryOptions
}

// Client keeps a websocket open and a roster current.
type Client struct {
	opts   Options
	roster *Roster
	now    func() time.Time
}

// New validates opts and creates a client.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("%w: presence URL", common.ErrMissingConfig)
	}
	u, err := url.Parse(opts.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, fmt.Errorf("%w: presence URL must be ws:// or wss://, got %q", common.ErrInvalidConfig, opts.URL)
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
			Proxy:            http.ProxyFromEnvironment,
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry.MaxAttempts = -1
	}
	if opts.Retry.InitialDelay <= 0 {
		opts.Retry.InitialDelay = time.Second
	}
	if opts.Retry.MaxDelay <= 0 {
		opts.Retry.MaxDelay = time.Minute
	}

	return &Client{opts: opts, roster: newRoster(), now: time.Now}, nil
}

// Roster returns the live roster.
func (c *Client) Roster() *Roster {
	return c.roster
}

// Run connects and reconnects with backoff until ctx is done, the session
// is missing, or the server logs this session out.
func (c *Client) Run(ctx context.Context) error {
	return common.WithRetry(ctx, func() error {
		return c.connect(ctx)
	}, c.opts.Retry)
}

func (c *Client) connect(ctx context.Context) error {
	session, err := c.opts.Sessions.LoadSession(ctx)
	if err != nil || !session.Valid(c.now()) {
		return &common.RetryableError{Err: ErrNoSession, Retryable: false}
	}

	u, _ := url.Parse(c.opts.URL)
	q := u.Query()
	q.Set("token", session.Token)
	u.RawQuery = q.Encode()

	conn, _, err := c.opts.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial presence: %w", err)
	}
	defer func() { _ = conn.Close() }()
	c.opts.Logger.Debug("presence connected", "url", c.opts.URL)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("presence connection lost: %w", err)
		}
		if err := c.handle(ctx, session, data); err != nil {
			return err
		}
	}
}

// handle applies one frame. It returns a non-retryable error when the
// current session was logged out.
func (c *Client) handle(ctx context.Context, session model.Session, data []byte) error {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.opts.Logger.Warn("ignoring malformed presence frame", "error", err)
		return nil
	}

	switch f.Event {
	case EventUsersStatus:
		var raw map[string]bool
		if err := json.Unmarshal(f.Data, &raw); err != nil {
			c.opts.Logger.Warn("ignoring malformed users-status", "error", err)
			return nil
		}
		states := make(map[int]bool, len(raw))
		for k, online := range raw {
			id, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			states[id] = online
		}
		c.roster.replace(states)
		for id, online := range states {
			c.emit(Update{Event: f.Event, UserID: id, Online: online})
		}

	case EventUserStatus:
		var s userStatus
		if err := json.Unmarshal(f.Data, &s); err != nil {
			c.opts.Logger.Warn("ignoring malformed user-status", "error", err)
			return nil
		}
		c.roster.set(s.UserID, s.Online)
		c.emit(Update{Event: f.Event, UserID: s.UserID, Online: s.Online})

	case EventLogoutUser, EventLogoutUserV2:
		var l logoutUser
		if err := json.Unmarshal(f.Data, &l); err != nil {
			c.opts.Logger.Warn("ignoring malformed logout", "error", err)
			return nil
		}
		c.roster.set(l.UserID, false)
		c.emit(Update{Event: f.Event, UserID: l.UserID})
		if l.UserID != session.UserID {
			return nil
		}

		if err := c.opts.Sessions.ClearSession(ctx); err != nil {
			c.opts.Logger.Warn("failed to clear session after logout", "error", err)
		}
		c.opts.Logger.Info("session logged out by server", "user_id", l.UserID)
		if c.opts.OnLogout != nil {
			c.opts.OnLogout(l.UserID)
		}
		return &common.RetryableError{Err: ErrLoggedOut, Retryable: false}

	default:
		c.opts.Logger.Debug("ignoring presence event", "event", f.Event)
	}
	return nil
}

func (c *Client) emit(u Update) {
	if c.opts.OnUpdate == nil {
		return
	}
	u.At = c.now()
	c.opts.OnUpdate(u)
}
