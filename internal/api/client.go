// Package api talks to the user, bank and notification services.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/Veraticus/bankctl/internal/common"
	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/model"
)

// RequestIDHeader is set on every outgoing request.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 4 << 20

// SessionStore persists the bearer session between runs. LoadSession
// returns an error wrapping common.ErrNotFound when nobody is logged in.
type SessionStore interface {
	LoadSession(ctx context.Context) (model.Session, error)
	SaveSession(ctx context.Context, session model.Session) error
	ClearSession(ctx context.Context) error
}

// Config holds the service locations.
type Config struct {
	Transport       http.RoundTripper
	Logger          *slog.Logger
	UserURL         string
	BankURL         string
	NotificationURL string
	Timeout         time.Duration
}

// Client is the REST client for all three services.
type Client struct {
	sessions        SessionStore
	authed          *http.Client
	anon            *http.Client
	logger          *slog.Logger
	now             func() time.Time
	userURL         string
	bankURL         string
	notificationURL string
}

// New validates cfg and builds a client. Authenticated requests carry the
// bearer token from sessions.
func New(cfg Config, sessions SessionStore) (*Client, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	urls := map[string]string{
		"user":         cfg.UserURL,
		"bank":         cfg.BankURL,
		"notification": cfg.NotificationURL,
	}
	for name, raw := range urls {
		if raw == "" {
			return nil, fmt.Errorf("%w: %s service URL", common.ErrMissingConfig, name)
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%w: invalid %s service URL %q", common.ErrInvalidConfig, name, raw)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		sessions:        sessions,
		logger:          logger,
		now:             time.Now,
		userURL:         strings.TrimRight(cfg.UserURL, "/"),
		bankURL:         strings.TrimRight(cfg.BankURL, "/"),
		notificationURL: strings.TrimRight(cfg.NotificationURL, "/"),
	}

	tagged := &requestIDTransport{base: base, logger: logger}
	c.anon = &http.Client{Transport: tagged, Timeout: timeout}
	c.authed = &http.Client{
		Transport: &unauthorizedTransport{
			base: &oauth2.Transport{
				Source: &sessionTokenSource{client: c},
				Base:   tagged,
			},
			sessions: sessions,
			logger:   logger,
		},
		Timeout: timeout,
	}
	return c, nil
}

// sessionTokenSource hands the stored session to oauth2.Transport.
type sessionTokenSource struct {
	client *Client
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	session, err := s.client.sessions.LoadSession(context.Background())
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Valid(s.client.now()) {
		return nil, fmt.Errorf("%w: session expired", ErrNotAuthenticated)
	}
	return &oauth2.Token{
		AccessToken: session.Token,
		TokenType:   "Bearer",
		Expiry:      session.ExpiresAt,
	}, nil
}

// requestIDTransport tags requests with an ID and logs each exchange.
type requestIDTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	attrs := []any{
		"method", req.Method,
		"url", req.URL.Redacted(),
		"request_id", req.Header.Get(RequestIDHeader),
		"duration", time.Since(start),
	}
	if err != nil {
		t.logger.Debug("request failed", append(attrs, "error", err)...)
		return nil, err
	}
	t.logger.Debug("request completed", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}

// unauthorizedTransport drops the stored session when a service answers 401.
type unauthorizedTransport struct {
	base     http.RoundTripper
	sessions SessionStore
	logger   *slog.Logger
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()

	if clearErr := t.sessions.ClearSession(req.Context()); clearErr != nil {
		t.logger.Warn("failed to clear rejected session", "error", clearErr)
	}
	t.logger.Info("session rejected, logged out", "url", req.URL.Redacted())
	return nil, ErrUnauthorized
}

// send performs a request and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, hc *http.Client, method, endpoint string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{
			Err:        fmt.Errorf("%w: %w", ErrTransport, err),
			Message:    "failed to read response: " + err.Error(),
			StatusCode: resp.StatusCode,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}

func classifyTransportError(err error) error {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return ErrNotAuthenticated
	case errors.Is(err, ErrUnauthorized):
		return &Error{
			Err:        ErrUnauthorized,
			Message:    "session expired, log in again",
			StatusCode: http.StatusUnauthorized,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &Error{
		Err:     fmt.Errorf("%w: %w", ErrTransport, err),
		Message: "service unreachable: " + err.Error(),
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	data, err := c.send(ctx, c.authed, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	data, err := c.send(ctx, c.authed, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeJSON(data, out)
}

func decodeJSON(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// isRangeFilter reports whether a filter key names one end of a range.
func isRangeFilter(key string) bool {
	return (len(key) > 4 && strings.HasSuffix(key, "From")) || (len(key) > 2 && strings.HasSuffix(key, "To"))
}

type searchBody struct {
	Filters map[string]string `json:"filters"`
	Page    int               `json:"page"`
	Take    int               `json:"take"`
}

// list fetches one page of resource. Range filters go through the search
// endpoint since they do not fit in a query string.
func list[T any](ctx context.Context, c *Client, base, resource string, q listing.Query) (listing.Page[T], error) {
	endpoint := base + "/" + resource

	useSearch := false
	for k := range q.Filters {
		if isRangeFilter(k) {
			useSearch = true
			break
		}
	}

	var (
		data []byte
		err  error
	)
	if useSearch {
		data, err = c.send(ctx, c.authed, http.MethodPost, endpoint+"/search", searchBody{
			Filters: q.Filters,
			Page:    q.Page,
			Take:    q.PageSize,
		})
	} else {
		values := url.Values{}
		values.Set("page", strconv.Itoa(q.Page))
		values.Set("take", strconv.Itoa(q.PageSize))
		for k, v := range q.Filters {
			values.Set("filters["+k+"]", v)
		}
		data, err = c.send(ctx, c.authed, http.MethodGet, endpoint+"?"+values.Encode(), nil)
	}
	if err != nil {
		return listing.Page[T]{}, err
	}

	items, total, err := decodeTuple[T](data)
	if err != nil {
		return listing.Page[T]{}, fmt.Errorf("%s: %w", resource, err)
	}
	return listing.Page[T]{Items: items, Total: total}, nil
}

// decodeTuple reads the services' list envelope, [items, total].
func decodeTuple[T any](data []byte) ([]T, int, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return nil, 0, fmt.Errorf("failed to decode list response: %w", err)
	}
	if len(tuple) != 2 {
		return nil, 0, fmt.Errorf("list response has %d elements, want 2", len(tuple))
	}

	items := []T{}
	if err := json.Unmarshal(tuple[0], &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode list items: %w", err)
	}
	if items == nil {
		items = []T{}
	}

	var total int
	if err := json.Unmarshal(tuple[1], &total); err != nil {
		return nil, 0, fmt.Errorf("failed to decode list total: %w", err)
	}
	return items, total, nil
}

func (c *Client) deleteResource(ctx context.Context, endpoint string) error {
	_, err := c.send(ctx, c.authed, http.MethodDelete, endpoint, nil)
	return err
}
