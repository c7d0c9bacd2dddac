package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankctl/internal/common"
	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/model"
	"github.com/Veraticus/bankctl/internal/status"
)

// memorySessions is an in-memory SessionStore.
type memorySessions struct {
	session *model.Session
	cleared int
	mu      sync.Mutex
}

func (m *memorySessions) LoadSession(context.Context) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return model.Session{}, fmt.Errorf("session: %w", common.ErrNotFound)
	}
	return *m.session, nil
}

func (m *memorySessions) SaveSession(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

func (m *memorySessions) ClearSession(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	m.cleared++
	return nil
}

func loggedIn() *memorySessions {
	return &memorySessions{session: &model.Session{Token: "tok-123", Username: "ada", UserID: 7}}
}

func newTestClient(t *testing.T, handler http.Handler, sessions SessionStore) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		UserURL:         srv.URL + "/user",
		BankURL:         srv.URL + "/bank",
		NotificationURL: srv.URL + "/notification",
		Timeout:         5 * time.Second,
		Logger:          common.NullLogger(),
	}, sessions)
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Validation(t *testing.T) {
	good := Config{UserURL: "http://u", BankURL: "http://b", NotificationURL: "http://n"}

	tests := []struct {
		sessions SessionStore
		wantErr  error
		mutate   func(*Config)
		name     string
	}{
		{name: "valid", sessions: loggedIn(), mutate: func(*Config) {}},
		{name: "missing store", mutate: func(*Config) {}},
		{name: "missing bank", sessions: loggedIn(), mutate: func(c *Config) { c.BankURL = "" }, wantErr: common.ErrMissingConfig},
		{name: "relative url", sessions: loggedIn(), mutate: func(c *Config) { c.UserURL = "/users" }, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := good
			tt.mutate(&cfg)
			c, err := New(cfg, tt.sessions)
			switch {
			case tt.name == "valid":
				require.NoError(t, err)
				assert.NotNil(t, c)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.Error(t, err)
			}
		})
	}
}

func TestListUsers_QueryAndTuple(t *testing.T) {
	var (
		gotReq *http.Request
		mu     sync.Mutex
	)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotReq = r.Clone(context.Background())
		mu.Unlock()
		writeJSON(w, http.StatusOK, []any{
			[]map[string]any{{"id": 1, "username": "ada"}, {"id": 2, "username": "bob"}},
			2,
		})
	}), loggedIn())

	page, err := c.ListUsers(context.Background(), listing.Query{
		Filters:  map[string]string{"q": "a"},
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)

	want := listing.Page[model.User]{
		Items: []model.User{{ID: 1, Username: "ada"}, {ID: 2, Username: "bob"}},
		Total: 2,
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, gotReq)
	assert.Equal(t, http.MethodGet, gotReq.Method)
	assert.Equal(t, "/user/users", gotReq.URL.Path)
	assert.Equal(t, "1", gotReq.URL.Query().Get("page"))
	assert.Equal(t, "10", gotReq.URL.Query().Get("take"))
	assert.Equal(t, "a", gotReq.URL.Query().Get("filters[q]"))
	assert.Equal(t, "Bearer tok-123", gotReq.Header.Get("Authorization"))
	assert.Len(t, gotReq.Header.Get(RequestIDHeader), 36)
}

func TestListBills_RangeFiltersUseSearch(t *testing.T) {
	var (
		method, path string
		body         searchBody
		mu           sync.Mutex
	)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Unlock()
		writeJSON(w, http.StatusOK, []any{[]any{}, 0})
	}), loggedIn())

	page, err := c.ListBills(context.Background(), listing.Query{
		Filters:  map[string]string{"dueDateFrom": "2026-01-01", "dueDateTo": "2026-02-01"},
		Page:     3,
		PageSize: 25,
	})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/bank/bills/search", path)
	assert.Equal(t, searchBody{
		Filters: map[string]string{"dueDateFrom": "2026-01-01", "dueDateTo": "2026-02-01"},
		Page:    3,
		Take:    25,
	}, body)
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		body        string
		wantMessage string
		name        string
		status      int
	}{
		{name: "string message", status: 500, body: `{"statusCode":500,"message":"boom"}`, wantMessage: "boom"},
		{name: "array message", status: 400, body: `{"statusCode":400,"message":["title is required","amount must be positive"]}`, wantMessage: "title is required - amount must be positive"},
		{name: "error field only", status: 404, body: `{"statusCode":404,"error":"Not Found"}`, wantMessage: "Not Found"},
		{name: "plain text", status: 502, body: "upstream down", wantMessage: "upstream down"},
		{name: "html page", status: 503, body: "<html>oops</html>", wantMessage: "Service Unavailable"},
		{name: "empty", status: 500, body: "", wantMessage: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}), loggedIn())

			_, err := c.ListBills(context.Background(), listing.Query{Page: 1, PageSize: 10})
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Error())

			info := status.ErrorInfoFrom(err)
			assert.Equal(t, tt.wantMessage, info.Message)
			assert.Equal(t, tt.status, info.StatusCode)
		})
	}
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	sessions := loggedIn()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"statusCode": 401, "message": "Unauthorized"})
	}), sessions)

	_, err := c.GetUser(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 401, status.ErrorInfoFrom(err).StatusCode)
	assert.Equal(t, 1, sessions.cleared)

	_, err = c.CurrentSession(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClient_NotAuthenticatedSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, []any{[]any{}, 0})
	})

	t.Run("no session", func(t *testing.T) {
		c, _ := newTestClient(t, handler, &memorySessions{})
		_, err := c.ListUsers(context.Background(), listing.Query{Page: 1, PageSize: 10})
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("expired session", func(t *testing.T) {
		sessions := &memorySessions{session: &model.Session{
			Token:     "old",
			ExpiresAt: time.Now().Add(-time.Hour),
		}}
		c, _ := newTestClient(t, handler, sessions)
		_, err := c.ListUsers(context.Background(), listing.Query{Page: 1, PageSize: 10})
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_TransportFailure(t *testing.T) {
	c, srv := newTestClient(t, http.NotFoundHandler(), loggedIn())
	srv.Close()

	_, err := c.ListLocations(context.Background(), listing.Query{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.HTTPStatus())
	assert.Equal(t, 0, status.ErrorInfoFrom(err).StatusCode)
}

func TestClient_CanceledContext(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []any{[]any{}, 0})
	}), loggedIn())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListReceivers(ctx, listing.Query{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogin(t *testing.T) {
	sessions := &memorySessions{}
	var (
		authHeader string
		got        loginRequest
		mu         sync.Mutex
	)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path != "/user/auth/login" {
			http.NotFound(w, r)
			return
		}
		authHeader = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got.Password != "secret" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "message": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"accessToken": "fresh",
			"expiresIn":   3600,
			"user":        map[string]any{"id": 9, "username": "ada"},
		})
	}), sessions)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	session, err := c.Login(context.Background(), "ada", "secret")
	require.NoError(t, err)
	mu.Lock()
	assert.Empty(t, authHeader)
	assert.Equal(t, loginRequest{Username: "ada", Password: "secret"}, got)
	mu.Unlock()
	assert.Equal(t, model.Session{
		ExpiresAt: now.Add(time.Hour),
		Token:     "fresh",
		Username:  "ada",
		UserID:    9,
	}, session)

	stored, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session, stored)

	_, err = c.Login(context.Background(), "ada", "wrong")
	assert.EqualError(t, err, "invalid credentials")

	_, err = c.Login(context.Background(), "", "")
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)

	require.NoError(t, c.Logout(context.Background()))
	_, err = c.CurrentSession(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		want   error
		name   string
		status int
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: common.ErrRateLimit},
		{name: "bad gateway", status: http.StatusBadGateway, want: common.ErrServiceUnavailable},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: common.ErrServiceUnavailable},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, want: common.ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}), loggedIn())

			_, err := c.ListUsers(context.Background(), listing.Query{Page: 1, PageSize: 10})
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.status, status.ErrorInfoFrom(err).StatusCode)
		})
	}

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), loggedIn())
	_, err := c.ListUsers(context.Background(), listing.Query{Page: 1, PageSize: 10})
	assert.NotErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestResources(t *testing.T) {
	type call struct {
		method, path string
	}
	var (
		calls []call
		mu    sync.Mutex
	)
	mux := http.NewServeMux()
	record := func(status int, v any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls = append(calls, call{r.Method, r.URL.Path})
			mu.Unlock()
			if v == nil {
				w.WriteHeader(status)
				return
			}
			writeJSON(w, status, v)
		}
	}
	mux.HandleFunc("GET /user/users/4", record(200, map[string]any{"id": 4, "username": "dee"}))
	mux.HandleFunc("POST /user/users", record(201, map[string]any{"id": 5, "username": "eve"}))
	mux.HandleFunc("DELETE /user/users/5", record(204, nil))
	mux.HandleFunc("GET /bank/bills/8", record(200, map[string]any{"id": 8, "title": "Rent", "amount": 1200.5}))
	mux.HandleFunc("POST /bank/bills", record(201, map[string]any{"id": 9, "title": "Power"}))
	mux.HandleFunc("DELETE /bank/bills/9", record(200, nil))
	mux.HandleFunc("POST /bank/consumers", record(201, map[string]any{"id": 1, "name": "Acme"}))
	mux.HandleFunc("POST /bank/receivers", record(201, map[string]any{"id": 2, "name": "Utility Co"}))
	mux.HandleFunc("POST /bank/locations", record(201, map[string]any{"id": 3, "name": "HQ"}))
	mux.HandleFunc("GET /bank/consumers", record(200, []any{[]any{map[string]any{"id": 1}}, 1}))
	mux.HandleFunc("GET /notification/notifications", record(200, []any{nil, 0}))
	mux.HandleFunc("PATCH /notification/notifications/3/read", record(200, map[string]any{}))
	mux.HandleFunc("GET /bank/dashboard/summary", record(200, map[string]any{"totalBills": 4, "paidBills": 1}))
	mux.HandleFunc("GET /bank/dashboard/bills-by-month", record(200, []any{map[string]any{"month": "2026-01", "count": 2, "amount": 40}}))

	c, _ := newTestClient(t, mux, loggedIn())
	ctx := context.Background()

	user, err := c.GetUser(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "dee", user.Username)

	created, err := c.CreateUser(ctx, model.NewUser{Username: "eve", Password: "pw", Role: model.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, 5, created.ID)
	require.NoError(t, c.DeleteUser(ctx, 5))

	bill, err := c.GetBill(ctx, 8)
	require.NoError(t, err)
	assert.InDelta(t, 1200.5, bill.Amount, 0.001)
	newBill, err := c.CreateBill(ctx, model.NewBill{Title: "Power", Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, 9, newBill.ID)
	require.NoError(t, c.DeleteBill(ctx, 9))

	consumer, err := c.CreateConsumer(ctx, model.Consumer{ID: 99, Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, consumer.ID)
	receiver, err := c.CreateReceiver(ctx, model.Receiver{Name: "Utility Co"})
	require.NoError(t, err)
	assert.Equal(t, 2, receiver.ID)
	location, err := c.CreateLocation(ctx, model.Location{Name: "HQ"})
	require.NoError(t, err)
	assert.Equal(t, 3, location.ID)

	consumers, err := c.ListConsumers(ctx, listing.Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, consumers.Total)

	notifications, err := c.ListNotifications(ctx, listing.Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, notifications.Items)
	require.NoError(t, c.MarkNotificationRead(ctx, 3))

	summary, err := c.DashboardSummary(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, summary.PaidRatio(), 0.0001)

	months, err := c.BillsByMonth(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, []model.MonthlyTotal{{Month: "2026-01", Count: 2, Amount: 40}}, months)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 14)
}

func TestDecodeTuple(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantItems []model.Location
		wantTotal int
		wantErr   bool
	}{
		{name: "items and total", body: `[[{"id":1,"name":"HQ"}],31]`, wantItems: []model.Location{{ID: 1, Name: "HQ"}}, wantTotal: 31},
		{name: "null items", body: `[null,0]`, wantItems: []model.Location{}},
		{name: "object body", body: `{"items":[]}`, wantErr: true},
		{name: "one element", body: `[[]]`, wantErr: true},
		{name: "string total", body: `[[],"3"]`, wantErr: true},
		{name: "not json", body: `oops`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := decodeTuple[model.Location]([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantItems, items)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestIsRangeFilter(t *testing.T) {
	tests := map[string]bool{
		"dueDateFrom": true,
		"dueDateTo":   true,
		"amountTo":    true,
		"From":        false,
		"To":          false,
		"q":           false,
		"paid":        false,
		"tomorrow":    false,
	}
	for key, want := range tests {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, want, isRangeFilter(key))
		})
	}
}

func TestClient_AsListingFetcher(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"statusCode": 500, "message": "boom"})
	}), loggedIn())

	tracker := status.NewTracker()
	ctrl := listing.New(status.OpListUsers, c.ListUsers, tracker)
	defer ctrl.Close()

	ctrl.Load(context.Background(), 1, map[string]string{}, listing.LoadOptions{Initial: true})

	assert.True(t, tracker.HasFailed(status.OpListUsers, status.BucketInitial))
	assert.Equal(t, "boom", tracker.ErrorMessage(status.OpListUsers, status.BucketInitial))
	assert.Empty(t, ctrl.Cache().ItemsForPage(1))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := fmt.Errorf("wrapped: %w", &Error{Err: cause, Message: "m", StatusCode: 418})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 418, status.ErrorInfoFrom(err).StatusCode)
	assert.Equal(t, "m", status.ErrorInfoFrom(err).Message)
}
