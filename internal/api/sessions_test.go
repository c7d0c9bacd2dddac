package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankctl/internal/api"
	"github.com/Veraticus/bankctl/internal/common"
	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/model"
	"github.com/Veraticus/bankctl/internal/testutil"
)

func newClient(t *testing.T, srv *httptest.Server, sessions api.SessionStore) *api.Client {
	t.Helper()
	c, err := api.New(api.Config{
		Logger:          common.NullLogger(),
		UserURL:         srv.URL,
		BankURL:         srv.URL,
		NotificationURL: srv.URL,
	}, sessions)
	require.NoError(t, err)
	return c
}

func TestClient_SQLiteSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	var lastAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"accessToken":"tok-1","expiresIn":3600,"user":{"id":7,"username":"ana"}}`))
		case "/users":
			lastAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[[],0]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	c := newClient(t, srv, db.Storage)

	_, err := c.CurrentSession(ctx)
	require.ErrorIs(t, err, api.ErrNotAuthenticated)

	session, err := c.Login(ctx, "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, 7, session.UserID)

	stored, err := db.Storage.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", stored.Token)

	_, err = c.ListUsers(ctx, listing.Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", lastAuth)

	require.NoError(t, c.Logout(ctx))
	_, err = c.CurrentSession(ctx)
	assert.ErrorIs(t, err, api.ErrNotAuthenticated)
}

func TestClient_UnauthorizedClearsStoredSession(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
		Session: &model.Session{Token: "stale", UserID: 1, Username: "ana", ExpiresAt: time.Now().Add(time.Hour)},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	c := newClient(t, srv, db.Storage)

	_, err := c.ListBills(ctx, listing.Query{Page: 1, PageSize: 10})
	require.ErrorIs(t, err, api.ErrUnauthorized)

	_, err = db.Storage.LoadSession(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
