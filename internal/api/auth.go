package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Veraticus/bankctl/internal/common"
	"github.com/Veraticus/bankctl/internal/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		Username string `json:"username"`
		ID       int    `json:"id"`
	} `json:"user"`
	ExpiresIn int `json:"expiresIn"`
}

// Login exchanges credentials for a session and stores it.
func (c *Client) Login(ctx context.Context, username, password string) (model.Session, error) {
	if username == "" || password == "" {
		return model.Session{}, common.NewUserError("username and password are required", nil)
	}

	data, err := c.send(ctx, c.anon, http.MethodPost, c.userURL+"/auth/login", loginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return model.Session{}, err
	}

	var resp loginResponse
	if err := decodeJSON(data, &resp); err != nil {
		return model.Session{}, err
	}
	if resp.AccessToken == "" {
		return model.Session{}, errors.New("login response did not include a token")
	}

	session := model.Session{
		Token:    resp.AccessToken,
		Username: resp.User.Username,
		UserID:   resp.User.ID,
	}
	if session.Username == "" {
		session.Username = username
	}
	if resp.ExpiresIn > 0 {
		session.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return model.Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	c.logger.Info("logged in", "username", session.Username, "expires_at", session.ExpiresAt)
	return session, nil
}

// Logout forgets the stored session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.sessions.ClearSession(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// CurrentSession returns the stored session if it is still valid.
func (c *Client) CurrentSession(ctx context.Context) (model.Session, error) {
	session, err := c.sessions.LoadSession(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return model.Session{}, ErrNotAuthenticated
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Valid(c.now()) {
		return model.Session{}, fmt.Errorf("%w: session expired", ErrNotAuthenticated)
	}
	return session, nil
}
