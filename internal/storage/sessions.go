package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/bankctl/internal/common"
	"github.com/Veraticus/bankctl/internal/model"
)

// LoadSession returns the stored session, or an error wrapping
// common.ErrNotFound when nobody is logged in.
func (s *SQLiteStorage) LoadSession(ctx context.Context) (model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return model.Session{}, err
	}

	var (
		session   model.Session
		expiresAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT token, username, user_id, expires_at
		FROM session
		WHERE id = 1
	`).Scan(&session.Token, &session.Username, &session.UserID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, fmt.Errorf("session: %w", common.ErrNotFound)
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if expiresAt.Valid {
		session.ExpiresAt = expiresAt.Time
	}
	return session, nil
}

// SaveSession replaces the stored session.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session model.Session) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	var expiresAt sql.NullTime
	if !session.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: session.ExpiresAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, token, username, user_id, expires_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			username = excluded.username,
			user_id = excluded.user_id,
			expires_at = excluded.expires_at,
			created_at = CURRENT_TIMESTAMP
	`, session.Token, session.Username, session.UserID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ClearSession removes the stored session. Clearing when nobody is logged in
// is not an error.
func (s *SQLiteStorage) ClearSession(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
