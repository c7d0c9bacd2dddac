package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return ErrServiceUnavailable
			}
			return nil
		}, fastRetry(5))

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrServiceUnavailable
		}, fastRetry(2))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.Equal(t, 2, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := WithRetry(context.Background(), func() error {
			calls++
			return &RetryableError{Err: boom, Retryable: false}
		}, fastRetry(5))

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("unbounded attempts stop on context cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls == 4 {
				cancel()
			}
			return ErrServiceUnavailable
		}, fastRetry(-1))

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 4, calls)
	})
}

func TestUserError(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewUserError("could not reach the bank service", inner)

	assert.Equal(t, "could not reach the bank service: connection refused", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "just a message", NewUserError("just a message", nil).Error())
}

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, slog.LevelInfo, "json")
		require.NoError(t, err)

		logger.Info("loaded page", "page", 2)
		assert.Contains(t, buf.String(), `"page":2`)
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, slog.LevelWarn, "console")
		require.NoError(t, err)

		logger.Info("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := NewLogger(&bytes.Buffer{}, slog.LevelInfo, "xml")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLogHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, slog.LevelDebug, "json")
	require.NoError(t, err)

	prev := slog.Default()
	slog.SetDefault(logger)
	t.Cleanup(func() { slog.SetDefault(prev) })

	LogError(errors.New("disk full"), "save failed", Fields{"kind": "users"})
	LogDebug("cache hit", Fields{"page": 3})

	out := buf.String()
	assert.Contains(t, out, `"msg":"save failed"`)
	assert.Contains(t, out, `"error":"disk full"`)
	assert.Contains(t, out, `"kind":"users"`)
	assert.Contains(t, out, `"msg":"cache hit"`)
	assert.Contains(t, out, `"page":3`)
}

func TestMatchRegex(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    bool
		wantErr bool
	}{
		{name: "match", pattern: `^\d{5}$`, text: "10115", want: true},
		{name: "cached pattern no match", pattern: `^\d{5}$`, text: "1011", want: false},
		{name: "invalid pattern", pattern: `(`, text: "x", wantErr: true},
		{name: "invalid pattern again", pattern: `(`, text: "y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchRegex(tt.pattern, tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
