package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankctl/internal/common"
)

func newViper(t *testing.T, values map[string]any) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.Set("services.user_url", "http://users.local")
	v.Set("services.bank_url", "http://bank.local")
	v.Set("services.notification_url", "http://notify.local")
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := LoadFrom(newViper(t, nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, CacheSQLite, cfg.Cache.Backend)
	assert.Equal(t, DefaultRedisPrefix, cfg.Cache.Redis.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "/home/tester/.local/share/bankctl/bankctl.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Services.PresenceURL)
}

func TestLoadFrom_EnvFallback(t *testing.T) {
	t.Setenv("PRESENCE_URL", "ws://presence.local/ws")
	t.Setenv("BANK_SERVICE_URL", "http://ignored.local")

	cfg, err := LoadFrom(newViper(t, nil))
	require.NoError(t, err)

	assert.Equal(t, "ws://presence.local/ws", cfg.Services.PresenceURL)
	// Viper values win over the direct environment.
	assert.Equal(t, "http://bank.local", cfg.Services.BankURL)
}

func TestLoadFrom_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
services:
  user_url: https://users.example.com
  bank_url: https://bank.example.com
  notification_url: https://notify.example.com
list:
  page_size: 25
cache:
  backend: redis
  redis:
    addr: localhost:6379
    db: 2
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "https://users.example.com", cfg.Services.UserURL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		values  map[string]any
		wantErr error
		name    string
	}{
		{
			name:    "missing user url",
			values:  map[string]any{"services.user_url": ""},
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "relative bank url",
			values:  map[string]any{"services.bank_url": "bank.local"},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "http presence url",
			values:  map[string]any{"services.presence_url": "http://presence.local"},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "zero page size",
			values:  map[string]any{"list.page_size": 0},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "unknown cache backend",
			values:  map[string]any{"cache.backend": "memcached"},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "redis without addr",
			values:  map[string]any{"cache.backend": "redis"},
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "negative ttl",
			values:  map[string]any{"cache.ttl": -time.Minute},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "bad log level",
			values:  map[string]any{"logging.level": "loud"},
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "bad log format",
			values:  map[string]any{"logging.format": "xml"},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("USER_SERVICE_URL", "")
			_, err := LoadFrom(newViper(t, tt.values))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("BANKCTL_DATA", "/var/lib/bankctl")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/db.sqlite", "/home/tester/db.sqlite"},
		{"$BANKCTL_DATA/db.sqlite", "/var/lib/bankctl/db.sqlite"},
		{"relative/db.sqlite", "relative/db.sqlite"},
		{"~other/db.sqlite", "~other/db.sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}
