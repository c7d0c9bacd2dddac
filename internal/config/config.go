package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/bankctl/internal/common"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Defaults.
const (
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultPageSize     = 10
	DefaultDatabasePath = "$HOME/.local/share/bankctl/bankctl.db"
	DefaultRedisPrefix  = "bankctl:snapshot:"
)

// Services holds the base URLs of the remote collaborators.
type Services struct {
	UserURL         string
	BankURL         string
	NotificationURL string
	PresenceURL     string
}

// Redis configures the redis snapshot backend.
type Redis struct {
	Addr     string
	Password string
	Prefix   string
	DB       int
}

// Cache configures where list snapshots are kept.
type Cache struct {
	Backend string
	Redis   Redis
	TTL     time.Duration
}

// Logging configures log output.
type Logging struct {
	Level  string
	Format string
}

// Config is the resolved application configuration.
type Config struct {
	Services     Services
	DatabasePath string
	Logging      Logging
	Cache        Cache
	HTTPTimeout  time.Duration
	PageSize     int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("list.page_size", DefaultPageSize)
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("cache.backend", CacheSQLite)
	v.SetDefault("cache.redis.prefix", DefaultRedisPrefix)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load resolves the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom resolves the configuration from v. It follows this precedence:
// 1. Viper configuration (flags, BANKCTL_ env vars, config file)
// 2. Direct environment variables (USER_SERVICE_URL and friends)
// 3. Default values
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Services: Services{
			UserURL:         v.GetString("services.user_url"),
			BankURL:         v.GetString("services.bank_url"),
			NotificationURL: v.GetString("services.notification_url"),
			PresenceURL:     v.GetString("services.presence_url"),
		},
		DatabasePath: ExpandPath(v.GetString("database.path")),
		Logging: Logging{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Cache: Cache{
			Backend: strings.ToLower(v.GetString("cache.backend")),
			Redis: Redis{
				Addr:     v.GetString("cache.redis.addr"),
				Password: v.GetString("cache.redis.password"),
				Prefix:   v.GetString("cache.redis.prefix"),
				DB:       v.GetInt("cache.redis.db"),
			},
			TTL: v.GetDuration("cache.ttl"),
		},
		HTTPTimeout: v.GetDuration("http.timeout"),
		PageSize:    v.GetInt("list.page_size"),
	}

	envFallback(&cfg.Services.UserURL, "USER_SERVICE_URL")
	envFallback(&cfg.Services.BankURL, "BANK_SERVICE_URL")
	envFallback(&cfg.Services.NotificationURL, "NOTIFICATION_SERVICE_URL")
	envFallback(&cfg.Services.PresenceURL, "PRESENCE_URL")

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = ExpandPath(DefaultDatabasePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envFallback(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// Validate checks the configuration for missing or malformed values.
func (c *Config) Validate() error {
	services := []struct {
		name  string
		value string
	}{
		{"services.user_url", c.Services.UserURL},
		{"services.bank_url", c.Services.BankURL},
		{"services.notification_url", c.Services.NotificationURL},
	}
	for _, s := range services {
		if s.value == "" {
			return fmt.Errorf("%w: %s", common.ErrMissingConfig, s.name)
		}
		if err := checkURL(s.value, "http", "https"); err != nil {
			return fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, s.name, err)
		}
	}
	if c.Services.PresenceURL != "" {
		if err := checkURL(c.Services.PresenceURL, "ws", "wss"); err != nil {
			return fmt.Errorf("%w: services.presence_url: %v", common.ErrInvalidConfig, err)
		}
	}

	if c.PageSize <= 0 || c.PageSize > 500 {
		return fmt.Errorf("%w: list.page_size must be between 1 and 500, got %d", common.ErrInvalidConfig, c.PageSize)
	}

	switch c.Cache.Backend {
	case CacheSQLite, CacheNone:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("%w: cache.redis.addr is required for the redis backend", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: cache.backend must be sqlite, redis or none, got %q", common.ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl cannot be negative", common.ErrInvalidConfig)
	}

	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", common.ErrInvalidConfig, err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q must be an absolute %s URL", raw, strings.Join(schemes, " or "))
}
