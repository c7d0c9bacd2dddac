package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "bankctl:snapshot:"

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	Prefix   string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps snapshots in Redis, one JSON value per page.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects lazily to the configured Redis server.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("redis snapshot store requires an address")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(kind, filtersKey string, page int) string {
	return s.prefix + kind + ":" + strconv.Itoa(page) + ":" + filtersKey
}

// SavePage stores entry with the configured TTL (0 keeps it forever).
func (s *RedisStore) SavePage(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(entry.Kind, entry.FiltersKey, entry.Page), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadPage fetches a snapshot.
func (s *RedisStore) LoadPage(ctx context.Context, kind, filtersKey string, page int) (Entry, error) {
	value, err := s.client.Get(ctx, s.key(kind, filtersKey, page)).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, notFound(kind, filtersKey, page)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return entry, nil
}

// InvalidateKind deletes every snapshot of kind.
func (s *RedisStore) InvalidateKind(ctx context.Context, kind string) error {
	iter := s.client.Scan(ctx, 0, s.prefix+kind+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan snapshots: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}
