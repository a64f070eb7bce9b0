package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key written by RedisStore.
const DefaultKeyPrefix = "nestmap"

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `env:"ADDR"`
	Password  string `env:"PASSWORD"`
	DB        int    `env:"DB" envDefault:"0"`
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"nestmap"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// NewRedisClient creates a client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStore is a Store backed by Redis. Values are stored as JSON strings.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps client. An empty prefix uses DefaultKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Name identifies the store in cache metrics.
func (s *RedisStore) Name() string { return "redis" }

// RedisKey returns the Redis key used for key.
func (s *RedisStore) RedisKey(key Key) string {
	var sb strings.Builder
	sb.WriteString(s.prefix)
	sb.WriteByte(':')
	sb.WriteString(string(key.Resource))
	sb.WriteByte(':')
	sb.WriteString(key.ID)
	return sb.String()
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key Key, dest any) (bool, error) {
	data, err := s.client.Get(ctx, s.RedisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key Key, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.RedisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Invalidate implements Store.
func (s *RedisStore) Invalidate(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = s.RedisKey(k)
	}
	if err := s.client.Del(ctx, redisKeys...).Err(); err != nil {
		return fmt.Errorf("%w: invalidate: %v", ErrUnavailable, err)
	}
	return nil
}

// Ensure RedisStore implements Store interface.
var _ Store = (*RedisStore)(nil)
