package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix  = "user:%d"
	CategoriesKey  = "categories:all"
	keyspacePrefix = "inkwell:"
)

const (
	UserTTL       = 5 * time.Minute
	CategoriesTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// Cache is a read-through cache in front of Redis. A Cache with a nil client
// is valid and always loads from the source.
type Cache struct {
	client *redis.Client
}

// New wraps client, which may be nil.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Aside fills dest from the cache, or calls load and stores what it put in
// dest. Redis failures are logged and fall through to load; errors from load
// are returned unchanged and nothing is cached.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if !c.Enabled() {
		return load()
	}

	fullKey := keyspacePrefix + key
	space := keyspace(key)

	ctx, span := observability.TraceRedisOperation(ctx, "get")
	raw, err := c.client.Get(ctx, fullKey).Bytes()
	span.End()

	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheLookups.WithLabelValues(space, "hit").Inc()
			return nil
		}
		// Undecodable entries are treated as misses and overwritten.
		observability.CacheLookups.WithLabelValues(space, "miss").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheLookups.WithLabelValues(space, "miss").Inc()
	default:
		observability.CacheLookups.WithLabelValues(space, "error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := load(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := c.client.Set(ctx, fullKey, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate removes keys. Failures are logged; stale entries expire on their own.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyspacePrefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// Ping reports whether Redis is reachable. A disabled cache is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

func keyspace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
