package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scanmap-server/internal/shared/config"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "db_cache_"

// Cache is a tag-invalidated read cache for query results. Every cached entry
// is keyed by the query identity plus the current version of each tag it
// depends on; invalidating a tag bumps its version, orphaning every entry
// built against the old version. Orphans expire via TTL.
type Cache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// Connect dials Redis per configuration. When Redis is disabled the returned
// cache is non-nil but every lookup is a miss, so callers never branch.
func Connect() (*Cache, error) {
	cfg := config.GlobalConfig.Redis
	logger := slog.With("component", "cache", "operation", "connect")

	if !cfg.Enabled {
		logger.Info("Redis disabled, query cache is a no-op")
		return &Cache{logger: logger}, nil
	}

	var rdb *redis.Client

	if cfg.URL != "" {
		logger.Debug("Connecting to Redis using URL")
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			logger.Error("Failed to parse Redis URL", "error", err)
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		rdb = redis.NewClient(opts)
	} else {
		logger.Debug("Connecting to Redis using host/port",
			"host", cfg.Host,
			"port", cfg.Port)

		rdb = redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to ping Redis", "error", err)
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")

	return &Cache{rdb: rdb, logger: logger}, nil
}

// Enabled reports whether a Redis client is backing the cache.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Ping checks cache connectivity. A disabled cache reports healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Get unmarshals the cached entry for key+tags into dest. The second return
// is false on a miss or any Redis failure; a broken cache never fails a read.
func (c *Cache) Get(ctx context.Context, key string, tags []string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}

	versionedKey, err := c.buildKey(ctx, key, tags)
	if err != nil {
		c.logger.Warn("Failed to resolve cache tag versions", "key", key, "error", err)
		return false
	}

	data, err := c.rdb.Get(ctx, versionedKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Failed to decode cached entry", "key", key, "error", err)
		return false
	}

	c.logger.Debug("Cache hit", "key", key)
	return true
}

// Set stores value under key+tags for ttl. Failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, tags []string, value interface{}, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}

	versionedKey, err := c.buildKey(ctx, key, tags)
	if err != nil {
		c.logger.Warn("Failed to resolve cache tag versions", "key", key, "error", err)
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", "key", key, "error", err)
		return
	}

	if err := c.rdb.Set(ctx, versionedKey, data, ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

// Invalidate bumps the version of each tag, expiring every entry that was
// built against it.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) {
	if c == nil || c.rdb == nil || len(tags) == 0 {
		return
	}

	pipe := c.rdb.Pipeline()
	for _, tag := range tags {
		pipe.Incr(ctx, tagVersionKey(tag))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Cache invalidation failed", "tags", tags, "error", err)
		return
	}

	c.logger.Debug("Cache tags invalidated", "tags", tags)
}

func (c *Cache) buildKey(ctx context.Context, key string, tags []string) (string, error) {
	if len(tags) == 0 {
		return keyPrefix + hashKey(key), nil
	}

	versionKeys := make([]string, len(tags))
	for i, tag := range tags {
		versionKeys[i] = tagVersionKey(tag)
	}

	versions, err := c.rdb.MGet(ctx, versionKeys...).Result()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, v := range versions {
		// Unset tags count as version zero
		if v == nil {
			sb.WriteString("0")
			continue
		}
		fmt.Fprintf(&sb, "%v", v)
	}

	return keyPrefix + hashKey(key) + "_" + hashKey(sb.String()), nil
}

func tagVersionKey(tag string) string {
	return "cache_tag:" + tag
}

func hashKey(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
