package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Cache TTL constants
	InitialTTL = 5 * time.Minute
	MaxTTL     = 24 * time.Hour

	// Cache key prefix
	CacheKeyPrefix = "plandash:cache:"

	// Stats keys
	StatsHitsKey   = "plandash:stats:hits"
	StatsMissesKey = "plandash:stats:misses"
)

// Config selects the Redis instance. A disabled config yields a no-op cache.
type Config struct {
	Enabled  bool
	Addr     string
	Password string
}

// Entry is a cached response body with its adaptive TTL bookkeeping
type Entry struct {
	Key        string        `json:"key"`
	Payload    []byte        `json:"payload"`
	CachedAt   time.Time     `json:"cached_at"`
	HitCount   int           `json:"hit_count"`
	CurrentTTL time.Duration `json:"current_ttl"`
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	TotalKeys  int64   `json:"total_keys"`
	MemoryUsed string  `json:"memory_used"`
	Uptime     string  `json:"uptime"`
}

// Cache handles Redis caching operations
type Cache struct {
	client  *redis.Client
	enabled bool
	log     *zap.Logger
}

// New creates a cache for cfg. An unreachable Redis disables caching instead of failing.
func New(ctx context.Context, cfg Config, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}

	if !cfg.Enabled {
		log.Info("Redis cache is disabled")
		return &Cache{enabled: false, log: log}
	}

	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Failed to connect to Redis. Cache disabled.",
			zap.String("address", addr),
			zap.Error(err),
		)
		_ = client.Close()
		return &Cache{enabled: false, log: log}
	}

	log.Info("Redis cache enabled", zap.String("address", addr))
	return NewWithClient(client, log)
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{client: client, enabled: true, log: log}
}

// IsEnabled returns whether caching is enabled
func (c *Cache) IsEnabled() bool {
	return c.enabled
}

func redisKey(key string) string {
	return CacheKeyPrefix + key
}

// Get returns the payload stored under key and doubles its TTL, up to MaxTTL
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.GetEntry(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Payload, true
}

// GetEntry is Get with the bookkeeping fields
func (c *Cache) GetEntry(ctx context.Context, key string) (*Entry, bool) {
	if !c.enabled {
		return nil, false
	}

	rk := redisKey(key)

	data, err := c.client.Get(ctx, rk).Bytes()
	if err == redis.Nil {
		c.incrementMisses(ctx)
		return nil, false
	} else if err != nil {
		c.log.Warn("Cache get error", zap.String("key", key), zap.Error(err))
		c.incrementMisses(ctx)
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn("Cache unmarshal error", zap.String("key", key), zap.Error(err))
		c.incrementMisses(ctx)
		return nil, false
	}

	// Cache hit! Update TTL (double it, up to max)
	entry.HitCount++
	newTTL := entry.CurrentTTL * 2
	if newTTL > MaxTTL {
		newTTL = MaxTTL
	}
	entry.CurrentTTL = newTTL

	if err := c.store(ctx, rk, &entry, newTTL); err != nil {
		c.log.Warn("Failed to update cache TTL", zap.String("key", key), zap.Error(err))
	}

	c.incrementHits(ctx)
	return &entry, true
}

// Set stores payload under key with the initial TTL
func (c *Cache) Set(ctx context.Context, key string, payload []byte) error {
	if !c.enabled {
		return nil
	}

	entry := &Entry{
		Key:        key,
		Payload:    payload,
		CachedAt:   time.Now(),
		HitCount:   0,
		CurrentTTL: InitialTTL,
	}

	return c.store(ctx, redisKey(key), entry, InitialTTL)
}

func (c *Cache) store(ctx context.Context, rk string, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, rk, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// Invalidate removes every entry whose key starts with prefix. An empty
// prefix removes all entries but keeps the stats.
func (c *Cache) Invalidate(ctx context.Context, prefix string) error {
	if !c.enabled {
		return nil
	}

	keys, err := c.client.Keys(ctx, CacheKeyPrefix+escapePattern(prefix)+"*").Result()
	if err != nil {
		return fmt.Errorf("failed to get cache keys: %w", err)
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}

	c.log.Debug("Cache invalidated", zap.String("prefix", prefix), zap.Int("keys", len(keys)))
	return nil
}

// GetStats returns cache statistics
func (c *Cache) GetStats(ctx context.Context) (*CacheStats, error) {
	if !c.enabled {
		return &CacheStats{}, nil
	}

	// Get hit/miss counts
	hits, _ := c.client.Get(ctx, StatsHitsKey).Int64()
	misses, _ := c.client.Get(ctx, StatsMissesKey).Int64()

	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	keys, err := c.client.Keys(ctx, CacheKeyPrefix+"*").Result()
	if err != nil {
		c.log.Warn("Failed to get cache keys", zap.Error(err))
	}

	info, err := c.client.Info(ctx, "memory", "server").Result()
	memoryUsed := "N/A"
	uptime := "N/A"

	if err == nil {
		if v := parseInfoField(info, "used_memory_human"); v != "" {
			memoryUsed = v
		}
		uptimeSecs := parseInfoField(info, "uptime_in_seconds")
		if secs, err := strconv.Atoi(uptimeSecs); err == nil {
			uptime = (time.Duration(secs) * time.Second).String()
		}
	}

	return &CacheStats{
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
		TotalKeys:  int64(len(keys)),
		MemoryUsed: memoryUsed,
		Uptime:     uptime,
	}, nil
}

// Clear removes all cache entries and resets the stats
func (c *Cache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	if err := c.Invalidate(ctx, ""); err != nil {
		return err
	}

	// Reset stats
	c.client.Del(ctx, StatsHitsKey, StatsMissesKey)

	return nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.enabled && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// incrementHits increments the cache hit counter
func (c *Cache) incrementHits(ctx context.Context) {
	c.client.Incr(ctx, StatsHitsKey)
}

// incrementMisses increments the cache miss counter
func (c *Cache) incrementMisses(ctx context.Context) {
	c.client.Incr(ctx, StatsMissesKey)
}

var patternEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapePattern quotes glob characters of a KEYS pattern
func escapePattern(s string) string {
	return patternEscaper.Replace(s)
}

// parseInfoField extracts a field value from Redis INFO output
func parseInfoField(info, field string) string {
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, field+":") {
			return strings.TrimPrefix(line, field+":")
		}
	}
	return ""
}
