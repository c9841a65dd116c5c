package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackathon/churninsight-go/internal/models"
)

// HistoryCacheEntry represents one cached history page with metadata.
type HistoryCacheEntry struct {
	Records   []models.HistoryRecord `json:"records"`
	CachedAt  time.Time              `json:"cached_at"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// HistoryCacheStats tracks cache performance metrics.
type HistoryCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// RedisHistoryCache caches history pages in Redis, keyed by query
// fingerprint. It holds live remote pages for a short TTL only; it is not
// an offline store. A nil cache is valid and behaves as a permanent miss.
type RedisHistoryCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string

	mu    sync.RWMutex
	stats HistoryCacheStats
}

// NewRedisHistoryCache creates a new Redis-based history page cache.
func NewRedisHistoryCache(redisClient *redis.Client, ttl time.Duration) *RedisHistoryCache {
	return &RedisHistoryCache{
		redis:  redisClient,
		ttl:    ttl,
		prefix: "history_page:",
	}
}

// Get retrieves a cached page for a query fingerprint.
func (c *RedisHistoryCache) Get(ctx context.Context, fingerprint string) ([]models.HistoryRecord, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	cacheKey := c.prefix + fingerprint

	data, err := c.redis.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		log.Printf("Redis error getting history page %s: %v", fingerprint, err)
		c.miss()
		return nil, false
	}

	var entry HistoryCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		log.Printf("Error deserializing cached history page %s: %v", fingerprint, err)
		c.miss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.miss()
		return nil, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()

	return entry.Records, true
}

// Set stores a page for a query fingerprint with the configured TTL.
func (c *RedisHistoryCache) Set(ctx context.Context, fingerprint string, records []models.HistoryRecord) {
	if c == nil || c.redis == nil {
		return
	}
	cacheKey := c.prefix + fingerprint

	now := time.Now()
	entry := HistoryCacheEntry{
		Records:   records,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("Error serializing history page %s: %v", fingerprint, err)
		return
	}

	if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		log.Printf("Redis error setting history page %s: %v", fingerprint, err)
		return
	}

	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()
}

// GetStats returns a copy of the current cache statistics.
func (c *RedisHistoryCache) GetStats() HistoryCacheStats {
	if c == nil {
		return HistoryCacheStats{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *RedisHistoryCache) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}
