package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates the Redis client backing the browse cache.
func NewRedis(addr, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	log.Printf("Redis client created (addr: %s)\n", addr)
	return rdb
}

const (
	browseVersionKey = "jobs:browse:ver"
	browseTTL        = 30 * time.Second
)

// JobsCache caches rendered browse pages. Every job mutation bumps a version
// counter that is part of the key, so stale pages simply stop being hit.
// A nil client disables caching entirely.
type JobsCache struct {
	RDB *redis.Client
}

func (c *JobsCache) key(ctx context.Context, query string) string {
	ver, err := c.RDB.Get(ctx, browseVersionKey).Int64()
	if err != nil {
		ver = 0
	}
	return fmt.Sprintf("jobs:browse:v%d:%s", ver, query)
}

// Get returns the cached page body for the query string, or "" on miss.
func (c *JobsCache) Get(ctx context.Context, query string) string {
	if c == nil || c.RDB == nil {
		return ""
	}
	body, err := c.RDB.Get(ctx, c.key(ctx, query)).Result()
	if err != nil {
		return ""
	}
	return body
}

func (c *JobsCache) Set(ctx context.Context, query string, body []byte) {
	if c == nil || c.RDB == nil {
		return
	}
	if err := c.RDB.Set(ctx, c.key(ctx, query), body, browseTTL).Err(); err != nil {
		log.Println("browse cache set failed:", err)
	}
}

// Invalidate bumps the version so all cached pages fall out of rotation.
func (c *JobsCache) Invalidate(ctx context.Context) {
	if c == nil || c.RDB == nil {
		return
	}
	if err := c.RDB.Incr(ctx, browseVersionKey).Err(); err != nil {
		log.Println("browse cache invalidate failed:", err)
	}
}
