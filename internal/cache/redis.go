package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the shared Redis connection. A nil Client, or one built on a
// nil connection, turns every call into a no-op.
type Client struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) enabled() bool { return c != nil && c.rdb != nil }

func (c *Client) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	if !c.enabled() {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (c *Client) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("⚠️ Redis SET %s: %v", key, err)
	}
}

func (c *Client) DeletePattern(ctx context.Context, pattern string) {
	if !c.enabled() {
		return
	}
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		c.rdb.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("⚠️ Redis SCAN %s: %v", pattern, err)
	}
}

// Hit increments a windowed counter and returns the new count.
func (c *Client) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	pipe := c.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *Client) Count(ctx context.Context, key string) int64 {
	if !c.enabled() {
		return 0
	}
	n, _ := c.rdb.Get(ctx, key).Int64()
	return n
}

func (c *Client) TTL(ctx context.Context, key string) time.Duration {
	if !c.enabled() {
		return 0
	}
	return c.rdb.TTL(ctx, key).Val()
}

func (c *Client) Del(ctx context.Context, keys ...string) {
	if !c.enabled() {
		return
	}
	c.rdb.Del(ctx, keys...)
}
