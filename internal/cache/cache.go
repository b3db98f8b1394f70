package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProductListTTL = 5 * time.Minute
	ProductTTL     = 10 * time.Minute
)

func ProductListKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "products:list:" + hex.EncodeToString(sum[:8])
}

func ProductKey(id string) string { return "product:" + id }

// InvalidateProducts drops every cached listing plus the given products.
func (c *Client) InvalidateProducts(ctx context.Context, ids ...string) {
	c.DeletePattern(ctx, "products:list:*")
	for _, id := range ids {
		c.Del(ctx, ProductKey(id))
	}
}

func cartChannel(userID string) string { return "cart:" + userID }

// CartChanged tells connected clients of a user that their cart moved on.
func (c *Client) CartChanged(ctx context.Context, userID, event string) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Publish(ctx, cartChannel(userID), event).Err(); err != nil {
		log.Printf("⚠️ cart publish for %s: %v", userID, err)
	}
}

// SubscribeCart returns nil when Redis is not configured.
func (c *Client) SubscribeCart(ctx context.Context, userID string) *redis.PubSub {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Subscribe(ctx, cartChannel(userID))
}
