package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()

	var dst map[string]string
	assert.False(t, c.GetJSON(ctx, "k", &dst))
	c.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute)
	n, err := c.Hit(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.False(t, c.IsBlacklisted(ctx, "jti"))
	assert.NoError(t, c.BlacklistToken(ctx, "jti", time.Hour))
	assert.True(t, c.AllowResend(ctx, "a@b.c"))
	assert.Nil(t, c.SubscribeCart(ctx, "u1"))
	c.CartChanged(ctx, "u1", "updated")
	c.InvalidateProducts(ctx, "p1")

	assert.False(t, New(nil).IsBlacklisted(ctx, "jti"))
}

func TestProductListKeyIsStable(t *testing.T) {
	a := ProductListKey("page=1&limit=20")
	assert.Equal(t, a, ProductListKey("page=1&limit=20"))
	assert.NotEqual(t, a, ProductListKey("page=2&limit=20"))
	assert.Contains(t, a, "products:list:")
}
