package cache

import (
	"context"
	"time"
)

const ResendCodeCooldown = time.Minute

// BlacklistToken keeps a revoked token id until the token would have expired.
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if !c.enabled() || jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return c.rdb.Set(ctx, "blacklist:"+jti, "1", ttl).Err()
}

func (c *Client) IsBlacklisted(ctx context.Context, jti string) bool {
	if !c.enabled() || jti == "" {
		return false
	}
	return c.rdb.Exists(ctx, "blacklist:"+jti).Val() > 0
}

// AllowResend reports whether a verification code may be sent again.
func (c *Client) AllowResend(ctx context.Context, email string) bool {
	if !c.enabled() {
		return true
	}
	ok, err := c.rdb.SetNX(ctx, "resend_code:"+email, "1", ResendCodeCooldown).Result()
	return err != nil || ok
}
