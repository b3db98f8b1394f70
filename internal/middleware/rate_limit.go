package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/response"

	"github.com/gin-gonic/gin"
)

const (
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	CartMaxAdds         = 20
	ContactMaxMessages  = 5
	APIMaxRequests      = 300

	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	CartWindow       = time.Minute
	ContactWindow    = time.Hour
	APIWindow        = time.Minute
)

// Counter is the Redis windowed counter behind every limit. A disabled
// counter returns zero counts, so limits fail open without Redis.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	Count(ctx context.Context, key string) int64
	TTL(ctx context.Context, key string) time.Duration
	Del(ctx context.Context, keys ...string)
}

func tooMany(c *gin.Context, counter Counter, key, msg string, fallback time.Duration) {
	ttl := counter.TTL(c.Request.Context(), key)
	if ttl <= 0 {
		ttl = fallback
	}
	response.Error(c, apperr.RateLimited(msg, int(ttl.Seconds())))
}

// LoginRateLimit counts failed logins per email. Five failures lock the
// email out for fifteen minutes; a successful login resets the counter.
func LoginRateLimit(counter Counter) gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "login_attempts:" + strings.ToLower(strings.TrimSpace(input.Email))

		attempts := counter.Count(ctx, key)
		if attempts >= LoginMaxAttempts {
			tooMany(c, counter, key, fmt.Sprintf("Too many failed attempts. Try again in %d minutes", int(LoginCooldown.Minutes())), LoginCooldown)
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized, http.StatusForbidden:
			n, err := counter.Hit(ctx, key, LoginCooldown)
			if err != nil {
				log.Printf("⚠️ login rate limit: %v", err)
				return
			}
			if n >= LoginMaxAttempts {
				log.Printf("🔒 %s locked out after %d failed logins", input.Email, n)
			}
		case http.StatusOK:
			counter.Del(ctx, key)
		}
	}
}

// RegisterRateLimit counts successful registrations per IP.
func RegisterRateLimit(counter Counter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "register_attempts:" + c.ClientIP()

		if counter.Count(ctx, key) >= RegisterMaxAttempts {
			tooMany(c, counter, key, fmt.Sprintf("Too many registrations. Try again in %d minutes", int(RegisterCooldown.Minutes())), RegisterCooldown)
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusCreated {
			if _, err := counter.Hit(ctx, key, RegisterCooldown); err != nil {
				log.Printf("⚠️ register rate limit: %v", err)
			}
		}
	}
}

// limit is the fixed-window limiter behind the cart, contact and API limits.
// A Redis error lets the request through.
func limit(counter Counter, prefix string, keyOf func(*gin.Context) string, max int64, window time.Duration, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := keyOf(c)
		if id == "" {
			c.Next()
			return
		}
		key := prefix + id
		n, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			log.Printf("⚠️ rate limit %s: %v", prefix, err)
			c.Next()
			return
		}
		if n > max {
			tooMany(c, counter, key, msg, window)
			return
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(max, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max-n, 10))
		c.Next()
	}
}

func byUser(c *gin.Context) string { return c.GetString("user_id") }

func byIP(c *gin.Context) string { return c.ClientIP() }

// CartRateLimit caps cart additions per user. Runs after AuthRequired.
func CartRateLimit(counter Counter) gin.HandlerFunc {
	return limit(counter, "cart_add:", byUser, CartMaxAdds, CartWindow, "Too many cart updates. Slow down a little")
}

func ContactRateLimit(counter Counter) gin.HandlerFunc {
	return limit(counter, "contact:", byIP, ContactMaxMessages, ContactWindow, "Too many messages. Try again later")
}

func APIRateLimit(counter Counter) gin.HandlerFunc {
	return limit(counter, "api_requests:", byIP, APIMaxRequests, APIWindow, "Too many requests. Try again in a minute")
}
