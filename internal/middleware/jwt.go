package middleware

import (
	"context"
	"log"
	"strings"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// TokenCookie is the HttpOnly cookie the storefront sends instead of a header.
const TokenCookie = "token"

const claimsKey = "claims"

// Blacklist reports revoked token ids.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) bool
}

func AuthRequired(secret string, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			response.Error(c, apperr.Auth("Authentication required"))
			return
		}

		claims, err := utils.ParseJWT(secret, tokenString)
		if err != nil {
			log.Printf("❌ JWT rejected: %v", err)
			response.Error(c, apperr.Auth("Invalid or expired token"))
			return
		}
		if blacklist != nil && blacklist.IsBlacklisted(c.Request.Context(), claims.ID) {
			response.Error(c, apperr.Auth("Token has been revoked"))
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// Claims returns the parsed token set by AuthRequired, or nil.
func Claims(c *gin.Context) *utils.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}
