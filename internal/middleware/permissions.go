package middleware

import (
	"log"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"

	"github.com/gin-gonic/gin"
)

// RequirePermission checks the caller's role against the static permission table.
func RequirePermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if !models.HasPermission(role, perm) {
			log.Printf("⛔ %s (%s) denied %s on %s", c.GetString("email"), role, perm, c.FullPath())
			response.Error(c, apperr.Forbidden("You do not have permission to perform this action"))
			return
		}
		c.Next()
	}
}
