package middleware

import (
	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"

	"github.com/gin-gonic/gin"
)

// RequireAdmin lets admin and super_admin through. Must run after AuthRequired.
func RequireAdmin(c *gin.Context) {
	if !models.IsAdminRole(c.GetString("role")) {
		response.Error(c, apperr.Forbidden("Admin access required"))
		return
	}
	c.Next()
}
