package admin

import (
	"log"
	"net/http"

	"dryfruit_back_end/internal/middleware"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/account"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	pg := response.Page(c)
	page, err := h.Accounts.ListUsers(c.Request.Context(), account.UserQuery{
		Page:   pg.Page,
		Limit:  pg.Limit,
		Search: c.Query("search"),
		Role:   c.Query("role"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// PUT /api/admin/users/:id/role
func (h *Handler) SetRole(c *gin.Context) {
	var input struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	before, after, err := h.Accounts.SetRole(c.Request.Context(), c.GetString("user_id"), c.GetString("role"), c.Param("id"), input.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	log.Printf("🔑 %s is now %s (was %s)", after.Email, after.Role, before.Role)
	middleware.RecordChange(c, after.ID.Hex(), gin.H{"role": before.Role}, gin.H{"role": after.Role})
	c.JSON(http.StatusOK, gin.H{"user": after})
}
