// Package admin serves the back-office screens. Every route sits behind
// AuthRequired and RequireAdmin; mutations are wrapped in middleware.Audit.
package admin

import (
	"net/http"

	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/account"
	"dryfruit_back_end/internal/services/admin"
	"dryfruit_back_end/internal/services/catalog"
	"dryfruit_back_end/internal/services/checkout"
	"dryfruit_back_end/internal/services/content"
	"dryfruit_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Catalog  *catalog.Service
	Checkout *checkout.Service
	Admin    *admin.Service
	Accounts *account.Service
	Content  *content.Service
	Auditor  *utils.Auditor
}

type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d}
}

// GET /api/admin/analytics
func (h *Handler) Analytics(c *gin.Context) {
	a, err := h.Admin.Analytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
