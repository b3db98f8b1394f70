package admin

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/response"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/audit?day=YYYY-MM-DD&limit=N
func (h *Handler) AuditLogs(c *gin.Context) {
	day := c.Query("day")
	if day != "" {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			response.Error(c, apperr.Validation("day must be YYYY-MM-DD"))
			return
		}
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.Auditor.List(c.Request.Context(), day, limit)
	if err != nil {
		log.Printf("❌ audit log read: %v", err)
		response.Error(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":    logs,
		"total":   len(logs),
		"enabled": h.Auditor.Enabled(),
	})
}
