package admin

import (
	"net/http"

	"dryfruit_back_end/internal/middleware"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/content"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/messages
func (h *Handler) ListMessages(c *gin.Context) {
	pg := response.Page(c)
	page, err := h.Content.ListMessages(c.Request.Context(), content.MessageQuery{
		Page:   pg.Page,
		Limit:  pg.Limit,
		Search: c.Query("search"),
		Status: c.Query("status"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// PUT /api/admin/messages/:id
func (h *Handler) UpdateMessage(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	msg, err := h.Content.UpdateMessageStatus(c.Request.Context(), c.Param("id"), input.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordChange(c, "", nil, gin.H{"status": msg.Status})
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// DELETE /api/admin/messages/:id
func (h *Handler) DeleteMessage(c *gin.Context) {
	if err := h.Content.DeleteMessage(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

// GET /api/admin/settings
func (h *Handler) GetSettings(c *gin.Context) {
	st, err := h.Content.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st})
}

// PUT /api/admin/settings
func (h *Handler) SaveSettings(c *gin.Context) {
	var st models.Settings
	if err := c.ShouldBindJSON(&st); err != nil {
		response.Invalid(c, err)
		return
	}

	before, err := h.Content.SaveSettings(c.Request.Context(), &st)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordChange(c, "settings", before, st)
	c.JSON(http.StatusOK, gin.H{"settings": st})
}

// POST /api/admin/blog
func (h *Handler) CreatePost(c *gin.Context) {
	var post models.BlogPost
	if err := c.ShouldBindJSON(&post); err != nil {
		response.Invalid(c, err)
		return
	}
	if post.Author == "" {
		post.Author = c.GetString("email")
	}

	created, err := h.Content.CreatePost(c.Request.Context(), &post)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordChange(c, created.Slug, nil, created)
	c.JSON(http.StatusCreated, gin.H{"post": created})
}
