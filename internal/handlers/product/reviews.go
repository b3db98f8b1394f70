package product

import (
	"net/http"

	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/catalog"

	"github.com/gin-gonic/gin"
)

// GET /api/products/:id/reviews
func (h *Handler) ListReviews(c *gin.Context) {
	page, err := h.catalog.ListReviews(c.Request.Context(), c.Param("id"), response.Page(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// POST /api/products/:id/reviews
func (h *Handler) AddReview(c *gin.Context) {
	var input struct {
		Rating  int    `json:"rating" binding:"required"`
		Title   string `json:"title"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	userID := c.GetString("user_id")
	u, err := h.profiles.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	review, err := h.catalog.AddReview(c.Request.Context(), userID, u.Name, c.Param("id"), catalog.ReviewInput{
		Rating:  input.Rating,
		Title:   input.Title,
		Content: input.Content,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// POST /api/reviews/:id/helpful
func (h *Handler) MarkHelpful(c *gin.Context) {
	review, err := h.catalog.MarkHelpful(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}
