// Package product serves the public catalog and product reviews.
package product

import (
	"context"
	"net/http"
	"strconv"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/catalog"

	"github.com/gin-gonic/gin"
)

// Profiles looks up the reviewer's display name.
type Profiles interface {
	Me(ctx context.Context, userID string) (*models.User, error)
}

type Handler struct {
	catalog  *catalog.Service
	profiles Profiles
}

func NewHandler(catalog *catalog.Service, profiles Profiles) *Handler {
	return &Handler{catalog: catalog, profiles: profiles}
}

// GET /api/products
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	result, err := h.catalog.List(c.Request.Context(), catalog.Query{
		Page:     page,
		Limit:    limit,
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/products/:id accepts the hex id, the legacy numeric id or the slug.
func (h *Handler) Get(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// GET /api/products/categories
func (h *Handler) Categories(c *gin.Context) {
	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}
