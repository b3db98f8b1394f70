package admin

import (
	"log"
	"net/http"
	"strconv"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/middleware"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/catalog"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GET /api/admin/products
func (h *Handler) ListProducts(c *gin.Context) {
	pg := response.Page(c)
	page, err := h.Catalog.List(c.Request.Context(), catalog.Query{
		Page:     pg.Page,
		Limit:    pg.Limit,
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Status:   c.Query("status"),
		Admin:    true,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/admin/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.Catalog.Get(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// POST /api/admin/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Invalid(c, err)
		return
	}
	p.ID = primitive.NilObjectID

	created, err := h.Catalog.Create(c.Request.Context(), &p)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordChange(c, created.ID.Hex(), nil, created)
	c.JSON(http.StatusCreated, gin.H{"product": created})
}

// PUT /api/admin/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	var patch catalog.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Invalid(c, err)
		return
	}

	touchesPrice := patch.Price != nil || patch.OriginalPrice != nil || patch.Variants != nil
	if touchesPrice && !models.HasPermission(c.GetString("role"), models.PermProductsPrice) {
		response.Error(c, apperr.Forbidden("You are not allowed to change prices"))
		return
	}

	before, after, err := h.Catalog.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	if before.Price != after.Price {
		log.Printf("💰 Price of %s changed %.2f → %.2f by %s", after.Name, before.Price, after.Price, c.GetString("email"))
	}
	middleware.RecordChange(c, after.ID.Hex(), before, after)
	c.JSON(http.StatusOK, gin.H{"product": after})
}

// DELETE /api/admin/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	p, err := h.Catalog.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordChange(c, p.ID.Hex(), p, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// POST /api/admin/products/:id/images
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, apperr.Validation("An image file is required"))
		return
	}

	url, err := h.Catalog.UploadImage(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordChange(c, "", nil, gin.H{"image": url})
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// POST /api/admin/products/:id/stock
func (h *Handler) AdjustStock(c *gin.Context) {
	var input struct {
		Delta     int    `json:"delta" binding:"required"`
		VariantID string `json:"variantId"`
		Reason    string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	p, err := h.Catalog.AdjustStock(c.Request.Context(), c.Param("id"), input.VariantID, input.Delta, input.Reason, c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.RecordChange(c, p.ID.Hex(), nil, gin.H{"delta": input.Delta, "variantId": input.VariantID, "reason": input.Reason})
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// GET /api/admin/products/:id/movements
func (h *Handler) Movements(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	moves, err := h.Catalog.Movements(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": moves})
}
