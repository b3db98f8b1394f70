package cart

import (
	"net/http"

	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/cart"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	carts    *cart.Service
	live     Subscriber
	upgrader websocket.Upgrader
}

// NewHandler takes the storefront URL; live sync accepts browser
// connections from that origin only.
func NewHandler(carts *cart.Service, live Subscriber, frontendURL string) *Handler {
	return &Handler{
		carts:    carts,
		live:     live,
		upgrader: websocket.Upgrader{CheckOrigin: sameOrigin(frontendURL)},
	}
}

type itemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
	VariantID string `json:"variantId"`
}

// GET /api/cart
func (h *Handler) Get(c *gin.Context) {
	view, err := h.carts.Get(c.Request.Context(), c.GetString("user_id"), c.Query("couponCode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// POST /api/cart
func (h *Handler) Add(c *gin.Context) {
	var input itemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	view, err := h.carts.Add(c.Request.Context(), c.GetString("user_id"), input.ProductID, *input.Quantity, input.VariantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PUT /api/cart
func (h *Handler) Update(c *gin.Context) {
	var input itemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	view, err := h.carts.Update(c.Request.Context(), c.GetString("user_id"), input.ProductID, *input.Quantity, input.VariantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DELETE /api/cart/:productId
func (h *Handler) Remove(c *gin.Context) {
	view, err := h.carts.Remove(c.Request.Context(), c.GetString("user_id"), c.Param("productId"), c.Query("variantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DELETE /api/cart
func (h *Handler) Clear(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), c.GetString("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "items": []interface{}{}, "count": 0})
}
