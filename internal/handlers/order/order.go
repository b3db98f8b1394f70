package order

import (
	"net/http"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/checkout"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	checkout *checkout.Service
	invoices Invoices
	webhooks Webhooks
}

func NewHandler(svc *checkout.Service, invoices Invoices, webhooks Webhooks) *Handler {
	return &Handler{checkout: svc, invoices: invoices, webhooks: webhooks}
}

// POST /api/orders
func (h *Handler) Create(c *gin.Context) {
	var input struct {
		AddressID       string                  `json:"addressId"`
		ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
		PaymentMethod   string                  `json:"paymentMethod" binding:"required"`
		CouponCode      string                  `json:"couponCode"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	placed, err := h.checkout.CreateOrder(c.Request.Context(), c.GetString("user_id"), checkout.CreateOrderInput{
		AddressID:       input.AddressID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		CouponCode:      input.CouponCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, placed)
}

// GET /api/orders
func (h *Handler) List(c *gin.Context) {
	orders, err := h.checkout.ListMyOrders(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GET /api/orders/:id
func (h *Handler) Get(c *gin.Context) {
	o, err := h.checkout.GetOrder(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

// POST /api/orders/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	// the body is optional
	_ = c.ShouldBindJSON(&input)

	o, err := h.checkout.CancelOrder(c.Request.Context(), c.GetString("user_id"), c.Param("id"), input.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": o})
}
