package admin

import (
	"net/http"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/middleware"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/admin"
	"dryfruit_back_end/internal/services/checkout"
	"dryfruit_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/orders
func (h *Handler) ListOrders(c *gin.Context) {
	pg := response.Page(c)
	page, err := h.Admin.ListOrders(c.Request.Context(), admin.OrderQuery{
		Page:          pg.Page,
		Limit:         pg.Limit,
		Search:        c.Query("search"),
		Status:        c.Query("status"),
		PaymentStatus: c.Query("paymentStatus"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/admin/orders/:orderNumber
func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.Checkout.GetOrderAsAdmin(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

type orderState struct {
	Status           models.OrderStatus   `json:"status"`
	PaymentStatus    models.PaymentStatus `json:"paymentStatus"`
	TrackingNumber   string               `json:"trackingNumber,omitempty"`
	ShippingProvider string               `json:"shippingProvider,omitempty"`
}

func stateOf(o *models.Order) orderState {
	return orderState{o.Status, o.PaymentStatus, o.TrackingNumber, o.ShippingProvider}
}

// PUT /api/admin/orders/:orderNumber
func (h *Handler) UpdateOrder(c *gin.Context) {
	var input struct {
		Status           *string `json:"status"`
		PaymentStatus    *string `json:"paymentStatus"`
		TrackingNumber   *string `json:"trackingNumber"`
		ShippingProvider *string `json:"shippingProvider"`
		Note             string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}
	if input.PaymentStatus != nil && *input.PaymentStatus == string(models.PaymentRefunded) &&
		!models.HasPermission(c.GetString("role"), models.PermOrdersRefund) {
		response.Error(c, apperr.Forbidden("You are not allowed to refund orders"))
		return
	}

	ctx := c.Request.Context()
	number := c.Param("orderNumber")
	before, err := h.Checkout.GetOrderAsAdmin(ctx, number)
	if err != nil {
		response.Error(c, err)
		return
	}

	after, err := h.Checkout.AdminUpdate(ctx, c.GetString("user_id"), number, checkout.AdminUpdateInput{
		Status:           input.Status,
		PaymentStatus:    input.PaymentStatus,
		TrackingNumber:   input.TrackingNumber,
		ShippingProvider: input.ShippingProvider,
		Note:             input.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if after.PaymentStatus == models.PaymentRefunded && before.PaymentStatus != models.PaymentRefunded {
		h.Auditor.LogAction(c, utils.ActionOrderRefund, utils.ResourceOrder, after.OrderNumber, nil, gin.H{"amount": after.Total})
	}
	middleware.RecordChange(c, after.OrderNumber, stateOf(before), stateOf(after))
	c.JSON(http.StatusOK, gin.H{"order": after})
}

// DELETE /api/admin/orders/:orderNumber
func (h *Handler) DeleteOrder(c *gin.Context) {
	if err := h.Checkout.DeleteOrder(c.Request.Context(), c.Param("orderNumber")); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}
