package order

import (
	"errors"
	"log"
	"net/http"

	"dryfruit_back_end/internal/payment"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/checkout"

	"github.com/gin-gonic/gin"
)

// Webhooks verifies and decodes a signed gateway callback.
type Webhooks interface {
	ParseWebhook(payload []byte, signature string) (*payment.Event, error)
}

const maxWebhookBytes = int64(65536)

// POST /api/orders/verify-payment
func (h *Handler) VerifyPayment(c *gin.Context) {
	var input struct {
		OrderID           string `json:"orderId" binding:"required"`
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
		GatewayOrderID    string `json:"gatewayOrderId"`
		PaymentID         string `json:"paymentId"`
		Signature         string `json:"signature"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Invalid(c, err)
		return
	}

	in := checkout.VerifyInput{
		OrderID:        input.OrderID,
		GatewayOrderID: first(input.GatewayOrderID, input.RazorpayOrderID),
		PaymentID:      first(input.PaymentID, input.RazorpayPaymentID),
		Signature:      first(input.Signature, input.RazorpaySignature),
	}
	o, err := h.checkout.VerifyPayment(c.Request.Context(), c.GetString("user_id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GET /api/payments/methods
func (h *Handler) PaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": h.checkout.PaymentMethods(), "currency": payment.Currency})
}

// POST /api/orders/:id/retry-payment
func (h *Handler) RetryPayment(c *gin.Context) {
	placed, err := h.checkout.RetryPayment(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, placed)
}

// POST /api/payments/stripe/webhook
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.webhooks == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stripe is not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := c.GetRawData()
	if err != nil {
		log.Printf("❌ webhook payload: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not read payload"})
		return
	}

	ev, err := h.webhooks.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, payment.ErrVerificationFailed) {
		log.Printf("❌ Stripe signature rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}
	if err != nil {
		log.Printf("❌ Stripe webhook: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	if err := h.checkout.HandleWebhook(c.Request.Context(), ev); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
