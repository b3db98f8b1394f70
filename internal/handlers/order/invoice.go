package order

import (
	"context"
	"log"
	"net/http"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/response"

	"github.com/gin-gonic/gin"
)

type Invoices interface {
	HTML(order *models.Order) ([]byte, error)
	PDF(ctx context.Context, order *models.Order) ([]byte, error)
	PDFEnabled() bool
}

// GET /api/orders/:id/invoice
//
// Served as PDF when headless Chrome is configured, HTML otherwise or when
// printing fails.
func (h *Handler) Invoice(c *gin.Context) {
	o, err := h.checkout.GetOrder(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.writeInvoice(c, o)
}

func (h *Handler) writeInvoice(c *gin.Context, o *models.Order) {
	if h.invoices.PDFEnabled() && c.Query("format") != "html" {
		pdf, err := h.invoices.PDF(c.Request.Context(), o)
		if err == nil {
			c.Header("Content-Disposition", `inline; filename="invoice-`+o.OrderNumber+`.pdf"`)
			c.Data(http.StatusOK, "application/pdf", pdf)
			return
		}
		log.Printf("⚠️ invoice PDF for %s failed, serving HTML: %v", o.OrderNumber, err)
	}

	html, err := h.invoices.HTML(o)
	if err != nil {
		log.Printf("❌ invoice for %s: %v", o.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render invoice"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// GET /api/admin/orders/:orderNumber/invoice
func (h *Handler) AdminInvoice(c *gin.Context) {
	o, err := h.checkout.GetOrderAsAdmin(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.writeInvoice(c, o)
}
