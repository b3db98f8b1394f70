package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"dryfruit_back_end/internal/models"
)

const sendTimeout = 45 * time.Second

// Notifier sends transactional mail in the background. Failures are logged,
// never returned, so a mail outage cannot fail an order.
type Notifier struct {
	mailer      *Mailer
	invoices    *InvoiceRenderer
	storeName   string
	frontendURL string
	adminEmail  string
}

func NewNotifier(mailer *Mailer, invoices *InvoiceRenderer, storeName, frontendURL, adminEmail string) *Notifier {
	return &Notifier{
		mailer:      mailer,
		invoices:    invoices,
		storeName:   storeName,
		frontendURL: frontendURL,
		adminEmail:  adminEmail,
	}
}

func (n *Notifier) data() emailData {
	return emailData{StoreName: n.storeName, FrontendURL: n.frontendURL}
}

func (n *Notifier) send(to, subject, tmpl string, data emailData, withInvoice *models.Order) {
	if n == nil || to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		html, err := renderEmail(tmpl, data)
		if err != nil {
			log.Printf("❌ Email template %s: %v", tmpl, err)
			return
		}

		var attachments []Attachment
		if withInvoice != nil && n.invoices.PDFEnabled() {
			pdf, err := n.invoices.PDF(ctx, withInvoice)
			if err != nil {
				log.Printf("⚠️  Invoice PDF for %s failed: %v", withInvoice.OrderNumber, err)
			} else {
				attachments = append(attachments, Attachment{
					Name: fmt.Sprintf("invoice-%s.pdf", withInvoice.OrderNumber),
					Data: pdf,
				})
			}
		}

		if err := n.mailer.Send(ctx, to, subject, html, attachments...); err != nil {
			log.Printf("❌ Email %q to %s failed: %v", subject, to, err)
			return
		}
		log.Printf("📧 Email %q sent to %s", subject, to)
	}()
}

func (n *Notifier) VerificationCode(email, name, code string) {
	d := n.data()
	d.Name, d.Code = name, code
	n.send(email, fmt.Sprintf("Your %s verification code", n.storeName), "verification", d, nil)
}

func (n *Notifier) Welcome(email, name string) {
	d := n.data()
	d.Name = name
	n.send(email, fmt.Sprintf("Welcome to %s", n.storeName), "welcome", d, nil)
}

// OrderConfirmed goes out once an order is confirmed: at creation for cash
// on delivery, after verification for gateway payments.
func (n *Notifier) OrderConfirmed(order models.Order) {
	d := n.data()
	d.Order = order
	n.send(order.UserEmail, fmt.Sprintf("Order %s confirmed", order.OrderNumber), "order_confirmation", d, &order)
}

func (n *Notifier) OrderStatusChanged(order models.Order) {
	d := n.data()
	d.Order = order
	d.Status = string(order.Status)
	d.StatusText = StatusText(order.Status)
	n.send(order.UserEmail, fmt.Sprintf("Order %s: %s", order.OrderNumber, d.StatusText), "order_status", d, nil)
}

func (n *Notifier) OrderRefunded(order models.Order, amount float64) {
	d := n.data()
	d.Order = order
	d.Amount = amount
	n.send(order.UserEmail, fmt.Sprintf("Refund for order %s", order.OrderNumber), "refund", d, nil)
}

func (n *Notifier) ContactReceived(msg models.ContactMessage) {
	d := n.data()
	d.Name = msg.Name
	n.send(msg.Email, "We received your message", "contact_ack", d, nil)

	admin := n.data()
	admin.Message = msg
	n.send(n.adminEmail, "New contact message: "+msg.Subject, "contact_admin", admin, nil)
}

func StatusText(s models.OrderStatus) string {
	switch s {
	case models.OrderPending:
		return "Awaiting payment"
	case models.OrderConfirmed:
		return "Confirmed"
	case models.OrderProcessing:
		return "Being packed"
	case models.OrderShipped:
		return "Shipped"
	case models.OrderDelivered:
		return "Delivered"
	case models.OrderCancelled:
		return "Cancelled"
	case models.OrderRefunded:
		return "Refunded"
	default:
		return string(s)
	}
}
