package checkout

import (
	"context"
	"errors"
	"log"
	"strings"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/payment"
	"dryfruit_back_end/internal/store"
)

type VerifyInput struct {
	OrderID        string
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// FailureRedirect is where the storefront sends the customer after a
// rejected payment.
func FailureRedirect(orderNumber string) string {
	return "/checkout/failure?order=" + orderNumber
}

// PaymentMethods lists what checkout accepts; cash on delivery is always on.
func (s *Service) PaymentMethods() []string {
	return append([]string{models.PaymentMethodCOD}, s.Gateways.Names()...)
}

// VerifyPayment confirms a gateway callback. A mismatch fails closed: the
// order is left untouched and the error carries the failure redirect.
// Verifying an order that is already paid returns it unchanged.
func (s *Service) VerifyPayment(ctx context.Context, userID string, in VerifyInput) (*models.Order, error) {
	if strings.TrimSpace(in.OrderID) == "" {
		return nil, apperr.Validation("orderId is required")
	}
	order, err := s.ownedOrder(ctx, userID, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return order, nil
	}

	failed := apperr.Validation("Payment verification failed").With("redirect", FailureRedirect(order.OrderNumber))

	gw, ok := s.Gateways.Get(order.PaymentMethod)
	if !ok {
		return nil, apperr.Validation("Order is not paid through a payment gateway")
	}
	if in.GatewayOrderID == "" || order.GatewayOrderID == "" || in.GatewayOrderID != order.GatewayOrderID {
		log.Printf("⚠️ gateway order mismatch for %s", order.OrderNumber)
		return nil, failed
	}

	paymentID, err := gw.Verify(ctx, payment.Confirmation{
		GatewayOrderID: in.GatewayOrderID,
		PaymentID:      in.PaymentID,
		Signature:      in.Signature,
	})
	if errors.Is(err, payment.ErrVerificationFailed) {
		log.Printf("⚠️ payment verification rejected for %s", order.OrderNumber)
		return nil, failed
	}
	if err != nil {
		log.Printf("❌ %s verify for %s: %v", gw.Name(), order.OrderNumber, err)
		return nil, apperr.Upstream("Could not verify payment, please retry", err)
	}

	return s.markPaid(ctx, order, paymentID)
}

func (s *Service) markPaid(ctx context.Context, order *models.Order, paymentID string) (*models.Order, error) {
	id := order.ID.Hex()
	applied, err := s.Orders.MarkPaid(ctx, id, paymentID, s.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	fresh, err := s.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !applied {
		if fresh.IsPaid() {
			return fresh, nil
		}
		return nil, apperr.Conflict("Order can no longer be paid")
	}
	log.Printf("✅ Payment %s confirmed for %s", paymentID, fresh.OrderNumber)
	s.notifyConfirmed(fresh)
	return fresh, nil
}

// HandleWebhook applies a verified gateway event. Unknown orders are logged
// and acknowledged so the gateway stops redelivering.
func (s *Service) HandleWebhook(ctx context.Context, ev *payment.Event) error {
	if ev == nil || ev.GatewayOrderID == "" {
		return nil
	}
	order, err := s.Orders.FindByGatewayOrderID(ctx, ev.GatewayOrderID)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("⚠️ webhook %s for unknown gateway order %s", ev.Type, ev.GatewayOrderID)
		return nil
	}
	if err != nil {
		return apperr.Internal(err)
	}

	switch ev.Type {
	case payment.EventPaymentSucceeded:
		if order.IsPaid() {
			return nil
		}
		_, err := s.markPaid(ctx, order, ev.PaymentID)
		if apperr.IsKind(err, apperr.KindConflict) {
			log.Printf("⚠️ webhook payment for closed order %s", order.OrderNumber)
			return nil
		}
		return err
	case payment.EventPaymentFailed:
		changed, err := s.Orders.MarkPaymentFailed(ctx, order.ID.Hex(), s.now())
		if err != nil {
			return apperr.Internal(err)
		}
		if changed {
			log.Printf("❌ Payment failed for %s", order.OrderNumber)
		}
	}
	return nil
}

// RetryPayment opens a fresh remote order for an unpaid gateway order.
func (s *Service) RetryPayment(ctx context.Context, userID, ref string) (*Placement, error) {
	order, err := s.ownedOrder(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod == models.PaymentMethodCOD {
		return nil, apperr.Validation("Cash on delivery orders have nothing to retry")
	}
	if order.Status != models.OrderPending ||
		(order.PaymentStatus != models.PaymentPending && order.PaymentStatus != models.PaymentFailed) {
		return nil, apperr.Validation("Order is not awaiting payment")
	}
	intent, err := s.openPayment(ctx, order)
	if err != nil {
		return nil, err
	}
	return &Placement{Order: order, Payment: intent}, nil
}
