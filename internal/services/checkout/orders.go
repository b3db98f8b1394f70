package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// lookup accepts an order id or an order number.
func (s *Service) lookup(ctx context.Context, ref string) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	var (
		order *models.Order
		err   error
	)
	if primitive.IsValidObjectID(ref) {
		order, err = s.Orders.FindByID(ctx, ref)
	} else {
		order, err = s.Orders.FindByNumber(ctx, ref)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return order, nil
}

// ownedOrder hides other customers' orders behind a 404.
func (s *Service) ownedOrder(ctx context.Context, userID, ref string) (*models.Order, error) {
	order, err := s.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.NotFound("Order not found")
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, userID, ref string) (*models.Order, error) {
	return s.ownedOrder(ctx, userID, ref)
}

// GetOrderAsAdmin skips the ownership check.
func (s *Service) GetOrderAsAdmin(ctx context.Context, ref string) (*models.Order, error) {
	return s.lookup(ctx, ref)
}

func (s *Service) ListMyOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}

// CancelOrder lets a customer cancel while the order is pending or
// confirmed. Gateway-paid orders are refunded in full; cash on delivery
// orders never collected money, so their payment is simply cancelled.
func (s *Service) CancelOrder(ctx context.Context, userID, ref, reason string) (*models.Order, error) {
	order, err := s.ownedOrder(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending && order.Status != models.OrderConfirmed {
		return nil, apperr.Validation(fmt.Sprintf("Order cannot be cancelled once %s", order.Status))
	}

	prevStatus, prevPayment := order.Status, order.PaymentStatus

	refunded := 0.0
	switch {
	case order.IsPaid() && order.PaymentMethod != models.PaymentMethodCOD:
		if err := s.refund(ctx, order, order.Total, reason, userID); err != nil {
			return nil, err
		}
		order.PaymentStatus = models.PaymentRefunded
		refunded = order.Total
	default:
		order.PaymentStatus = models.PaymentCancelled
	}
	order.Status = models.OrderCancelled

	note := "cancelled by customer"
	if reason != "" {
		note += ": " + reason
	}
	order.History = append(order.History, models.StatusChange{
		Status: order.Status, PaymentStatus: order.PaymentStatus, Note: note, By: userID, At: s.now(),
	})
	if err := s.Orders.SaveFrom(ctx, order, prevStatus, prevPayment); err != nil {
		if errors.Is(err, store.ErrConflict) {
			if refunded > 0 {
				log.Printf("❌ Order %s changed after its refund was issued, reconcile by hand", order.OrderNumber)
			}
			return nil, apperr.Conflict("Order was updated in the meantime, please reload and try again")
		}
		return nil, apperr.Internal(err)
	}
	s.restock(ctx, order)

	log.Printf("🛑 Order %s cancelled by customer", order.OrderNumber)
	s.notifyStatus(order)
	if refunded > 0 {
		s.notifyRefund(order, refunded)
	}
	return order, nil
}

type AdminUpdateInput struct {
	Status           *string
	PaymentStatus    *string
	TrackingNumber   *string
	ShippingProvider *string
	Note             string
}

// AdminUpdate applies a back-office edit validated against both state
// machines. Last write wins.
func (s *Service) AdminUpdate(ctx context.Context, adminID, orderNumber string, in AdminUpdateInput) (*models.Order, error) {
	order, err := s.lookup(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	prevStatus, prevPayment := order.Status, order.PaymentStatus

	nextStatus := order.Status
	if in.Status != nil {
		nextStatus = models.OrderStatus(strings.ToLower(*in.Status))
		if !models.ValidOrderStatus(nextStatus) {
			return nil, apperr.Validation("Invalid order status")
		}
		if !models.CanTransition(prevStatus, nextStatus) {
			return nil, apperr.Validation(fmt.Sprintf("Cannot change order status from %s to %s", prevStatus, nextStatus))
		}
	}

	nextPayment := order.PaymentStatus
	if in.PaymentStatus != nil {
		nextPayment = models.PaymentStatus(strings.ToLower(*in.PaymentStatus))
		if !models.ValidPaymentStatus(nextPayment) {
			return nil, apperr.Validation("Invalid payment status")
		}
	} else if nextStatus != prevStatus {
		switch {
		case nextStatus == models.OrderRefunded && prevPayment == models.PaymentSucceeded:
			nextPayment = models.PaymentRefunded
		case nextStatus == models.OrderCancelled && prevPayment == models.PaymentSucceeded && order.PaymentMethod == models.PaymentMethodCOD:
			nextPayment = models.PaymentCancelled
		case nextStatus == models.OrderCancelled && models.CanTransitionPayment(prevPayment, models.PaymentCancelled):
			nextPayment = models.PaymentCancelled
		}
	}
	codCancel := order.PaymentMethod == models.PaymentMethodCOD && nextStatus == models.OrderCancelled &&
		prevPayment == models.PaymentSucceeded && nextPayment == models.PaymentCancelled
	if !codCancel && !models.CanTransitionPayment(prevPayment, nextPayment) {
		return nil, apperr.Validation(fmt.Sprintf("Cannot change payment status from %s to %s", prevPayment, nextPayment))
	}
	if nextStatus == models.OrderCancelled && nextPayment == models.PaymentSucceeded && order.PaymentMethod != models.PaymentMethodCOD {
		return nil, apperr.Validation("Refund the payment before cancelling a paid order")
	}

	refunded := 0.0
	if nextPayment == models.PaymentRefunded && prevPayment != models.PaymentRefunded {
		if err := s.refund(ctx, order, order.Total, in.Note, adminID); err != nil {
			return nil, err
		}
		refunded = order.Total
	}

	order.Status = nextStatus
	order.PaymentStatus = nextPayment
	if in.TrackingNumber != nil {
		order.TrackingNumber = strings.TrimSpace(*in.TrackingNumber)
	}
	if in.ShippingProvider != nil {
		order.ShippingProvider = strings.TrimSpace(*in.ShippingProvider)
	}
	order.History = append(order.History, models.StatusChange{
		Status: order.Status, PaymentStatus: order.PaymentStatus, Note: in.Note, By: adminID, At: s.now(),
	})
	if err := s.Orders.Save(ctx, order); err != nil {
		return nil, apperr.Internal(err)
	}

	if leavesStock(nextStatus) && !leavesStock(prevStatus) {
		s.restock(ctx, order)
	}
	if nextStatus != prevStatus {
		log.Printf("📦 Order %s: %s → %s", order.OrderNumber, prevStatus, nextStatus)
		s.notifyStatus(order)
	}
	if refunded > 0 {
		s.notifyRefund(order, refunded)
	}
	return order, nil
}

func leavesStock(st models.OrderStatus) bool {
	return st == models.OrderCancelled || st == models.OrderRefunded
}

// refund sends money back through the order's gateway and records it.
// Cash on delivery refunds are settled by hand and only recorded.
func (s *Service) refund(ctx context.Context, order *models.Order, amount float64, reason, by string) error {
	r := &models.Refund{
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		Amount:      amount,
		Reason:      reason,
		Gateway:     order.PaymentMethod,
		By:          by,
		CreatedAt:   s.now(),
	}
	if order.PaymentMethod != models.PaymentMethodCOD {
		gw, ok := s.Gateways.Get(order.PaymentMethod)
		if !ok {
			return apperr.Validation("Payment gateway is not configured for refunds")
		}
		id, err := gw.Refund(ctx, order, amount)
		if err != nil {
			log.Printf("❌ %s refund for %s: %v", gw.Name(), order.OrderNumber, err)
			return apperr.Upstream("Refund failed at the payment gateway", err)
		}
		r.GatewayRefundID = id
	}
	if err := s.Orders.InsertRefund(ctx, r); err != nil {
		return apperr.Internal(err)
	}
	log.Printf("💸 Refunded %.2f on %s", amount, order.OrderNumber)
	return nil
}

// restock returns the order's units to the catalog at most once.
func (s *Service) restock(ctx context.Context, order *models.Order) {
	claimed, err := s.Orders.ClaimRestock(ctx, order.ID.Hex())
	if err != nil {
		log.Printf("❌ restock claim for %s: %v", order.OrderNumber, err)
		return
	}
	if !claimed {
		return
	}
	order.StockRestored = true
	for _, it := range order.Items {
		if err := s.Inventory.Restock(ctx, it.ProductID, it.VariantID, it.Quantity, order.ID.Hex()); err != nil {
			log.Printf("❌ restock %s/%s for %s: %v", it.ProductID, it.VariantID, order.OrderNumber, err)
		}
	}
	s.stockChanged(ctx, order.Items)
}

// DeleteOrder hard-deletes an order. Units still held are returned first.
func (s *Service) DeleteOrder(ctx context.Context, orderNumber string) error {
	order, err := s.lookup(ctx, orderNumber)
	if err != nil {
		return err
	}
	if !leavesStock(order.Status) && order.Status != models.OrderDelivered && order.Status != models.OrderShipped {
		s.restock(ctx, order)
	}
	if err := s.Orders.DeleteByNumber(ctx, order.OrderNumber); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Order not found")
		}
		return apperr.Internal(err)
	}
	log.Printf("🗑️ Order %s deleted", order.OrderNumber)
	return nil
}
