// Package checkout turns a cart into an order, drives the payment bridge and
// owns every order status transition.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/payment"
	"dryfruit_back_end/internal/pricing"
	"dryfruit_back_end/internal/services/cart"
	"dryfruit_back_end/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Orders interface {
	Insert(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	Save(ctx context.Context, o *models.Order) error
	SaveFrom(ctx context.Context, o *models.Order, status models.OrderStatus, paymentStatus models.PaymentStatus) error
	MarkPaid(ctx context.Context, id, paymentID string, at time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, id string, at time.Time) (bool, error)
	SetGatewayOrder(ctx context.Context, id, gatewayOrderID string) error
	ClaimRestock(ctx context.Context, id string) (bool, error)
	InsertRefund(ctx context.Context, r *models.Refund) error
	DeleteByNumber(ctx context.Context, number string) error
}

type Inventory interface {
	Decrement(ctx context.Context, productID, variantID string, qty int, orderID string) error
	Restock(ctx context.Context, productID, variantID string, qty int, orderID string) error
}

type Carts interface {
	Get(ctx context.Context, userID, couponCode string) (*cart.View, error)
	Clear(ctx context.Context, userID string) error
}

type Coupons interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
}

// StockWatcher is told which products gained or lost units.
type StockWatcher interface {
	StockChanged(ctx context.Context, productIDs ...string)
}

type Users interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier is told about customer-visible order events. Calls must not block.
type Notifier interface {
	OrderConfirmed(order models.Order)
	OrderStatusChanged(order models.Order)
	OrderRefunded(order models.Order, amount float64)
}

type Deps struct {
	Orders    Orders
	Inventory Inventory
	Carts     Carts
	Coupons   Coupons
	Users     Users
	Tx        Transactor
	Gateways  *payment.Registry
	Notifier  Notifier
	Stock     StockWatcher
}

type Service struct {
	Deps
	now func() time.Time
}

func NewService(d Deps) *Service {
	if d.Gateways == nil {
		d.Gateways = payment.NewRegistry()
	}
	return &Service{Deps: d, now: time.Now}
}

// OrderNumber is ORD-<yyyymmdd>-<8 hex chars>; uniqueness is enforced by index.
func OrderNumber(t time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + t.Format("20060102") + "-" + strings.ToUpper(id[:8])
}

type CreateOrderInput struct {
	AddressID       string
	ShippingAddress *models.ShippingAddress
	PaymentMethod   string
	CouponCode      string
}

// Placement is the checkout response: the stored order plus, for gateway
// payments, what the client needs to open the hosted payment UI.
type Placement struct {
	Order   *models.Order   `json:"order"`
	Payment *payment.Intent `json:"payment,omitempty"`
}

func (s *Service) methodAllowed(method string) bool {
	if method == models.PaymentMethodCOD {
		return true
	}
	_, ok := s.Gateways.Get(method)
	return ok
}

func validateShipping(a *models.ShippingAddress) error {
	required := []struct{ field, value string }{
		{"fullName", a.FullName},
		{"phone", a.Phone},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Validation(fmt.Sprintf("shippingAddress.%s is required", r.field))
		}
	}
	return nil
}

func (s *Service) shippingAddress(user *models.User, in CreateOrderInput) (models.ShippingAddress, error) {
	switch {
	case in.AddressID != "":
		a, ok := user.FindAddress(in.AddressID)
		if !ok {
			return models.ShippingAddress{}, apperr.NotFound("Address not found")
		}
		return a.ToShipping(), nil
	case in.ShippingAddress != nil:
		addr := *in.ShippingAddress
		if addr.Country == "" {
			addr.Country = "India"
		}
		return addr, validateShipping(&addr)
	default:
		if a, ok := user.DefaultAddress(); ok {
			return a.ToShipping(), nil
		}
		return models.ShippingAddress{}, apperr.Validation("Shipping address is required")
	}
}

func (s *Service) couponDiscount(ctx context.Context, code string, subtotal float64) (float64, error) {
	if code == "" {
		return 0, nil
	}
	c, err := s.Coupons.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, apperr.Internal(err)
	}
	return pricing.CouponDiscount(c, subtotal, s.now())
}

// CreateOrder snapshots the cart into an order. Stock is taken with one
// conditional decrement per line, and the order is stored and the cart
// emptied, inside one transaction; on failure the lines already taken are
// put back before the error is returned.
func (s *Service) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*Placement, error) {
	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		return nil, apperr.Validation("paymentMethod is required")
	}
	if !s.methodAllowed(method) {
		return nil, apperr.Validation("Unsupported payment method")
	}

	user, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Auth("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	address, err := s.shippingAddress(user, in)
	if err != nil {
		return nil, err
	}

	view, err := s.Carts.Get(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, apperr.Validation("Cart is empty")
	}

	lines := make([]pricing.Line, 0, len(view.Items))
	items := make([]models.OrderItem, 0, len(view.Items))
	available := make(map[string]int, len(view.Items))
	for _, l := range view.Items {
		available[lineKey(l.ProductID, l.VariantID)] = l.Available
		if l.Quantity > l.Available {
			return nil, apperr.InsufficientStock(fmt.Sprintf("Only %d of %s available", l.Available, l.Name), l.Available)
		}
		lines = append(lines, pricing.Line{Price: l.Price, Quantity: l.Quantity})
		items = append(items, models.OrderItem{
			ProductID:    l.ProductID,
			VariantID:    l.VariantID,
			Name:         l.Name,
			VariantLabel: l.VariantLabel,
			Image:        l.Image,
			Price:        l.Price,
			Quantity:     l.Quantity,
		})
	}

	code := pricing.NormalizeCode(in.CouponCode)
	discount, err := s.couponDiscount(ctx, code, pricing.Summarize(lines, 0).Subtotal)
	if err != nil {
		return nil, err
	}
	sum := pricing.Summarize(lines, discount)

	now := s.now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		OrderNumber:     OrderNumber(now),
		UserID:          userID,
		UserEmail:       user.Email,
		Items:           items,
		Subtotal:        sum.Subtotal,
		Tax:             sum.Tax,
		ShippingCost:    sum.Shipping,
		Discount:        sum.Discount,
		Total:           sum.Total,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   method,
		ShippingAddress: address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if sum.Discount > 0 {
		order.CouponCode = code
	}
	if method == models.PaymentMethodCOD {
		order.Status = models.OrderConfirmed
		order.PaymentStatus = models.PaymentSucceeded
	}
	order.History = []models.StatusChange{{Status: order.Status, PaymentStatus: order.PaymentStatus, Note: "order placed", By: userID, At: now}}

	if err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.place(ctx, order, available)
	}); err != nil {
		return nil, err
	}
	log.Printf("🛒 Order %s placed by %s (%s, %.2f)", order.OrderNumber, user.Email, method, order.Total)
	s.stockChanged(ctx, order.Items)

	if method == models.PaymentMethodCOD {
		s.notifyConfirmed(order)
		return &Placement{Order: order}, nil
	}

	intent, err := s.openPayment(ctx, order)
	if err != nil {
		return nil, err
	}
	return &Placement{Order: order, Payment: intent}, nil
}

func lineKey(productID, variantID string) string { return productID + "/" + variantID }

func (s *Service) place(ctx context.Context, order *models.Order, available map[string]int) error {
	orderID := order.ID.Hex()
	taken := make([]models.OrderItem, 0, len(order.Items))
	undo := func() {
		for _, it := range taken {
			if err := s.Inventory.Restock(ctx, it.ProductID, it.VariantID, it.Quantity, orderID); err != nil {
				log.Printf("❌ compensation restock %s/%s for %s: %v", it.ProductID, it.VariantID, order.OrderNumber, err)
			}
		}
	}

	for _, it := range order.Items {
		err := s.Inventory.Decrement(ctx, it.ProductID, it.VariantID, it.Quantity, orderID)
		if errors.Is(err, store.ErrConflict) {
			undo()
			return apperr.InsufficientStock(fmt.Sprintf("Insufficient stock for %s", it.Name), available[lineKey(it.ProductID, it.VariantID)]).
				With("productId", it.ProductID)
		}
		if err != nil {
			undo()
			return apperr.Internal(err)
		}
		taken = append(taken, it)
	}

	if order.CouponCode != "" {
		err := s.Coupons.IncrementUsage(ctx, order.CouponCode)
		if errors.Is(err, store.ErrConflict) {
			undo()
			return apperr.Validation("Coupon usage limit reached")
		}
		if err != nil {
			undo()
			return apperr.Internal(err)
		}
	}

	if err := s.Orders.Insert(ctx, order); err != nil {
		undo()
		if errors.Is(err, store.ErrDuplicate) {
			return apperr.Conflict("Could not allocate an order number, please retry")
		}
		return apperr.Internal(err)
	}

	if err := s.Carts.Clear(ctx, order.UserID); err != nil {
		log.Printf("❌ cart clear for order %s: %v", order.OrderNumber, err)
		undo()
		if err := s.Orders.DeleteByNumber(ctx, order.OrderNumber); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("❌ could not withdraw order %s: %v", order.OrderNumber, err)
		}
		return err
	}
	return nil
}

// openPayment creates the remote order/intent. A failure leaves the order
// pending/pending so the customer can retry.
func (s *Service) openPayment(ctx context.Context, order *models.Order) (*payment.Intent, error) {
	gw, ok := s.Gateways.Get(order.PaymentMethod)
	if !ok {
		return nil, apperr.Validation("Unsupported payment method")
	}
	intent, err := gw.CreateOrder(ctx, order)
	if err != nil {
		log.Printf("❌ %s order for %s failed: %v", gw.Name(), order.OrderNumber, err)
		return nil, apperr.Upstream("Payment gateway is unavailable, please retry", err).
			With("orderId", order.ID.Hex()).
			With("orderNumber", order.OrderNumber)
	}
	if err := s.Orders.SetGatewayOrder(ctx, order.ID.Hex(), intent.GatewayOrderID); err != nil {
		return nil, apperr.Internal(err)
	}
	order.GatewayOrderID = intent.GatewayOrderID
	log.Printf("💳 %s order %s opened for %s", gw.Name(), intent.GatewayOrderID, order.OrderNumber)
	return intent, nil
}

func (s *Service) stockChanged(ctx context.Context, items []models.OrderItem) {
	if s.Stock == nil {
		return
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	s.Stock.StockChanged(ctx, ids...)
}

func (s *Service) notifyConfirmed(order *models.Order) {
	if s.Notifier != nil {
		s.Notifier.OrderConfirmed(*order)
	}
}

func (s *Service) notifyStatus(order *models.Order) {
	if s.Notifier != nil {
		s.Notifier.OrderStatusChanged(*order)
	}
}

func (s *Service) notifyRefund(order *models.Order, amount float64) {
	if s.Notifier != nil {
		s.Notifier.OrderRefunded(*order, amount)
	}
}
