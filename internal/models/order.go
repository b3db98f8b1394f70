package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

const (
	PaymentMethodCOD      = "cod"
	PaymentMethodRazorpay = "razorpay"
	PaymentMethodStripe   = "stripe"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderProcessing, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderShipped, OrderCancelled, OrderRefunded},
	OrderProcessing: {OrderShipped, OrderCancelled, OrderRefunded},
	OrderShipped:    {OrderDelivered, OrderRefunded},
	OrderDelivered:  {OrderRefunded},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentSucceeded, PaymentFailed, PaymentCancelled},
	PaymentProcessing: {PaymentSucceeded, PaymentFailed, PaymentCancelled},
	PaymentFailed:     {PaymentProcessing, PaymentSucceeded},
	PaymentSucceeded:  {PaymentRefunded},
}

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentSucceeded, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID    string  `json:"productId" bson:"productId"`
	VariantID    string  `json:"variantId,omitempty" bson:"variantId,omitempty"`
	Name         string  `json:"name" bson:"name"`
	VariantLabel string  `json:"variantLabel,omitempty" bson:"variantLabel,omitempty"`
	Image        string  `json:"image,omitempty" bson:"image,omitempty"`
	Price        float64 `json:"price" bson:"price"`
	Quantity     int     `json:"quantity" bson:"quantity"`
}

type ShippingAddress struct {
	FullName   string `json:"fullName" bson:"fullName"`
	Phone      string `json:"phone" bson:"phone"`
	Line1      string `json:"line1" bson:"line1"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state" bson:"state"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

type StatusChange struct {
	Status        OrderStatus   `json:"status" bson:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	Note          string        `json:"note,omitempty" bson:"note,omitempty"`
	By            string        `json:"by,omitempty" bson:"by,omitempty"`
	At            time.Time     `json:"at" bson:"at"`
}

type Order struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderNumber      string             `json:"orderNumber" bson:"orderNumber"`
	UserID           string             `json:"userId" bson:"userId"`
	UserEmail        string             `json:"userEmail" bson:"userEmail"`
	Items            []OrderItem        `json:"items" bson:"items"`
	Subtotal         float64            `json:"subtotal" bson:"subtotal"`
	Tax              float64            `json:"tax" bson:"tax"`
	ShippingCost     float64            `json:"shippingCost" bson:"shippingCost"`
	Discount         float64            `json:"discount" bson:"discount"`
	CouponCode       string             `json:"couponCode,omitempty" bson:"couponCode,omitempty"`
	Total            float64            `json:"total" bson:"total"`
	Status           OrderStatus        `json:"status" bson:"status"`
	PaymentStatus    PaymentStatus      `json:"paymentStatus" bson:"paymentStatus"`
	PaymentMethod    string             `json:"paymentMethod" bson:"paymentMethod"`
	GatewayOrderID   string             `json:"gatewayOrderId,omitempty" bson:"gatewayOrderId,omitempty"`
	GatewayPaymentID string             `json:"gatewayPaymentId,omitempty" bson:"gatewayPaymentId,omitempty"`
	ShippingAddress  ShippingAddress    `json:"shippingAddress" bson:"shippingAddress"`
	TrackingNumber   string             `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	ShippingProvider string             `json:"shippingProvider,omitempty" bson:"shippingProvider,omitempty"`
	StockRestored    bool               `json:"-" bson:"stockRestored"`
	History          []StatusChange     `json:"history,omitempty" bson:"history,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (o *Order) IsPaid() bool { return o.PaymentStatus == PaymentSucceeded }

type OrderStats struct {
	Total           int64                   `json:"total"`
	ByStatus        map[OrderStatus]int64   `json:"byStatus"`
	ByPaymentStatus map[PaymentStatus]int64 `json:"byPaymentStatus"`
	Revenue         float64                 `json:"revenue"`
}
