package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MovementSale       = "sale"
	MovementRestock    = "restock"
	MovementAdjustment = "adjustment"
)

const LowStockThreshold = 10

// StockMovement records one change to a product or variant stock level.
type StockMovement struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID string             `json:"productId" bson:"productId"`
	VariantID string             `json:"variantId,omitempty" bson:"variantId,omitempty"`
	Type      string             `json:"type" bson:"type"`
	Quantity  int                `json:"quantity" bson:"quantity"` // signed
	Reason    string             `json:"reason,omitempty" bson:"reason,omitempty"`
	OrderID   string             `json:"orderId,omitempty" bson:"orderId,omitempty"`
	UserID    string             `json:"userId,omitempty" bson:"userId,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type ProductSales struct {
	ProductID string  `json:"productId" bson:"_id"`
	Name      string  `json:"name" bson:"name"`
	TotalSold int     `json:"totalSold" bson:"totalSold"`
	Revenue   float64 `json:"revenue" bson:"revenue"`
}

type Analytics struct {
	Orders         OrderStats     `json:"orders"`
	Products       ProductStats   `json:"products"`
	Users          int64          `json:"users"`
	UnreadMessages int64          `json:"unreadMessages"`
	TopProducts    []ProductSales `json:"topProducts"`
	RecentOrders   []Order        `json:"recentOrders"`
}
