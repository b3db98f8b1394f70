package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Refund struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderID         string             `json:"orderId" bson:"orderId"`
	OrderNumber     string             `json:"orderNumber" bson:"orderNumber"`
	Amount          float64            `json:"amount" bson:"amount"`
	Reason          string             `json:"reason,omitempty" bson:"reason,omitempty"`
	Gateway         string             `json:"gateway" bson:"gateway"`
	GatewayRefundID string             `json:"gatewayRefundId,omitempty" bson:"gatewayRefundId,omitempty"`
	By              string             `json:"by" bson:"by"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}
