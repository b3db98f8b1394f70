package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one row per (user, product, variant).
type CartItem struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	ProductID string             `json:"productId" bson:"productId"`
	VariantID string             `json:"variantId,omitempty" bson:"variantId"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Price     float64            `json:"price" bson:"price"`
	AddedAt   time.Time          `json:"addedAt" bson:"addedAt"`
}
