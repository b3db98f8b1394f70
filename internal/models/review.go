package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID string             `json:"productId" bson:"productId"`
	UserID    string             `json:"userId" bson:"userId"`
	UserName  string             `json:"userName" bson:"userName"`
	Rating    int                `json:"rating" bson:"rating"` // 1-5
	Title     string             `json:"title" bson:"title"`
	Content   string             `json:"content" bson:"content"`
	Verified  bool               `json:"verified" bson:"verified"`
	Helpful   int                `json:"helpful" bson:"helpful"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type ProductRating struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}
