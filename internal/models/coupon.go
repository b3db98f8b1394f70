package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CouponPercentage = "percentage"
	CouponFixed      = "fixed"
)

type Coupon struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Code        string             `json:"code" bson:"code"`
	Type        string             `json:"type" bson:"type"` // percentage, fixed
	Value       float64            `json:"value" bson:"value"`
	MinAmount   float64            `json:"minAmount" bson:"minAmount"`
	MaxDiscount float64            `json:"maxDiscount,omitempty" bson:"maxDiscount,omitempty"`
	MaxUses     int                `json:"maxUses" bson:"maxUses"`
	UsedCount   int                `json:"usedCount" bson:"usedCount"`
	StartsAt    time.Time          `json:"startsAt" bson:"startsAt"`
	ExpiresAt   time.Time          `json:"expiresAt" bson:"expiresAt"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type CouponValidation struct {
	IsValid      bool    `json:"isValid"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
	Discount     float64 `json:"discount"`
	Type         string  `json:"type,omitempty"`
	Code         string  `json:"code,omitempty"`
}
