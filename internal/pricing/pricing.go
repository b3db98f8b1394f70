// Package pricing turns cart lines into the money summary shown on the cart,
// stored on orders and charged through the gateways.
package pricing

import (
	"strings"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"

	"github.com/shopspring/decimal"
)

var (
	TaxRate               = decimal.RequireFromString("0.18")
	FreeShippingThreshold = decimal.NewFromInt(999)
	ShippingFee           = decimal.NewFromInt(99)
)

type Line struct {
	Price    float64
	Quantity int
}

type Summary struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Summarize computes subtotal, tax, shipping and total. The discount is capped
// at the subtotal so the total never goes below tax + shipping.
func Summarize(lines []Line, discount float64) Summary {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(TaxRate).Round(2)

	shipping := ShippingFee
	if len(lines) == 0 || subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	d := decimal.NewFromFloat(discount).Round(2)
	if d.IsNegative() {
		d = decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}

	total := subtotal.Add(tax).Add(shipping).Sub(d)

	return Summary{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Discount: d.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// MinorUnits converts an amount to paise/cents for the gateways.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponDiscount validates a coupon against a subtotal and returns the amount
// to take off. It is the only place a discount is computed.
func CouponDiscount(c *models.Coupon, subtotal float64, now time.Time) (float64, error) {
	if c == nil || !c.IsActive {
		return 0, apperr.Validation("Invalid coupon code")
	}
	if !c.StartsAt.IsZero() && now.Before(c.StartsAt) {
		return 0, apperr.Validation("Coupon is not active yet")
	}
	if !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return 0, apperr.Validation("Coupon has expired")
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return 0, apperr.Validation("Coupon usage limit reached")
	}
	sub := decimal.NewFromFloat(subtotal)
	if sub.LessThan(decimal.NewFromFloat(c.MinAmount)) {
		return 0, apperr.Validation("Order amount is below the coupon minimum").With("minAmount", c.MinAmount)
	}

	var d decimal.Decimal
	switch c.Type {
	case models.CouponPercentage:
		d = sub.Mul(decimal.NewFromFloat(c.Value)).Div(decimal.NewFromInt(100))
	case models.CouponFixed:
		d = decimal.NewFromFloat(c.Value)
	default:
		return 0, apperr.Validation("Invalid coupon type")
	}
	if c.MaxDiscount > 0 {
		d = decimal.Min(d, decimal.NewFromFloat(c.MaxDiscount))
	}
	d = decimal.Min(d, sub)
	return d.Round(2).InexactFloat64(), nil
}
