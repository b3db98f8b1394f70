package pricing

import (
	"testing"
	"time"

	"dryfruit_back_end/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_AboveThreshold(t *testing.T) {
	s := Summarize([]Line{{Price: 600, Quantity: 2}}, 0)
	assert.Equal(t, 1200.0, s.Subtotal)
	assert.Equal(t, 216.0, s.Tax)
	assert.Equal(t, 0.0, s.Shipping)
	assert.Equal(t, 1416.0, s.Total)
}

func TestSummarize_BelowThreshold(t *testing.T) {
	s := Summarize([]Line{{Price: 250, Quantity: 2}}, 0)
	assert.Equal(t, 500.0, s.Subtotal)
	assert.Equal(t, 90.0, s.Tax)
	assert.Equal(t, 99.0, s.Shipping)
	assert.Equal(t, 689.0, s.Total)
}

func TestSummarize_ShippingBoundary(t *testing.T) {
	assert.Equal(t, 0.0, Summarize([]Line{{Price: 999, Quantity: 1}}, 0).Shipping)
	assert.Equal(t, 99.0, Summarize([]Line{{Price: 998.99, Quantity: 1}}, 0).Shipping)
	assert.Equal(t, 0.0, Summarize(nil, 0).Shipping)
	assert.Equal(t, 0.0, Summarize(nil, 0).Total)
}

func TestSummarize_TotalIdentity(t *testing.T) {
	cases := []struct {
		lines    []Line
		discount float64
	}{
		{[]Line{{Price: 19.99, Quantity: 3}}, 0},
		{[]Line{{Price: 333.33, Quantity: 3}, {Price: 0.01, Quantity: 7}}, 10},
		{[]Line{{Price: 1499, Quantity: 1}}, 149.9},
		{[]Line{{Price: 45.5, Quantity: 11}}, 5000},
		{[]Line{{Price: 0.1, Quantity: 3}}, 0.05},
	}
	for _, tc := range cases {
		s := Summarize(tc.lines, tc.discount)
		want := decimal.NewFromFloat(s.Subtotal).
			Add(decimal.NewFromFloat(s.Tax)).
			Add(decimal.NewFromFloat(s.Shipping)).
			Sub(decimal.NewFromFloat(s.Discount))
		assert.True(t, want.Equal(decimal.NewFromFloat(s.Total)), "total mismatch for %+v: %+v", tc, s)

		tax := decimal.NewFromFloat(s.Subtotal).Mul(TaxRate)
		assert.InDelta(t, tax.InexactFloat64(), s.Tax, 0.005)
	}
}

func TestSummarize_DiscountCapped(t *testing.T) {
	s := Summarize([]Line{{Price: 100, Quantity: 1}}, 500)
	assert.Equal(t, 100.0, s.Discount)
	assert.Equal(t, 117.0, s.Total)

	s = Summarize([]Line{{Price: 100, Quantity: 1}}, -20)
	assert.Equal(t, 0.0, s.Discount)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(141600), MinorUnits(1416))
	assert.Equal(t, int64(1999), MinorUnits(19.99))
}

func TestCouponDiscount(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pct := &models.Coupon{
		Code: "NUTS10", Type: models.CouponPercentage, Value: 10, MinAmount: 500,
		MaxDiscount: 150, IsActive: true,
		StartsAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
	}

	d, err := CouponDiscount(pct, 1200, now)
	require.NoError(t, err)
	assert.Equal(t, 120.0, d)

	d, err = CouponDiscount(pct, 2000, now)
	require.NoError(t, err)
	assert.Equal(t, 150.0, d, "max discount caps the percentage")

	_, err = CouponDiscount(pct, 400, now)
	assert.Error(t, err)

	_, err = CouponDiscount(pct, 1200, now.Add(2*time.Hour))
	assert.Error(t, err)

	fixed := &models.Coupon{Type: models.CouponFixed, Value: 300, IsActive: true}
	d, err = CouponDiscount(fixed, 200, now)
	require.NoError(t, err)
	assert.Equal(t, 200.0, d, "fixed discount never exceeds the subtotal")

	used := &models.Coupon{Type: models.CouponFixed, Value: 50, IsActive: true, MaxUses: 2, UsedCount: 2}
	_, err = CouponDiscount(used, 1000, now)
	assert.Error(t, err)

	_, err = CouponDiscount(nil, 1000, now)
	assert.Error(t, err)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE20", NormalizeCode("  save20 "))
}
