package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeOrders struct {
	items  []models.Order
	filter store.OrderFilter
	err    error
}

func (f *fakeOrders) List(_ context.Context, flt store.OrderFilter) ([]models.Order, int64, error) {
	f.filter = flt
	return f.items, int64(len(f.items)), f.err
}

func (f *fakeOrders) Stats(context.Context) (models.OrderStats, error) {
	st := models.OrderStats{ByStatus: map[models.OrderStatus]int64{}, ByPaymentStatus: map[models.PaymentStatus]int64{}}
	for _, o := range f.items {
		st.Total++
		st.ByStatus[o.Status]++
		st.ByPaymentStatus[o.PaymentStatus]++
		if o.PaymentStatus == models.PaymentSucceeded {
			st.Revenue += o.Total
		}
	}
	return st, f.err
}

func (f *fakeOrders) TopProducts(context.Context, int) ([]models.ProductSales, error) {
	return []models.ProductSales{{ProductID: "p1", Name: "Almonds", TotalSold: 3, Revenue: 1350}}, nil
}

func (f *fakeOrders) Recent(_ context.Context, limit int64) ([]models.Order, error) {
	if int64(len(f.items)) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

type counts struct {
	products models.ProductStats
	users    int64
	unread   int64
}

func (c counts) Stats(context.Context) (models.ProductStats, error) { return c.products, nil }
func (c counts) Count(context.Context) (int64, error)               { return c.users, nil }
func (c counts) CountByStatus(_ context.Context, status string) (int64, error) {
	if status != models.MessageNew {
		return 0, errors.New("unexpected status")
	}
	return c.unread, nil
}

type fakeCoupons struct{ items map[string]*models.Coupon }

func (f *fakeCoupons) List(context.Context) ([]models.Coupon, error) {
	out := []models.Coupon{}
	for _, c := range f.items {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCoupons) FindByID(_ context.Context, id string) (*models.Coupon, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCoupons) Create(_ context.Context, c *models.Coupon) error {
	for _, x := range f.items {
		if x.Code == c.Code {
			return store.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	cp := *c
	f.items[c.ID.Hex()] = &cp
	return nil
}

func (f *fakeCoupons) Update(_ context.Context, c *models.Coupon) error {
	cp := *c
	f.items[c.ID.Hex()] = &cp
	return nil
}

func (f *fakeCoupons) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func setup(orders ...models.Order) (*Service, *fakeOrders, *fakeCoupons) {
	fo := &fakeOrders{items: orders}
	fc := &fakeCoupons{items: map[string]*models.Coupon{}}
	c := counts{products: models.ProductStats{Total: 12, LowStock: 2, OutOfStock: 1}, users: 40, unread: 3}
	return NewService(Deps{Orders: fo, Products: c, Users: c, Messages: c, Coupons: fc}), fo, fc
}

func TestListOrdersValidatesFilters(t *testing.T) {
	svc, fo, _ := setup(
		models.Order{OrderNumber: "ORD-1", Status: models.OrderConfirmed, PaymentStatus: models.PaymentSucceeded, Total: 1416},
		models.Order{OrderNumber: "ORD-2", Status: models.OrderPending, PaymentStatus: models.PaymentPending, Total: 689},
	)
	ctx := context.Background()

	page, err := svc.ListOrders(ctx, OrderQuery{Search: " ORD ", Status: "confirmed", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, "ORD", fo.filter.Search)
	assert.Equal(t, 100, fo.filter.Page.Limit)
	assert.Equal(t, 1416.0, page.Stats.Revenue)
	assert.Equal(t, int64(2), page.Pagination.Total)

	_, err = svc.ListOrders(ctx, OrderQuery{Status: "lost"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = svc.ListOrders(ctx, OrderQuery{PaymentStatus: "maybe"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	fo.err = errors.New("mongo down")
	_, err = svc.ListOrders(ctx, OrderQuery{})
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
}

func TestAnalytics(t *testing.T) {
	svc, _, _ := setup(
		models.Order{Status: models.OrderDelivered, PaymentStatus: models.PaymentSucceeded, Total: 1416},
		models.Order{Status: models.OrderCancelled, PaymentStatus: models.PaymentCancelled, Total: 689},
	)
	a, err := svc.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Orders.Total)
	assert.Equal(t, 1416.0, a.Orders.Revenue)
	assert.Equal(t, int64(1), a.Orders.ByStatus[models.OrderCancelled])
	assert.Equal(t, int64(2), a.Products.LowStock)
	assert.Equal(t, int64(40), a.Users)
	assert.Equal(t, int64(3), a.UnreadMessages)
	assert.Len(t, a.TopProducts, 1)
	assert.Len(t, a.RecentOrders, 2)
}

func TestCouponCRUD(t *testing.T) {
	svc, _, fc := setup()
	ctx := context.Background()

	c, err := svc.CreateCoupon(ctx, &models.Coupon{Code: " nuts10 ", Type: models.CouponPercentage, Value: 10, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "NUTS10", c.Code)
	assert.False(t, c.StartsAt.IsZero())

	_, err = svc.CreateCoupon(ctx, &models.Coupon{Code: "NUTS10", Type: models.CouponFixed, Value: 50})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	for _, bad := range []models.Coupon{
		{Code: "X", Type: models.CouponFixed, Value: 10},
		{Code: "HALF", Type: models.CouponPercentage, Value: 150},
		{Code: "FREE", Type: "free_shipping", Value: 1},
		{Code: "OLD", Type: models.CouponFixed, Value: 10, StartsAt: time.Now(), ExpiresAt: time.Now().Add(-time.Hour)},
	} {
		bad := bad
		_, err := svc.CreateCoupon(ctx, &bad)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), bad.Code)
	}

	fc.items[c.ID.Hex()].UsedCount = 4
	before, after, err := svc.UpdateCoupon(ctx, c.ID.Hex(), &models.Coupon{Code: "NUTS15", Type: models.CouponPercentage, Value: 15})
	require.NoError(t, err)
	assert.Equal(t, "NUTS10", before.Code)
	assert.Equal(t, "NUTS15", after.Code)
	assert.Equal(t, 4, after.UsedCount)

	list, err := svc.ListCoupons(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteCoupon(ctx, c.ID.Hex()))
	assert.True(t, apperr.IsKind(svc.DeleteCoupon(ctx, c.ID.Hex()), apperr.KindNotFound))
	_, _, err = svc.UpdateCoupon(ctx, c.ID.Hex(), &models.Coupon{Code: "NUTS15", Type: models.CouponFixed, Value: 5})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
