package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) CartChanged(_ context.Context, userID, event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, userID+":"+event)
}

func intp(n int) *int { return &n }

type fixture struct {
	svc      *Service
	products *memstore.Products
	items    *memstore.Cart
	events   *recorder
	almonds  string
	dates    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	almonds := &models.Product{
		LegacyID: 7, Name: "California Almonds", Slug: "california-almonds",
		Price: 600, StockCount: 10, InStock: true, IsActive: true,
		Variants: []models.Variant{
			{ID: "250g", Label: "250 g", Kind: "weight", Price: 320},
			{ID: "1kg", Label: "1 kg", Kind: "weight", Price: 1100, Stock: intp(2)},
		},
	}
	dates := &models.Product{Name: "Medjool Dates", Slug: "medjool-dates", Price: 500, StockCount: 3, InStock: true, IsActive: true}

	products := memstore.NewProducts(almonds, dates)
	items := memstore.NewCart()
	events := &recorder{}
	coupons := memstore.NewCoupons(models.Coupon{Code: "NUTS10", Type: models.CouponPercentage, Value: 10, IsActive: true})
	return &fixture{
		svc:      NewService(products, items, coupons, events),
		products: products,
		items:    items,
		events:   events,
		almonds:  almonds.ID.Hex(),
		dates:    dates.ID.Hex(),
	}
}

func TestAddTwiceMergesIntoOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "u1", f.almonds, 2, "")
	require.NoError(t, err)
	view, err := f.svc.Add(ctx, "u1", f.almonds, 3, "")
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 5, view.Count)
}

func TestAddBeyondStockLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "u1", f.dates, 5, "")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 400, e.Status())
	assert.Equal(t, 3, e.Fields["available"])
	assert.Equal(t, "Only 3 available", e.Message)

	view, err := f.svc.Get(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = f.svc.Add(ctx, "u1", f.dates, 2, "")
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "u1", f.dates, 2, "")
	require.Error(t, err)

	row, err := f.items.Find(ctx, "u1", f.dates, "")
	require.NoError(t, err)
	assert.Equal(t, 2, row.Quantity)
}

func TestAddSucceedsUpToExactStock(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.Add(context.Background(), "u1", f.dates, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestVariantStockOverridesParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "u1", f.almonds, 3, "1kg")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	view, err := f.svc.Add(ctx, "u1", f.almonds, 2, "1kg")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1100.0, view.Items[0].Price)
	assert.Equal(t, "1 kg", view.Items[0].VariantLabel)

	// a variant without its own stock draws from the parent
	view, err = f.svc.Add(ctx, "u1", f.almonds, 10, "250g")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)

	_, err = f.svc.Add(ctx, "u1", f.almonds, 1, "5kg")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestLegacyIDAndSlugResolveToCanonicalRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "u1", "7", 1, "")
	require.NoError(t, err)
	view, err := f.svc.Add(ctx, "u1", "california-almonds", 1, "")
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, f.almonds, view.Items[0].ProductID)
	assert.Equal(t, 2, view.Items[0].Quantity)

	_, err = f.svc.Add(ctx, "u1", "9999", 1, "")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRemoveAbsentItemIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Remove(ctx, "u1", f.almonds, "")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 404, e.Status())

	_, err = f.svc.Remove(ctx, "u1", "does-not-exist", "")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "u1", f.almonds, 1, "")
	require.NoError(t, err)

	view, err := f.svc.Update(ctx, "u1", f.almonds, 4, "")
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)

	_, err = f.svc.Update(ctx, "u1", f.almonds, 11, "")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	view, err = f.svc.Update(ctx, "u1", f.almonds, 0, "")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = f.svc.Update(ctx, "u1", f.almonds, -1, "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestGetPricesFromCatalogAndDropsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "u1", f.almonds, 2, "")
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "u1", f.dates, 1, "")
	require.NoError(t, err)

	p, err := f.products.FindByID(ctx, f.almonds)
	require.NoError(t, err)
	p.Price = 650
	f.products.Put(p)
	f.products.Remove(f.dates)

	view, err := f.svc.Get(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 650.0, view.Items[0].Price)
	assert.Equal(t, 600.0, view.Items[0].PriceAtAdd)
	assert.Equal(t, 1300.0, view.Summary.Subtotal)
	assert.Equal(t, 234.0, view.Summary.Tax)
	assert.Equal(t, 0.0, view.Summary.Shipping)
	assert.Equal(t, 1534.0, view.Summary.Total)

	rows, err := f.items.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSummaryMatchesPricingScenario(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.Add(context.Background(), "u1", f.almonds, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, view.Summary.Subtotal)
	assert.Equal(t, 216.0, view.Summary.Tax)
	assert.Equal(t, 0.0, view.Summary.Shipping)
	assert.Equal(t, 1416.0, view.Summary.Total)
}

func TestCouponPreview(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "u1", f.almonds, 2, "")
	require.NoError(t, err)

	view, err := f.svc.Get(ctx, "u1", " nuts10 ")
	require.NoError(t, err)
	require.NotNil(t, view.Coupon)
	assert.True(t, view.Coupon.IsValid)
	assert.Equal(t, 120.0, view.Summary.Discount)
	assert.Equal(t, 1296.0, view.Summary.Total)

	view, err = f.svc.Get(ctx, "u1", "BOGUS")
	require.NoError(t, err)
	assert.False(t, view.Coupon.IsValid)
	assert.Equal(t, "Invalid coupon code", view.Coupon.ErrorMessage)
	assert.Equal(t, 0.0, view.Summary.Discount)
}

func TestMutationsPublishEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "u1", f.almonds, 1, "")
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, "u1"))
	_, _ = f.svc.Add(ctx, "u1", f.dates, 99, "")

	assert.Equal(t, []string{"u1:updated", "u1:cleared"}, f.events.events)
}

func TestInactiveProductCannotBeAdded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.products.FindByID(ctx, f.dates)
	require.NoError(t, err)
	p.IsActive = false
	f.products.Put(p)

	_, err = f.svc.Add(ctx, "u1", f.dates, 1, "")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
