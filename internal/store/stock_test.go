package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"dryfruit_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestStockFilters(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name string
		got  bson.M
		want bson.M
	}{
		{
			name: "variant take needs units on hand",
			got:  variantStockFilter(oid, "1kg", -3),
			want: bson.M{"_id": oid, "variants": bson.M{"$elemMatch": bson.M{"id": "1kg", "stock": bson.M{"$gte": 3}}}},
		},
		{
			name: "variant return needs tracked stock",
			got:  variantStockFilter(oid, "1kg", 2),
			want: bson.M{"_id": oid, "variants": bson.M{"$elemMatch": bson.M{"id": "1kg", "stock": bson.M{"$type": "number"}}}},
		},
		{
			name: "parent take",
			got:  parentStockFilter(oid, "", -4),
			want: bson.M{"_id": oid, "stockCount": bson.M{"$gte": 4}},
		},
		{
			name: "parent return is unconditional",
			got:  parentStockFilter(oid, "", 4),
			want: bson.M{"_id": oid},
		},
		{
			name: "untracked variant draws from parent",
			got:  parentStockFilter(oid, "250g", -1),
			want: bson.M{"_id": oid, "stockCount": bson.M{"$gte": 1}, "variants": bson.M{"$elemMatch": bson.M{"id": "250g", "stock": nil}}},
		},
		{
			name: "cart increment stays under the cap",
			got:  incrementFilter("u1", "p1", "", 2, 5),
			want: bson.M{"userId": "u1", "productId": "p1", "variantId": "", "quantity": bson.M{"$lte": 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

// mongoDB returns a throwaway database, or skips when MONGO_URI is unset.
func mongoDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database(fmt.Sprintf("dryfruit_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestProductStockNeverOversells(t *testing.T) {
	db := mongoDB(t)
	ctx := context.Background()
	products := NewProductStore(db)

	two := 2
	p := &models.Product{
		Name: "Almonds", Slug: "almonds", Price: 600, StockCount: 3, InStock: true, IsActive: true,
		Variants: []models.Variant{
			{ID: "1kg", Label: "1 kg", Price: 1100, Stock: &two},
			{ID: "250g", Label: "250 g", Price: 180},
		},
	}
	require.NoError(t, products.Create(ctx, p))
	id := p.ID.Hex()

	assert.ErrorIs(t, products.Decrement(ctx, id, "1kg", 3, "o1"), ErrConflict)
	require.NoError(t, products.Decrement(ctx, id, "1kg", 2, "o1"))
	assert.ErrorIs(t, products.Decrement(ctx, id, "1kg", 1, "o2"), ErrConflict)

	// the untracked variant draws from the parent counter
	require.NoError(t, products.Decrement(ctx, id, "250g", 3, "o3"))
	assert.ErrorIs(t, products.Decrement(ctx, id, "250g", 1, "o4"), ErrConflict)
	assert.ErrorIs(t, products.Decrement(ctx, id, "", 1, "o4"), ErrConflict)

	require.NoError(t, products.Restock(ctx, id, "1kg", 2, "o1"))
	require.NoError(t, products.Restock(ctx, id, "250g", 1, "o3"))

	got, err := products.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StockCount)
	assert.True(t, got.InStock)
	v, ok := got.FindVariant("1kg")
	require.True(t, ok)
	assert.Equal(t, 2, *v.Stock)
}

func TestCartIncrementRespectsCap(t *testing.T) {
	db := mongoDB(t)
	ctx := context.Background()
	carts := NewCartStore(db)

	require.NoError(t, carts.Insert(ctx, &models.CartItem{UserID: "u1", ProductID: "p1", Quantity: 3, Price: 450}))
	require.NoError(t, carts.Increment(ctx, "u1", "p1", "", 2, 5))
	assert.ErrorIs(t, carts.Increment(ctx, "u1", "p1", "", 1, 5), ErrConflict)

	item, err := carts.Find(ctx, "u1", "p1", "")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
}
