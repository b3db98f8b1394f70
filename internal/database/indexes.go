package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ColProducts       = "products"
	ColCart           = "cart_items"
	ColOrders         = "orders"
	ColUsers          = "users"
	ColReviews        = "reviews"
	ColCoupons        = "coupons"
	ColMessages       = "contact_messages"
	ColBlog           = "blog_posts"
	ColSettings       = "settings"
	ColStockMovements = "stock_movements"
	ColRefunds        = "refunds"
)

var indexes = map[string][]mongo.IndexModel{
	ColProducts: {
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "legacyId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}}},
	},
	ColCart: {
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}, {Key: "variantId", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	ColOrders: {
		{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "gatewayOrderId", Value: 1}}, Options: options.Index().SetSparse(true)},
	},
	ColUsers: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	ColReviews: {
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	ColCoupons: {
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	ColBlog: {
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	ColStockMovements: {
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
}

// EnsureIndexes creates the unique and lookup indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for col, models := range indexes {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", col, err)
		}
	}
	return nil
}
