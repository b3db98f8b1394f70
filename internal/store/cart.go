package store

import (
	"context"
	"time"

	"dryfruit_back_end/internal/database"
	"dryfruit_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartStore keeps one document per (user, product, variant), enforced by a
// unique index.
type CartStore struct {
	col *mongo.Collection
}

func NewCartStore(db *mongo.Database) *CartStore {
	return &CartStore{col: db.Collection(database.ColCart)}
}

func rowFilter(userID, productID, variantID string) bson.M {
	return bson.M{"userId": userID, "productId": productID, "variantId": variantID}
}

func (s *CartStore) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	cur, err := s.col.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "addedAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	items := []models.CartItem{}
	err = cur.All(ctx, &items)
	return items, err
}

func (s *CartStore) Find(ctx context.Context, userID, productID, variantID string) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.col.FindOne(ctx, rowFilter(userID, productID, variantID)).Decode(&item); err != nil {
		return nil, readErr(err)
	}
	return &item, nil
}

func (s *CartStore) Insert(ctx context.Context, item *models.CartItem) error {
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	res, err := s.col.InsertOne(ctx, item)
	if err != nil {
		return writeErr(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		item.ID = oid
	}
	return nil
}

func incrementFilter(userID, productID, variantID string, qty, max int) bson.M {
	filter := rowFilter(userID, productID, variantID)
	filter["quantity"] = bson.M{"$lte": max - qty}
	return filter
}

// Increment adds qty only while the row stays at or below max.
func (s *CartStore) Increment(ctx context.Context, userID, productID, variantID string, qty, max int) error {
	res, err := s.col.UpdateOne(ctx, incrementFilter(userID, productID, variantID, qty, max), bson.M{"$inc": bson.M{"quantity": qty}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (s *CartStore) SetQuantity(ctx context.Context, userID, productID, variantID string, qty int) error {
	res, err := s.col.UpdateOne(ctx, rowFilter(userID, productID, variantID), bson.M{"$set": bson.M{"quantity": qty}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, userID, productID, variantID string) error {
	res, err := s.col.DeleteOne(ctx, rowFilter(userID, productID, variantID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CartStore) Clear(ctx context.Context, userID string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
