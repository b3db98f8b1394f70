package store

import (
	"context"
	"math"
	"time"

	"dryfruit_back_end/internal/database"
	"dryfruit_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ReviewStore struct {
	col *mongo.Collection
}

func NewReviewStore(db *mongo.Database) *ReviewStore {
	return &ReviewStore{col: db.Collection(database.ColReviews)}
}

func (s *ReviewStore) ListByProduct(ctx context.Context, productID string, p Page) ([]models.Review, int64, error) {
	q := bson.M{"productId": productID}
	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.col.Find(ctx, q, p.options(bson.D{{Key: "helpful", Value: -1}, {Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	out := []models.Review{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create fails with ErrDuplicate on a second review by the same user.
func (s *ReviewStore) Create(ctx context.Context, r *models.Review) error {
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now()
	_, err := s.col.InsertOne(ctx, r)
	return writeErr(err)
}

func (s *ReviewStore) MarkHelpful(ctx context.Context, id string) (*models.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var r models.Review
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"helpful": 1}},
		optionsReturnAfter()).Decode(&r)
	if err != nil {
		return nil, readErr(err)
	}
	return &r, nil
}

func (s *ReviewStore) Rating(ctx context.Context, productID string) (models.ProductRating, error) {
	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "average": bson.M{"$avg": "$rating"}, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return models.ProductRating{}, err
	}
	var rows []models.ProductRating
	if err := cur.All(ctx, &rows); err != nil || len(rows) == 0 {
		return models.ProductRating{}, err
	}
	r := rows[0]
	r.Average = math.Round(r.Average*10) / 10
	return r, nil
}
