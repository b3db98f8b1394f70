package store

import (
	"context"
	"strings"
	"time"

	"dryfruit_back_end/internal/database"
	"dryfruit_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CouponStore struct {
	col *mongo.Collection
}

func NewCouponStore(db *mongo.Database) *CouponStore {
	return &CouponStore{col: db.Collection(database.ColCoupons)}
}

func (s *CouponStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	if err := s.col.FindOne(ctx, bson.M{"code": strings.ToUpper(code)}).Decode(&c); err != nil {
		return nil, readErr(err)
	}
	return &c, nil
}

// IncrementUsage consumes one use, failing with ErrConflict once maxUses is hit.
func (s *CouponStore) IncrementUsage(ctx context.Context, code string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{
		"code": strings.ToUpper(code),
		"$or": bson.A{
			bson.M{"maxUses": bson.M{"$lte": 0}},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$maxUses"}}},
		},
	}, bson.M{"$inc": bson.M{"usedCount": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (s *CouponStore) List(ctx context.Context) ([]models.Coupon, error) {
	cur, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []models.Coupon{}
	err = cur.All(ctx, &out)
	return out, err
}

func (s *CouponStore) Create(ctx context.Context, c *models.Coupon) error {
	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.Code = strings.ToUpper(c.Code)
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.col.InsertOne(ctx, c)
	return writeErr(err)
}

func (s *CouponStore) Update(ctx context.Context, c *models.Coupon) error {
	c.Code = strings.ToUpper(c.Code)
	c.UpdatedAt = time.Now()
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return writeErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CouponStore) FindByID(ctx context.Context, id string) (*models.Coupon, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var c models.Coupon
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&c); err != nil {
		return nil, readErr(err)
	}
	return &c, nil
}

func (s *CouponStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
