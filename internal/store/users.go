package store

import (
	"context"
	"regexp"
	"strings"
	"time"

	"dryfruit_back_end/internal/database"
	"dryfruit_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection(database.ColUsers)}
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		return nil, readErr(err)
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.col.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u); err != nil {
		return nil, readErr(err)
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	now := time.Now()
	u.ID = primitive.NewObjectID()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Addresses == nil {
		u.Addresses = []models.Address{}
	}
	_, err := s.col.InsertOne(ctx, u)
	return writeErr(err)
}

func (s *UserStore) set(ctx context.Context, id string, fields bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	fields["updatedAt"] = time.Now()
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) SetVerificationCode(ctx context.Context, id, code string, expiry time.Time) error {
	return s.set(ctx, id, bson.M{"verificationCode": code, "verificationExpiry": expiry})
}

func (s *UserStore) MarkVerified(ctx context.Context, id string) error {
	return s.set(ctx, id, bson.M{"emailVerified": true, "verificationCode": "", "verificationExpiry": time.Time{}})
}

func (s *UserStore) UpdateProfile(ctx context.Context, id, name, phone string) error {
	return s.set(ctx, id, bson.M{"name": name, "phone": phone})
}

func (s *UserStore) SetAddresses(ctx context.Context, id string, addrs []models.Address) error {
	return s.set(ctx, id, bson.M{"addresses": addrs})
}

func (s *UserStore) SetPreferences(ctx context.Context, id string, p models.Preferences) error {
	return s.set(ctx, id, bson.M{"preferences": p})
}

func (s *UserStore) SetRole(ctx context.Context, id, role string) error {
	return s.set(ctx, id, bson.M{"role": role})
}

func (s *UserStore) SetPassword(ctx context.Context, id, hash string) error {
	return s.set(ctx, id, bson.M{"password": hash})
}

func (s *UserStore) LinkProvider(ctx context.Context, id, provider, providerID string) error {
	return s.set(ctx, id, bson.M{"provider": provider, "providerId": providerID, "emailVerified": true})
}

type UserFilter struct {
	Search string
	Role   string
	Page   Page
}

func (s *UserStore) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{bson.M{"email": rx}, bson.M{"name": rx}}
	}
	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.col.Find(ctx, q, f.Page.options(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}
