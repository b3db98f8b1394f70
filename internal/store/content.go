package store

import (
	"context"
	"regexp"
	"time"

	"dryfruit_back_end/internal/database"
	"dryfruit_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageStore struct {
	col *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{col: db.Collection(database.ColMessages)}
}

func (s *MessageStore) Create(ctx context.Context, m *models.ContactMessage) error {
	now := time.Now()
	m.ID = primitive.NewObjectID()
	m.Status = models.MessageNew
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := s.col.InsertOne(ctx, m)
	return err
}

type MessageFilter struct {
	Search string
	Status string
	Page   Page
}

func (s *MessageStore) List(ctx context.Context, f MessageFilter) ([]models.ContactMessage, int64, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{bson.M{"name": rx}, bson.M{"email": rx}, bson.M{"subject": rx}}
	}
	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.col.Find(ctx, q, f.Page.options(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	out := []models.ContactMessage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *MessageStore) Stats(ctx context.Context) (models.MessageStats, error) {
	st := models.NewMessageStats()
	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return st, err
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return st, err
	}
	for _, r := range rows {
		st.Total += r.Count
		st.ByStatus[r.Status] += r.Count
	}
	return st, nil
}

func (s *MessageStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"status": status})
}

func (s *MessageStore) UpdateStatus(ctx context.Context, id, status string) (*models.ContactMessage, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var m models.ContactMessage
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
		optionsReturnAfter()).Decode(&m)
	if err != nil {
		return nil, readErr(err)
	}
	return &m, nil
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
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

type BlogStore struct {
	col *mongo.Collection
}

func NewBlogStore(db *mongo.Database) *BlogStore {
	return &BlogStore{col: db.Collection(database.ColBlog)}
}

func (s *BlogStore) List(ctx context.Context, publishedOnly bool, tag string, p Page) ([]models.BlogPost, int64, error) {
	q := bson.M{}
	if publishedOnly {
		q["published"] = true
	}
	if tag != "" {
		q["tags"] = tag
	}
	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.col.Find(ctx, q, p.options(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	out := []models.BlogPost{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *BlogStore) FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var b models.BlogPost
	if err := s.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&b); err != nil {
		return nil, readErr(err)
	}
	return &b, nil
}

func (s *BlogStore) Create(ctx context.Context, b *models.BlogPost) error {
	now := time.Now()
	b.ID = primitive.NewObjectID()
	b.CreatedAt, b.UpdatedAt = now, now
	_, err := s.col.InsertOne(ctx, b)
	return writeErr(err)
}

const settingsID = "store"

type SettingsStore struct {
	col *mongo.Collection
}

func NewSettingsStore(db *mongo.Database) *SettingsStore {
	return &SettingsStore{col: db.Collection(database.ColSettings)}
}

// Get returns the stored settings, or zero settings if none were saved yet.
func (s *SettingsStore) Get(ctx context.Context) (*models.Settings, error) {
	var st models.Settings
	err := s.col.FindOne(ctx, bson.M{"_id": settingsID}).Decode(&st)
	if err != nil && readErr(err) != ErrNotFound {
		return nil, err
	}
	return &st, nil
}

func (s *SettingsStore) Save(ctx context.Context, st *models.Settings) error {
	st.UpdatedAt = time.Now()
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": settingsID}, st, options.Replace().SetUpsert(true))
	return err
}
