package store

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dryfruit_back_end/internal/database"
	"dryfruit_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductStore struct {
	col       *mongo.Collection
	movements *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{
		col:       db.Collection(database.ColProducts),
		movements: db.Collection(database.ColStockMovements),
	}
}

// Resolve accepts a hex ObjectID, a numeric legacy id or a slug.
func (s *ProductStore) Resolve(ctx context.Context, ref string) (*models.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}
	var filter bson.M
	if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
		filter = bson.M{"_id": oid}
	} else if n, err := strconv.Atoi(ref); err == nil {
		filter = bson.M{"legacyId": n}
	} else {
		filter = bson.M{"slug": ref}
	}

	var p models.Product
	if err := s.col.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, readErr(err)
	}
	return &p, nil
}

func (s *ProductStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return nil, readErr(err)
	}
	return &p, nil
}

// FindByIDs returns the products keyed by hex id; unknown ids are absent.
func (s *ProductStore) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	out := make(map[string]*models.Product, len(oids))
	if len(oids) == 0 {
		return out, nil
	}
	cur, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	for i := range products {
		out[products[i].ID.Hex()] = &products[i]
	}
	return out, nil
}

type ProductFilter struct {
	Search     string
	Category   string
	Status     string // active, inactive, low_stock, out_of_stock
	Sort       string // price_asc, price_desc, rating, newest, name
	ActiveOnly bool
	IDs        []string
	Page       Page
}

func (f ProductFilter) query() bson.M {
	q := bson.M{}
	if f.ActiveOnly {
		q["isActive"] = true
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if len(f.IDs) > 0 {
		oids := make([]primitive.ObjectID, 0, len(f.IDs))
		for _, id := range f.IDs {
			if oid, err := primitive.ObjectIDFromHex(id); err == nil {
				oids = append(oids, oid)
			}
		}
		q["_id"] = bson.M{"$in": oids}
	} else if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"description": rx},
			bson.M{"category": rx},
		}
	}
	switch f.Status {
	case "active":
		q["isActive"] = true
	case "inactive":
		q["isActive"] = false
	case "low_stock":
		q["stockCount"] = bson.M{"$gt": 0, "$lte": models.LowStockThreshold}
	case "out_of_stock":
		q["stockCount"] = bson.M{"$lte": 0}
	}
	return q
}

func (f ProductFilter) sort() bson.D {
	switch f.Sort {
	case "price_asc":
		return bson.D{{Key: "price", Value: 1}}
	case "price_desc":
		return bson.D{{Key: "price", Value: -1}}
	case "rating":
		return bson.D{{Key: "rating", Value: -1}}
	case "name":
		return bson.D{{Key: "name", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func (s *ProductStore) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	q := f.query()
	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.col.Find(ctx, q, f.Page.options(f.sort()))
	if err != nil {
		return nil, 0, err
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *ProductStore) Stats(ctx context.Context) (models.ProductStats, error) {
	var st models.ProductStats
	var err error
	if st.Total, err = s.col.CountDocuments(ctx, bson.M{}); err != nil {
		return st, err
	}
	if st.Active, err = s.col.CountDocuments(ctx, bson.M{"isActive": true}); err != nil {
		return st, err
	}
	if st.LowStock, err = s.col.CountDocuments(ctx, bson.M{"stockCount": bson.M{"$gt": 0, "$lte": models.LowStockThreshold}}); err != nil {
		return st, err
	}
	st.OutOfStock, err = s.col.CountDocuments(ctx, bson.M{"stockCount": bson.M{"$lte": 0}})
	return st, err
}

func (s *ProductStore) Categories(ctx context.Context) ([]models.CategorySummary, error) {
	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isActive": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, err
	}
	out := []models.CategorySummary{}
	err = cur.All(ctx, &out)
	return out, err
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	p.InStock = p.StockCount > 0
	_, err := s.col.InsertOne(ctx, p)
	return writeErr(err)
}

func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now()
	p.InStock = p.StockCount > 0
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return writeErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
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

func (s *ProductStore) AddImage(ctx context.Context, id, url string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$push": bson.M{"images": url},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductStore) SetRating(ctx context.Context, id string, r models.ProductRating) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"rating":      r.Average,
		"reviewCount": r.Count,
	}})
	return err
}

// Decrement takes qty units in a single conditional update, so two buyers can
// never both take the last unit. Variants with their own stock are decremented
// in place; other variants draw from the parent.
func (s *ProductStore) Decrement(ctx context.Context, productID, variantID string, qty int, orderID string) error {
	return s.move(ctx, productID, variantID, -qty, models.MovementSale, "", orderID, "")
}

func (s *ProductStore) Restock(ctx context.Context, productID, variantID string, qty int, orderID string) error {
	return s.move(ctx, productID, variantID, qty, models.MovementRestock, "", orderID, "")
}

// AdjustStock applies an admin correction; the result may not go below zero.
func (s *ProductStore) AdjustStock(ctx context.Context, productID, variantID string, delta int, reason, userID string) error {
	return s.move(ctx, productID, variantID, delta, models.MovementAdjustment, reason, "", userID)
}

// variantStockFilter matches a variant that tracks its own stock. Takes need
// at least -delta units on hand; returns only need the stock to be tracked.
func variantStockFilter(oid primitive.ObjectID, variantID string, delta int) bson.M {
	stock := bson.M{"$gte": -delta}
	if delta > 0 {
		stock = bson.M{"$type": "number"}
	}
	return bson.M{"_id": oid, "variants": bson.M{"$elemMatch": bson.M{"id": variantID, "stock": stock}}}
}

// parentStockFilter matches the product's own counter. A variant id limits it
// to variants that carry no stock of their own.
func parentStockFilter(oid primitive.ObjectID, variantID string, delta int) bson.M {
	filter := bson.M{"_id": oid}
	if delta < 0 {
		filter["stockCount"] = bson.M{"$gte": -delta}
	}
	if variantID != "" {
		filter["variants"] = bson.M{"$elemMatch": bson.M{"id": variantID, "stock": nil}}
	}
	return filter
}

func (s *ProductStore) move(ctx context.Context, productID, variantID string, delta int, kind, reason, orderID, userID string) error {
	oid, err := objectID(productID)
	if err != nil {
		return err
	}
	now := time.Now()

	matched := false
	if variantID != "" {
		res, err := s.col.UpdateOne(ctx, variantStockFilter(oid, variantID, delta), bson.M{
			"$inc": bson.M{"variants.$.stock": delta},
			"$set": bson.M{"updatedAt": now},
		})
		if err != nil {
			return err
		}
		matched = res.MatchedCount > 0
	}

	if !matched {
		res, err := s.col.UpdateOne(ctx, parentStockFilter(oid, variantID, delta), bson.M{
			"$inc": bson.M{"stockCount": delta},
			"$set": bson.M{"updatedAt": now},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrConflict
		}
		if _, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, []bson.M{
			{"$set": bson.M{"inStock": bson.M{"$gt": bson.A{"$stockCount", 0}}}},
		}); err != nil {
			return err
		}
	}

	_, err = s.movements.InsertOne(ctx, models.StockMovement{
		ProductID: productID,
		VariantID: variantID,
		Type:      kind,
		Quantity:  delta,
		Reason:    reason,
		OrderID:   orderID,
		UserID:    userID,
		CreatedAt: now,
	})
	return err
}

func (s *ProductStore) Movements(ctx context.Context, productID string, limit int64) ([]models.StockMovement, error) {
	cur, err := s.movements.Find(ctx, bson.M{"productId": productID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	out := []models.StockMovement{}
	err = cur.All(ctx, &out)
	return out, err
}
