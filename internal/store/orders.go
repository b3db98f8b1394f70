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

type OrderStore struct {
	col     *mongo.Collection
	refunds *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{
		col:     db.Collection(database.ColOrders),
		refunds: db.Collection(database.ColRefunds),
	}
}

func (s *OrderStore) Insert(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, o)
	return writeErr(err)
}

func (s *OrderStore) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var o models.Order
	if err := s.col.FindOne(ctx, filter).Decode(&o); err != nil {
		return nil, readErr(err)
	}
	return &o, nil
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *OrderStore) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"orderNumber": number})
}

func (s *OrderStore) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	if gatewayOrderID == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"gatewayOrderId": gatewayOrderID})
}

func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	cur, err := s.col.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	orders := []models.Order{}
	err = cur.All(ctx, &orders)
	return orders, err
}

// Save writes the mutable part of an order. Items and totals never change
// after creation.
func (s *OrderStore) Save(ctx context.Context, o *models.Order) error {
	return s.save(ctx, bson.M{"_id": o.ID}, o, ErrNotFound)
}

// SaveFrom is Save guarded by the status pair the caller read. A concurrent
// transition, such as a payment landing, makes it fail with ErrConflict.
func (s *OrderStore) SaveFrom(ctx context.Context, o *models.Order, status models.OrderStatus, paymentStatus models.PaymentStatus) error {
	return s.save(ctx, transitionFilter(o.ID, status, paymentStatus), o, ErrConflict)
}

func transitionFilter(id primitive.ObjectID, status models.OrderStatus, paymentStatus models.PaymentStatus) bson.M {
	return bson.M{"_id": id, "status": status, "paymentStatus": paymentStatus}
}

func (s *OrderStore) save(ctx context.Context, filter bson.M, o *models.Order, missed error) error {
	o.UpdatedAt = time.Now()
	res, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"status":           o.Status,
		"paymentStatus":    o.PaymentStatus,
		"trackingNumber":   o.TrackingNumber,
		"shippingProvider": o.ShippingProvider,
		"gatewayOrderId":   o.GatewayOrderID,
		"gatewayPaymentId": o.GatewayPaymentID,
		"history":          o.History,
		"updatedAt":        o.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return missed
	}
	return nil
}

// MarkPaid records a verified payment once. It reports false when the order
// was already paid or is no longer payable.
func (s *OrderStore) MarkPaid(ctx context.Context, id, paymentID string, at time.Time) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := s.col.UpdateOne(ctx, bson.M{
		"_id":           oid,
		"paymentStatus": bson.M{"$in": bson.A{models.PaymentPending, models.PaymentProcessing, models.PaymentFailed}},
		"status":        bson.M{"$in": bson.A{models.OrderPending, models.OrderConfirmed, models.OrderProcessing}},
	}, bson.M{
		"$set": bson.M{
			"paymentStatus":    models.PaymentSucceeded,
			"status":           models.OrderConfirmed,
			"gatewayPaymentId": paymentID,
			"updatedAt":        at,
		},
		"$push": bson.M{"history": models.StatusChange{
			Status: models.OrderConfirmed, PaymentStatus: models.PaymentSucceeded, Note: "payment verified", At: at,
		}},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *OrderStore) MarkPaymentFailed(ctx context.Context, id string, at time.Time) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := s.col.UpdateOne(ctx, bson.M{
		"_id":           oid,
		"paymentStatus": bson.M{"$in": bson.A{models.PaymentPending, models.PaymentProcessing}},
	}, bson.M{
		"$set": bson.M{"paymentStatus": models.PaymentFailed, "updatedAt": at},
		"$push": bson.M{"history": models.StatusChange{
			Status: models.OrderPending, PaymentStatus: models.PaymentFailed, Note: "payment failed", At: at,
		}},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *OrderStore) SetGatewayOrder(ctx context.Context, id, gatewayOrderID string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"gatewayOrderId": gatewayOrderID,
		"updatedAt":      time.Now(),
	}})
	return err
}

// ClaimRestock flips stockRestored exactly once per order.
func (s *OrderStore) ClaimRestock(ctx context.Context, id string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": oid, "stockRestored": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"stockRestored": true}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *OrderStore) DeleteByNumber(ctx context.Context, number string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"orderNumber": number})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type OrderFilter struct {
	Search        string
	Status        string
	PaymentStatus string
	Page          Page
}

func (s *OrderStore) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		q["paymentStatus"] = f.PaymentStatus
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{bson.M{"orderNumber": rx}, bson.M{"userEmail": rx}, bson.M{"shippingAddress.fullName": rx}}
	}
	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.col.Find(ctx, q, f.Page.options(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *OrderStore) Stats(ctx context.Context) (models.OrderStats, error) {
	st := models.OrderStats{
		ByStatus:        map[models.OrderStatus]int64{},
		ByPaymentStatus: map[models.PaymentStatus]int64{},
	}
	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"status": "$status", "paymentStatus": "$paymentStatus"},
			"count": bson.M{"$sum": 1},
			"total": bson.M{"$sum": "$total"},
		}}},
	})
	if err != nil {
		return st, err
	}
	var rows []struct {
		ID struct {
			Status        models.OrderStatus   `bson:"status"`
			PaymentStatus models.PaymentStatus `bson:"paymentStatus"`
		} `bson:"_id"`
		Count int64   `bson:"count"`
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return st, err
	}
	for _, r := range rows {
		st.Total += r.Count
		st.ByStatus[r.ID.Status] += r.Count
		st.ByPaymentStatus[r.ID.PaymentStatus] += r.Count
		if r.ID.PaymentStatus == models.PaymentSucceeded {
			st.Revenue += r.Total
		}
	}
	return st, nil
}

func (s *OrderStore) TopProducts(ctx context.Context, limit int) ([]models.ProductSales, error) {
	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"paymentStatus": models.PaymentSucceeded}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$items.productId",
			"name":      bson.M{"$first": "$items.name"},
			"totalSold": bson.M{"$sum": "$items.quantity"},
			"revenue":   bson.M{"$sum": bson.M{"$multiply": bson.A{"$items.price", "$items.quantity"}}},
		}}},
		{{Key: "$sort", Value: bson.M{"totalSold": -1}}},
		{{Key: "$limit", Value: limit}},
	})
	if err != nil {
		return nil, err
	}
	out := []models.ProductSales{}
	err = cur.All(ctx, &out)
	return out, err
}

func (s *OrderStore) Recent(ctx context.Context, limit int64) ([]models.Order, error) {
	cur, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	out := []models.Order{}
	err = cur.All(ctx, &out)
	return out, err
}

// HasPurchased reports whether the user paid for or received the product.
func (s *OrderStore) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{
		"userId":          userID,
		"items.productId": productID,
		"$or": bson.A{
			bson.M{"paymentStatus": models.PaymentSucceeded},
			bson.M{"status": models.OrderDelivered},
		},
	}, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *OrderStore) InsertRefund(ctx context.Context, r *models.Refund) error {
	r.ID = primitive.NewObjectID()
	_, err := s.refunds.InsertOne(ctx, r)
	return err
}
