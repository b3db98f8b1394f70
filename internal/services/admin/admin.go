// Package admin backs the back-office screens that are not owned by another
// service: coupons, the order list and the dashboard analytics.
package admin

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"
)

const (
	topProductsLimit  = 5
	recentOrdersLimit = 10
)

type Orders interface {
	List(ctx context.Context, f store.OrderFilter) ([]models.Order, int64, error)
	Stats(ctx context.Context) (models.OrderStats, error)
	TopProducts(ctx context.Context, limit int) ([]models.ProductSales, error)
	Recent(ctx context.Context, limit int64) ([]models.Order, error)
}

type Products interface {
	Stats(ctx context.Context) (models.ProductStats, error)
}

type Users interface {
	Count(ctx context.Context) (int64, error)
}

type Messages interface {
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type Coupons interface {
	List(ctx context.Context) ([]models.Coupon, error)
	FindByID(ctx context.Context, id string) (*models.Coupon, error)
	Create(ctx context.Context, c *models.Coupon) error
	Update(ctx context.Context, c *models.Coupon) error
	Delete(ctx context.Context, id string) error
}

type Deps struct {
	Orders   Orders
	Products Products
	Users    Users
	Messages Messages
	Coupons  Coupons
}

type Service struct {
	Deps
	now func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{Deps: d, now: time.Now}
}

type OrderQuery struct {
	Page          int
	Limit         int
	Search        string
	Status        string
	PaymentStatus string
}

type OrderPage struct {
	Items      []models.Order    `json:"items"`
	Stats      models.OrderStats `json:"stats"`
	Pagination models.Pagination `json:"pagination"`
}

func (s *Service) ListOrders(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	if q.Status != "" && !models.ValidOrderStatus(models.OrderStatus(q.Status)) {
		return nil, apperr.Validation("Unknown order status " + q.Status)
	}
	if q.PaymentStatus != "" && !models.ValidPaymentStatus(models.PaymentStatus(q.PaymentStatus)) {
		return nil, apperr.Validation("Unknown payment status " + q.PaymentStatus)
	}
	pg := store.Page{Page: q.Page, Limit: q.Limit}.Normalize()
	items, total, err := s.Orders.List(ctx, store.OrderFilter{
		Search:        strings.TrimSpace(q.Search),
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		Page:          pg,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	stats, err := s.Orders.Stats(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &OrderPage{Items: items, Stats: stats, Pagination: models.NewPagination(pg.Page, pg.Limit, total)}, nil
}

// Analytics gathers the dashboard counters. Each source is read once; a
// failing source fails the whole call.
func (s *Service) Analytics(ctx context.Context) (*models.Analytics, error) {
	var (
		a   models.Analytics
		err error
	)
	if a.Orders, err = s.Orders.Stats(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	if a.Products, err = s.Products.Stats(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	if a.Users, err = s.Users.Count(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	if a.UnreadMessages, err = s.Messages.CountByStatus(ctx, models.MessageNew); err != nil {
		return nil, apperr.Internal(err)
	}
	if a.TopProducts, err = s.Orders.TopProducts(ctx, topProductsLimit); err != nil {
		return nil, apperr.Internal(err)
	}
	if a.RecentOrders, err = s.Orders.Recent(ctx, recentOrdersLimit); err != nil {
		return nil, apperr.Internal(err)
	}
	return &a, nil
}

var couponCode = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

func (s *Service) validateCoupon(c *models.Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if !couponCode.MatchString(c.Code) {
		return apperr.Validation("code must be 3 to 32 letters, digits, dashes or underscores")
	}
	switch c.Type {
	case models.CouponPercentage:
		if c.Value <= 0 || c.Value > 100 {
			return apperr.Validation("percentage must be between 1 and 100")
		}
	case models.CouponFixed:
		if c.Value <= 0 {
			return apperr.Validation("fixed amount must be positive")
		}
	default:
		return apperr.Validation("type must be percentage or fixed")
	}
	if c.MinAmount < 0 || c.MaxDiscount < 0 || c.MaxUses < 0 {
		return apperr.Validation("amounts and limits cannot be negative")
	}
	if c.StartsAt.IsZero() {
		c.StartsAt = s.now()
	}
	if !c.ExpiresAt.IsZero() && !c.ExpiresAt.After(c.StartsAt) {
		return apperr.Validation("expiresAt must be after startsAt")
	}
	return nil
}

func (s *Service) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	out, err := s.Coupons.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) CreateCoupon(ctx context.Context, c *models.Coupon) (*models.Coupon, error) {
	if err := s.validateCoupon(c); err != nil {
		return nil, err
	}
	c.UsedCount = 0
	if err := s.Coupons.Create(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("This coupon code already exists")
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}

// UpdateCoupon replaces the editable fields; usage and creation time stay.
func (s *Service) UpdateCoupon(ctx context.Context, id string, c *models.Coupon) (before, after *models.Coupon, err error) {
	before, err = s.Coupons.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.NotFound("Coupon not found")
	}
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	if err := s.validateCoupon(c); err != nil {
		return nil, nil, err
	}
	c.ID = before.ID
	c.UsedCount = before.UsedCount
	c.CreatedAt = before.CreatedAt
	if err := s.Coupons.Update(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, nil, apperr.Conflict("This coupon code already exists")
		}
		return nil, nil, apperr.Internal(err)
	}
	return before, c, nil
}

func (s *Service) DeleteCoupon(ctx context.Context, id string) error {
	err := s.Coupons.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Coupon not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
