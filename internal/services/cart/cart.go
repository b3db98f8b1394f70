// Package cart is the per-user cart ledger. Stock and price are always read
// from the catalog at mutation time, never from the stored row.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/pricing"
	"dryfruit_back_end/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Products interface {
	Resolve(ctx context.Context, ref string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)
}

type Items interface {
	List(ctx context.Context, userID string) ([]models.CartItem, error)
	Find(ctx context.Context, userID, productID, variantID string) (*models.CartItem, error)
	Insert(ctx context.Context, item *models.CartItem) error
	Increment(ctx context.Context, userID, productID, variantID string, qty, max int) error
	SetQuantity(ctx context.Context, userID, productID, variantID string, qty int) error
	Delete(ctx context.Context, userID, productID, variantID string) error
	Clear(ctx context.Context, userID string) error
}

type Coupons interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Notifier fans a cart change out to the user's open sessions.
type Notifier interface {
	CartChanged(ctx context.Context, userID, event string)
}

const (
	EventUpdated = "updated"
	EventCleared = "cleared"
)

type Line struct {
	ProductID    string  `json:"productId"`
	VariantID    string  `json:"variantId,omitempty"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug,omitempty"`
	VariantLabel string  `json:"variantLabel,omitempty"`
	Image        string  `json:"image,omitempty"`
	Price        float64 `json:"price"`
	PriceAtAdd   float64 `json:"priceAtAdd"`
	Quantity     int     `json:"quantity"`
	Available    int     `json:"available"`
	LineTotal    float64 `json:"lineTotal"`
}

type View struct {
	Items   []Line                   `json:"items"`
	Count   int                      `json:"count"`
	Summary pricing.Summary          `json:"summary"`
	Coupon  *models.CouponValidation `json:"coupon,omitempty"`
}

type Service struct {
	products Products
	items    Items
	coupons  Coupons
	notifier Notifier
	now      func() time.Time
}

func NewService(products Products, items Items, coupons Coupons, notifier Notifier) *Service {
	return &Service{products: products, items: items, coupons: coupons, notifier: notifier, now: time.Now}
}

func (s *Service) notify(ctx context.Context, userID, event string) {
	if s.notifier != nil {
		s.notifier.CartChanged(ctx, userID, event)
	}
}

// Get joins the stored rows with live products. Rows whose product or
// variant is gone are deleted on the way. A coupon code only previews the
// discount; an invalid code is reported, not returned as an error.
func (s *Service) Get(ctx context.Context, userID, couponCode string) (*View, error) {
	rows, err := s.items.List(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	view := &View{Items: []Line{}}
	lines := make([]pricing.Line, 0, len(rows))
	for _, r := range rows {
		p, ok := products[r.ProductID]
		if !ok {
			s.dropStale(ctx, r)
			continue
		}
		available, err := p.Available(r.VariantID)
		if err != nil {
			s.dropStale(ctx, r)
			continue
		}
		price := p.UnitPrice(r.VariantID)
		view.Items = append(view.Items, Line{
			ProductID:    r.ProductID,
			VariantID:    r.VariantID,
			Name:         p.Name,
			Slug:         p.Slug,
			VariantLabel: p.VariantLabel(r.VariantID),
			Image:        p.FirstImage(),
			Price:        price,
			PriceAtAdd:   r.Price,
			Quantity:     r.Quantity,
			Available:    available,
			LineTotal:    pricing.Summarize([]pricing.Line{{Price: price, Quantity: r.Quantity}}, 0).Subtotal,
		})
		view.Count += r.Quantity
		lines = append(lines, pricing.Line{Price: price, Quantity: r.Quantity})
	}

	discount := 0.0
	if code := pricing.NormalizeCode(couponCode); code != "" {
		subtotal := pricing.Summarize(lines, 0).Subtotal
		view.Coupon = s.previewCoupon(ctx, code, subtotal)
		discount = view.Coupon.Discount
	}
	view.Summary = pricing.Summarize(lines, discount)
	return view, nil
}

func (s *Service) previewCoupon(ctx context.Context, code string, subtotal float64) *models.CouponValidation {
	v := &models.CouponValidation{Code: code}
	if s.coupons == nil {
		v.ErrorMessage = "Invalid coupon code"
		return v
	}
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("⚠️ coupon lookup %s: %v", code, err)
	}
	d, err := pricing.CouponDiscount(c, subtotal, s.now())
	if err != nil {
		v.ErrorMessage = err.Error()
		if e, ok := apperr.As(err); ok {
			v.ErrorMessage = e.Message
		}
		return v
	}
	v.IsValid = true
	v.Discount = d
	v.Type = c.Type
	return v
}

func (s *Service) dropStale(ctx context.Context, r models.CartItem) {
	if err := s.items.Delete(ctx, r.UserID, r.ProductID, r.VariantID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("⚠️ could not drop stale cart row %s/%s: %v", r.ProductID, r.VariantID, err)
		return
	}
	log.Printf("🛒 dropped stale cart row %s for user %s", r.ProductID, r.UserID)
}

func (s *Service) resolve(ctx context.Context, ref string) (*models.Product, error) {
	p, err := s.products.Resolve(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func availability(p *models.Product, variantID string) (int, error) {
	n, err := p.Available(variantID)
	if errors.Is(err, models.ErrVariantNotFound) {
		return 0, apperr.NotFound("Variant not found")
	}
	return n, err
}

func notEnough(available int) error {
	if available <= 0 {
		return apperr.InsufficientStock("Product is out of stock", 0)
	}
	return apperr.InsufficientStock(fmt.Sprintf("Only %d available", available), available)
}

// Add upserts the (product, variant) row. An existing row is incremented
// with a conditional update so the total never passes the available stock.
func (s *Service) Add(ctx context.Context, userID, productRef string, qty int, variantID string) (*View, error) {
	if qty < 1 {
		return nil, apperr.Validation("Quantity must be at least 1")
	}
	p, err := s.resolve(ctx, productRef)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.NotFound("Product not found")
	}
	available, err := availability(p, variantID)
	if err != nil {
		return nil, err
	}
	if qty > available {
		return nil, notEnough(available)
	}

	pid := p.ID.Hex()
	existing, err := s.items.Find(ctx, userID, pid, variantID)
	switch {
	case err == nil:
		if existing.Quantity+qty > available {
			return nil, notEnough(available)
		}
		if err := s.increment(ctx, userID, pid, variantID, qty, available); err != nil {
			return nil, err
		}
	case errors.Is(err, store.ErrNotFound):
		err := s.items.Insert(ctx, &models.CartItem{
			UserID:    userID,
			ProductID: pid,
			VariantID: variantID,
			Quantity:  qty,
			Price:     p.UnitPrice(variantID),
			AddedAt:   s.now(),
		})
		if errors.Is(err, store.ErrDuplicate) {
			// a concurrent add created the row first
			err = s.increment(ctx, userID, pid, variantID, qty, available)
		}
		if err != nil {
			return nil, wrapInternal(err)
		}
	default:
		return nil, apperr.Internal(err)
	}

	s.notify(ctx, userID, EventUpdated)
	return s.Get(ctx, userID, "")
}

func (s *Service) increment(ctx context.Context, userID, pid, variantID string, qty, available int) error {
	err := s.items.Increment(ctx, userID, pid, variantID, qty, available)
	if errors.Is(err, store.ErrConflict) {
		return notEnough(available)
	}
	return wrapInternal(err)
}

func wrapInternal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(err)
}

// rowProductID maps a ref to the id stored on cart rows. A hex id whose
// product was deleted still addresses its row so it can be removed.
func (s *Service) rowProductID(ctx context.Context, ref string) (string, *models.Product, error) {
	p, err := s.resolve(ctx, ref)
	if err == nil {
		return p.ID.Hex(), p, nil
	}
	if apperr.IsKind(err, apperr.KindNotFound) && primitive.IsValidObjectID(ref) {
		return ref, nil, nil
	}
	return "", nil, err
}

// Update sets the row quantity; zero removes the row.
func (s *Service) Update(ctx context.Context, userID, productRef string, qty int, variantID string) (*View, error) {
	if qty < 0 {
		return nil, apperr.Validation("Quantity cannot be negative")
	}
	if qty == 0 {
		return s.Remove(ctx, userID, productRef, variantID)
	}

	pid, p, err := s.rowProductID(ctx, productRef)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, apperr.NotFound("Product not found")
	}
	available, err := availability(p, variantID)
	if err != nil {
		return nil, err
	}
	if qty > available {
		return nil, notEnough(available)
	}

	err = s.items.SetQuantity(ctx, userID, pid, variantID, qty)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Item not found in cart")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.notify(ctx, userID, EventUpdated)
	return s.Get(ctx, userID, "")
}

func (s *Service) Remove(ctx context.Context, userID, productRef, variantID string) (*View, error) {
	pid, _, err := s.rowProductID(ctx, productRef)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("Item not found in cart")
		}
		return nil, err
	}

	err = s.items.Delete(ctx, userID, pid, variantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Item not found in cart")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.notify(ctx, userID, EventUpdated)
	return s.Get(ctx, userID, "")
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.items.Clear(ctx, userID); err != nil {
		return apperr.Internal(err)
	}
	s.notify(ctx, userID, EventCleared)
	return nil
}
