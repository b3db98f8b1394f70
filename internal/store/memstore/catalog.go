package memstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Products) matches(p *models.Product, f store.ProductFilter, ids map[string]bool) bool {
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if len(ids) > 0 && !ids[p.ID.Hex()] {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), strings.ToLower(f.Search)) {
		return false
	}
	switch f.Status {
	case "active":
		return p.IsActive
	case "inactive":
		return !p.IsActive
	case "low_stock":
		return p.StockCount > 0 && p.StockCount <= models.LowStockThreshold
	case "out_of_stock":
		return p.StockCount <= 0
	}
	return true
}

func (s *Products) List(_ context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := map[string]bool{}
	for _, id := range f.IDs {
		ids[id] = true
	}
	out := []models.Product{}
	for _, p := range s.items {
		if s.matches(p, f, ids) {
			out = append(out, *cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		switch f.Sort {
		case "price_asc":
			return out[i].Price < out[j].Price
		case "price_desc":
			return out[i].Price > out[j].Price
		case "rating":
			return out[i].Rating > out[j].Rating
		default:
			return out[i].Name < out[j].Name
		}
	})
	return paginate(out, f.Page), int64(len(out)), nil
}

func paginate[T any](items []T, p store.Page) []T {
	p = p.Normalize()
	start := (p.Page - 1) * p.Limit
	if start > len(items) {
		start = len(items)
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *Products) Stats(context.Context) (models.ProductStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.ProductStats{Total: int64(len(s.items))}
	for _, p := range s.items {
		if p.IsActive {
			st.Active++
		}
		switch {
		case p.StockCount <= 0:
			st.OutOfStock++
		case p.StockCount <= models.LowStockThreshold:
			st.LowStock++
		}
	}
	return st, nil
}

func (s *Products) Categories(context.Context) ([]models.CategorySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, p := range s.items {
		if p.IsActive {
			counts[p.Category]++
		}
	}
	out := []models.CategorySummary{}
	for name, n := range counts {
		out = append(out, models.CategorySummary{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Products) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.items {
		if other.Slug == p.Slug || (p.LegacyID != 0 && other.LegacyID == p.LegacyID) {
			return store.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	p.InStock = p.StockCount > 0
	s.items[p.ID.Hex()] = cloneProduct(p)
	return nil
}

func (s *Products) Update(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[p.ID.Hex()]; !ok {
		return store.ErrNotFound
	}
	for id, other := range s.items {
		if id != p.ID.Hex() && other.Slug == p.Slug {
			return store.ErrDuplicate
		}
	}
	p.UpdatedAt = time.Now()
	p.InStock = p.StockCount > 0
	s.items[p.ID.Hex()] = cloneProduct(p)
	return nil
}

func (s *Products) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Products) AddImage(_ context.Context, id, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Images = append(p.Images, url)
	return nil
}

func (s *Products) SetRating(_ context.Context, id string, r models.ProductRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.items[id]; ok {
		p.Rating, p.ReviewCount = r.Average, r.Count
	}
	return nil
}

func (s *Products) AdjustStock(_ context.Context, productID, variantID string, delta int, reason, userID string) error {
	return s.move(productID, variantID, delta, models.StockMovement{Type: models.MovementAdjustment, Reason: reason, UserID: userID})
}

// Movements returns the newest movements first.
func (s *Products) Movements(_ context.Context, productID string, limit int64) ([]models.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.StockMovement{}
	for i := len(s.moves) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if s.moves[i].ProductID == productID {
			out = append(out, s.moves[i])
		}
	}
	return out, nil
}

type Reviews struct {
	mu    sync.Mutex
	items []*models.Review
}

func NewReviews() *Reviews { return &Reviews{} }

func (s *Reviews) ListByProduct(_ context.Context, productID string, p store.Page) ([]models.Review, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Review{}
	for _, r := range s.items {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Helpful > out[j].Helpful })
	return paginate(out, p), int64(len(out)), nil
}

func (s *Reviews) Create(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.items {
		if other.ProductID == r.ProductID && other.UserID == r.UserID {
			return store.ErrDuplicate
		}
	}
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now()
	cp := *r
	s.items = append(s.items, &cp)
	return nil
}

func (s *Reviews) MarkHelpful(_ context.Context, id string) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if r.ID.Hex() == id {
			r.Helpful++
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Reviews) Rating(_ context.Context, productID string) (models.ProductRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var r models.ProductRating
	sum := 0
	for _, rv := range s.items {
		if rv.ProductID == productID {
			r.Count++
			sum += rv.Rating
		}
	}
	if r.Count > 0 {
		r.Average = math.Round(float64(sum)/float64(r.Count)*10) / 10
	}
	return r, nil
}
