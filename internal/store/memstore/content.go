package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Orders) sorted() []models.Order {
	out := make([]models.Order, 0, len(s.items))
	for _, o := range s.items {
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Orders) List(_ context.Context, f store.OrderFilter) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(f.Search)
	out := []models.Order{}
	for _, o := range s.sorted() {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.PaymentStatus != "" && string(o.PaymentStatus) != f.PaymentStatus {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(o.OrderNumber), search) &&
			!strings.Contains(strings.ToLower(o.UserEmail), search) &&
			!strings.Contains(strings.ToLower(o.ShippingAddress.FullName), search) {
			continue
		}
		out = append(out, o)
	}
	return paginate(out, f.Page), int64(len(out)), nil
}

func (s *Orders) Stats(context.Context) (models.OrderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.OrderStats{
		ByStatus:        map[models.OrderStatus]int64{},
		ByPaymentStatus: map[models.PaymentStatus]int64{},
	}
	for _, o := range s.items {
		st.Total++
		st.ByStatus[o.Status]++
		st.ByPaymentStatus[o.PaymentStatus]++
		if o.PaymentStatus == models.PaymentSucceeded {
			st.Revenue += o.Total
		}
	}
	return st, nil
}

func (s *Orders) TopProducts(_ context.Context, limit int) ([]models.ProductSales, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := map[string]*models.ProductSales{}
	for _, o := range s.items {
		if o.PaymentStatus != models.PaymentSucceeded {
			continue
		}
		for _, it := range o.Items {
			ps, ok := byID[it.ProductID]
			if !ok {
				ps = &models.ProductSales{ProductID: it.ProductID, Name: it.Name}
				byID[it.ProductID] = ps
			}
			ps.TotalSold += it.Quantity
			ps.Revenue += it.Price * float64(it.Quantity)
		}
	}
	out := []models.ProductSales{}
	for _, ps := range byID {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalSold > out[j].TotalSold })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Orders) Recent(_ context.Context, limit int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted()
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Orders) HasPurchased(_ context.Context, userID, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.items {
		if o.UserID != userID || (o.PaymentStatus != models.PaymentSucceeded && o.Status != models.OrderDelivered) {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Coupons) List(context.Context) ([]models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Coupon{}
	for _, c := range s.items {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Coupons) FindByID(_ context.Context, id string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.items {
		if c.ID.Hex() == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Coupons) Create(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Code = strings.ToUpper(c.Code)
	if _, ok := s.items[c.Code]; ok {
		return store.ErrDuplicate
	}
	c.ID = primitive.NewObjectID()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	cp := *c
	s.items[c.Code] = &cp
	return nil
}

func (s *Coupons) Update(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Code = strings.ToUpper(c.Code)
	var oldCode string
	for code, existing := range s.items {
		if existing.ID == c.ID {
			oldCode = code
		}
	}
	if oldCode == "" {
		return store.ErrNotFound
	}
	if other, ok := s.items[c.Code]; ok && other.ID != c.ID {
		return store.ErrDuplicate
	}
	delete(s.items, oldCode)
	c.UpdatedAt = time.Now()
	cp := *c
	s.items[c.Code] = &cp
	return nil
}

func (s *Coupons) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, c := range s.items {
		if c.ID.Hex() == id {
			delete(s.items, code)
			return nil
		}
	}
	return store.ErrNotFound
}

type Messages struct {
	mu    sync.Mutex
	items []*models.ContactMessage
}

func NewMessages() *Messages { return &Messages{} }

func (s *Messages) Create(_ context.Context, m *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = primitive.NewObjectID()
	m.Status = models.MessageNew
	m.CreatedAt, m.UpdatedAt = time.Now(), time.Now()
	cp := *m
	s.items = append(s.items, &cp)
	return nil
}

func (s *Messages) List(_ context.Context, f store.MessageFilter) ([]models.ContactMessage, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(f.Search)
	out := []models.ContactMessage{}
	for i := len(s.items) - 1; i >= 0; i-- {
		m := s.items[i]
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(strings.ToLower(m.Email), search) &&
			!strings.Contains(strings.ToLower(m.Subject), search) {
			continue
		}
		out = append(out, *m)
	}
	return paginate(out, f.Page), int64(len(out)), nil
}

func (s *Messages) Stats(context.Context) (models.MessageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.NewMessageStats()
	for _, m := range s.items {
		st.Total++
		st.ByStatus[m.Status]++
	}
	return st, nil
}

func (s *Messages) CountByStatus(_ context.Context, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.items {
		if m.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Messages) UpdateStatus(_ context.Context, id, status string) (*models.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.items {
		if m.ID.Hex() == id {
			m.Status = status
			m.UpdatedAt = time.Now()
			cp := *m
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Messages) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.items {
		if m.ID.Hex() == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type Blog struct {
	mu    sync.Mutex
	posts []*models.BlogPost
}

func NewBlog() *Blog { return &Blog{} }

func (s *Blog) List(_ context.Context, publishedOnly bool, tag string, p store.Page) ([]models.BlogPost, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.BlogPost{}
	for i := len(s.posts) - 1; i >= 0; i-- {
		b := s.posts[i]
		if publishedOnly && !b.Published {
			continue
		}
		if tag != "" && !containsString(b.Tags, tag) {
			continue
		}
		out = append(out, *b)
	}
	return paginate(out, p), int64(len(out)), nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Blog) FindBySlug(_ context.Context, slug string) (*models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.posts {
		if b.Slug == slug {
			cp := *b
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Blog) Create(_ context.Context, b *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.posts {
		if other.Slug == b.Slug {
			return store.ErrDuplicate
		}
	}
	b.ID = primitive.NewObjectID()
	b.CreatedAt, b.UpdatedAt = time.Now(), time.Now()
	cp := *b
	s.posts = append(s.posts, &cp)
	return nil
}

// Settings returns zero settings until the first Save, like the Mongo singleton.
type Settings struct {
	mu      sync.Mutex
	current *models.Settings
}

func NewSettings() *Settings { return &Settings{} }

func (s *Settings) Get(context.Context) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return &models.Settings{}, nil
	}
	cp := *s.current
	return &cp, nil
}

func (s *Settings) Save(_ context.Context, st *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.current = &cp
	return nil
}
