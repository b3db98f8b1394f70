// Package memstore is an in-memory stand-in for the Mongo stores, used by
// service tests. It keeps the same sentinel errors and conditional-update
// semantics as package store.
package memstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tx runs the function directly, like store.Transactor on a standalone server.
type Tx struct{}

func (Tx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.Variants = make([]models.Variant, len(p.Variants))
	for i, v := range p.Variants {
		cp.Variants[i] = v
		if v.Stock != nil {
			n := *v.Stock
			cp.Variants[i].Stock = &n
		}
	}
	return &cp
}

type Products struct {
	mu    sync.Mutex
	items map[string]*models.Product
	moves []models.StockMovement
}

func NewProducts(products ...*models.Product) *Products {
	s := &Products{items: make(map[string]*models.Product)}
	for _, p := range products {
		s.Put(p)
	}
	return s
}

// Put stores a copy and assigns an id when the product has none.
func (s *Products) Put(p *models.Product) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.items[p.ID.Hex()] = cloneProduct(p)
	return p.ID.Hex()
}

func (s *Products) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *Products) Resolve(_ context.Context, ref string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref = strings.TrimSpace(ref)
	if p, ok := s.items[ref]; ok {
		return cloneProduct(p), nil
	}
	n, numErr := strconv.Atoi(ref)
	for _, p := range s.items {
		if (numErr == nil && p.LegacyID == n) || (ref != "" && p.Slug == ref) {
			return cloneProduct(p), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Products) FindByID(ctx context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *Products) FindByIDs(_ context.Context, ids []string) (map[string]*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.items[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

// Stock reports the stock that applies to a variant, for assertions.
func (s *Products) Stock(id, variantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return -1
	}
	n, err := p.Available(variantID)
	if err != nil {
		return -1
	}
	return n
}

func (s *Products) Decrement(_ context.Context, productID, variantID string, qty int, orderID string) error {
	return s.move(productID, variantID, -qty, models.StockMovement{Type: models.MovementSale, OrderID: orderID})
}

func (s *Products) Restock(_ context.Context, productID, variantID string, qty int, orderID string) error {
	return s.move(productID, variantID, qty, models.StockMovement{Type: models.MovementRestock, OrderID: orderID})
}

func (s *Products) move(productID, variantID string, delta int, m models.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[productID]
	if !ok {
		return store.ErrConflict
	}
	if variantID != "" {
		v, ok := p.FindVariant(variantID)
		if !ok {
			return store.ErrConflict
		}
		if v.Stock != nil {
			if *v.Stock+delta < 0 {
				return store.ErrConflict
			}
			*v.Stock += delta
			s.record(productID, variantID, delta, m)
			return nil
		}
	}
	if p.StockCount+delta < 0 {
		return store.ErrConflict
	}
	p.StockCount += delta
	p.InStock = p.StockCount > 0
	s.record(productID, variantID, delta, m)
	return nil
}

func (s *Products) record(productID, variantID string, delta int, m models.StockMovement) {
	m.ID = primitive.NewObjectID()
	m.ProductID, m.VariantID, m.Quantity, m.CreatedAt = productID, variantID, delta, time.Now()
	s.moves = append(s.moves, m)
}

type Cart struct {
	mu   sync.Mutex
	rows []models.CartItem
}

func NewCart() *Cart { return &Cart{} }

func (s *Cart) index(userID, productID, variantID string) int {
	for i, r := range s.rows {
		if r.UserID == userID && r.ProductID == productID && r.VariantID == variantID {
			return i
		}
	}
	return -1
}

func (s *Cart) List(_ context.Context, userID string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.CartItem{}
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Cart) Find(_ context.Context, userID, productID, variantID string) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(userID, productID, variantID)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	r := s.rows[i]
	return &r, nil
}

func (s *Cart) Insert(_ context.Context, item *models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(item.UserID, item.ProductID, item.VariantID) >= 0 {
		return store.ErrDuplicate
	}
	item.ID = primitive.NewObjectID()
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	s.rows = append(s.rows, *item)
	return nil
}

func (s *Cart) Increment(_ context.Context, userID, productID, variantID string, qty, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(userID, productID, variantID)
	if i < 0 || s.rows[i].Quantity > max-qty {
		return store.ErrConflict
	}
	s.rows[i].Quantity += qty
	return nil
}

func (s *Cart) SetQuantity(_ context.Context, userID, productID, variantID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(userID, productID, variantID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.rows[i].Quantity = qty
	return nil
}

func (s *Cart) Delete(_ context.Context, userID, productID, variantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(userID, productID, variantID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}

func (s *Cart) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}

type Coupons struct {
	mu    sync.Mutex
	items map[string]*models.Coupon
}

func NewCoupons(coupons ...models.Coupon) *Coupons {
	s := &Coupons{items: make(map[string]*models.Coupon)}
	for i := range coupons {
		c := coupons[i]
		s.items[strings.ToUpper(c.Code)] = &c
	}
	return s
}

func (s *Coupons) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[strings.ToUpper(code)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Coupons) IncrementUsage(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[strings.ToUpper(code)]
	if !ok || (c.MaxUses > 0 && c.UsedCount >= c.MaxUses) {
		return store.ErrConflict
	}
	c.UsedCount++
	return nil
}

type Users struct {
	mu    sync.Mutex
	items map[string]*models.User
}

func NewUsers(users ...*models.User) *Users {
	s := &Users{items: make(map[string]*models.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		s.items[u.ID.Hex()] = cloneUser(u)
	}
	return s
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.Addresses = append([]models.Address(nil), u.Addresses...)
	return &cp
}

func (s *Users) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.items {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, other := range s.items {
		if other.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	if u.Addresses == nil {
		u.Addresses = []models.Address{}
	}
	s.items[u.ID.Hex()] = cloneUser(u)
	return nil
}

func (s *Users) update(id string, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Users) SetVerificationCode(_ context.Context, id, code string, expiry time.Time) error {
	return s.update(id, func(u *models.User) { u.VerificationCode, u.VerificationExpiry = code, expiry })
}

func (s *Users) MarkVerified(_ context.Context, id string) error {
	return s.update(id, func(u *models.User) {
		u.EmailVerified = true
		u.VerificationCode, u.VerificationExpiry = "", time.Time{}
	})
}

func (s *Users) UpdateProfile(_ context.Context, id, name, phone string) error {
	return s.update(id, func(u *models.User) { u.Name, u.Phone = name, phone })
}

func (s *Users) SetAddresses(_ context.Context, id string, addrs []models.Address) error {
	return s.update(id, func(u *models.User) { u.Addresses = append([]models.Address(nil), addrs...) })
}

func (s *Users) SetPreferences(_ context.Context, id string, p models.Preferences) error {
	return s.update(id, func(u *models.User) { u.Preferences = p })
}

func (s *Users) SetRole(_ context.Context, id, role string) error {
	return s.update(id, func(u *models.User) { u.Role = role })
}

func (s *Users) SetPassword(_ context.Context, id, hash string) error {
	return s.update(id, func(u *models.User) { u.Password = hash })
}

func (s *Users) LinkProvider(_ context.Context, id, provider, providerID string) error {
	return s.update(id, func(u *models.User) {
		u.Provider, u.ProviderID, u.EmailVerified = provider, providerID, true
	})
}

func (s *Users) List(_ context.Context, f store.UserFilter) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	search := strings.ToLower(f.Search)
	for _, u := range s.items {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if search != "" && !strings.Contains(u.Email, search) && !strings.Contains(strings.ToLower(u.Name), search) {
			continue
		}
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	total := int64(len(out))
	pg := f.Page.Normalize()
	start := (pg.Page - 1) * pg.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + pg.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (s *Users) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}

type Orders struct {
	mu      sync.Mutex
	items   map[string]*models.Order
	Refunds []models.Refund
}

func NewOrders() *Orders {
	return &Orders{items: make(map[string]*models.Order)}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	cp.History = append([]models.StatusChange(nil), o.History...)
	return &cp
}

func (s *Orders) Insert(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.OrderNumber == o.OrderNumber {
			return store.ErrDuplicate
		}
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	s.items[o.ID.Hex()] = cloneOrder(o)
	return nil
}

func (s *Orders) FindByID(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Orders) find(match func(*models.Order) bool) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.items {
		if match(o) {
			return cloneOrder(o), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Orders) FindByNumber(_ context.Context, number string) (*models.Order, error) {
	return s.find(func(o *models.Order) bool { return o.OrderNumber == number })
}

func (s *Orders) FindByGatewayOrderID(_ context.Context, id string) (*models.Order, error) {
	if id == "" {
		return nil, store.ErrNotFound
	}
	return s.find(func(o *models.Order) bool { return o.GatewayOrderID == id })
}

func (s *Orders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.items {
		if o.UserID == userID {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Orders) Save(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[o.ID.Hex()]
	if !ok {
		return store.ErrNotFound
	}
	s.write(cur, o)
	return nil
}

func (s *Orders) SaveFrom(_ context.Context, o *models.Order, status models.OrderStatus, paymentStatus models.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[o.ID.Hex()]
	if !ok || cur.Status != status || cur.PaymentStatus != paymentStatus {
		return store.ErrConflict
	}
	s.write(cur, o)
	return nil
}

func (s *Orders) write(cur, o *models.Order) {
	o.UpdatedAt = time.Now()
	cur.Status = o.Status
	cur.PaymentStatus = o.PaymentStatus
	cur.TrackingNumber = o.TrackingNumber
	cur.ShippingProvider = o.ShippingProvider
	cur.GatewayOrderID = o.GatewayOrderID
	cur.GatewayPaymentID = o.GatewayPaymentID
	cur.History = append([]models.StatusChange(nil), o.History...)
	cur.UpdatedAt = o.UpdatedAt
}

func (s *Orders) MarkPaid(_ context.Context, id, paymentID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return false, store.ErrNotFound
	}
	payable := o.PaymentStatus == models.PaymentPending || o.PaymentStatus == models.PaymentProcessing || o.PaymentStatus == models.PaymentFailed
	open := o.Status == models.OrderPending || o.Status == models.OrderConfirmed || o.Status == models.OrderProcessing
	if !payable || !open {
		return false, nil
	}
	o.PaymentStatus = models.PaymentSucceeded
	o.Status = models.OrderConfirmed
	o.GatewayPaymentID = paymentID
	o.UpdatedAt = at
	o.History = append(o.History, models.StatusChange{Status: o.Status, PaymentStatus: o.PaymentStatus, Note: "payment verified", At: at})
	return true, nil
}

func (s *Orders) MarkPaymentFailed(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if o.PaymentStatus != models.PaymentPending && o.PaymentStatus != models.PaymentProcessing {
		return false, nil
	}
	o.PaymentStatus = models.PaymentFailed
	o.UpdatedAt = at
	o.History = append(o.History, models.StatusChange{Status: o.Status, PaymentStatus: o.PaymentStatus, Note: "payment failed", At: at})
	return true, nil
}

func (s *Orders) SetGatewayOrder(_ context.Context, id, gatewayOrderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return store.ErrNotFound
	}
	o.GatewayOrderID = gatewayOrderID
	return nil
}

func (s *Orders) ClaimRestock(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if o.StockRestored {
		return false, nil
	}
	o.StockRestored = true
	return true, nil
}

func (s *Orders) InsertRefund(_ context.Context, r *models.Refund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = primitive.NewObjectID()
	s.Refunds = append(s.Refunds, *r)
	return nil
}

func (s *Orders) DeleteByNumber(_ context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, o := range s.items {
		if o.OrderNumber == number {
			delete(s.items, id)
			return nil
		}
	}
	return store.ErrNotFound
}

// Count is a test helper.
func (s *Orders) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
