// Package catalog serves the product catalog to the storefront and the
// admin screens, plus product reviews.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/cache"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/services"
	"dryfruit_back_end/internal/store"
	"dryfruit_back_end/internal/utils"

	"github.com/google/uuid"
)

type Products interface {
	Resolve(ctx context.Context, ref string) (*models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error)
	Stats(ctx context.Context) (models.ProductStats, error)
	Categories(ctx context.Context) ([]models.CategorySummary, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
	AddImage(ctx context.Context, id, url string) error
	SetRating(ctx context.Context, id string, r models.ProductRating) error
	AdjustStock(ctx context.Context, productID, variantID string, delta int, reason, userID string) error
	Movements(ctx context.Context, productID string, limit int64) ([]models.StockMovement, error)
}

type Index interface {
	Enabled() bool
	Index(ctx context.Context, p *models.Product)
	Remove(ctx context.Context, id string)
	SearchIDs(ctx context.Context, query string, limit int) ([]string, error)
}

type Images interface {
	Upload(ctx context.Context, productID string, file *multipart.FileHeader) (string, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration)
	InvalidateProducts(ctx context.Context, ids ...string)
}

const searchLimit = 200

type Service struct {
	products  Products
	reviews   Reviews
	purchases Purchases
	index     Index
	images    Images
	cache     Cache
}

func NewService(products Products, reviews Reviews, purchases Purchases, index Index, images Images, c Cache) *Service {
	return &Service{products: products, reviews: reviews, purchases: purchases, index: index, images: images, cache: c}
}

type Query struct {
	Page     int
	Limit    int
	Category string
	Search   string
	Sort     string
	Status   string
	Admin    bool
}

type Page struct {
	Items      []models.Product     `json:"items"`
	Pagination models.Pagination    `json:"pagination"`
	Stats      *models.ProductStats `json:"stats,omitempty"`
}

func (q Query) cacheKey() string {
	return cache.ProductListKey(fmt.Sprintf("%d|%d|%s|%s|%s", q.Page, q.Limit, q.Category, strings.ToLower(q.Search), q.Sort))
}

// List pages through the catalog. Storefront queries see active products
// only and are cached; admin queries add stats and a status filter.
func (s *Service) List(ctx context.Context, q Query) (*Page, error) {
	pg := store.Page{Page: q.Page, Limit: q.Limit}.Normalize()
	q.Page, q.Limit = pg.Page, pg.Limit
	q.Search = strings.TrimSpace(q.Search)

	if !q.Admin {
		var cached Page
		if s.cache.GetJSON(ctx, q.cacheKey(), &cached) {
			return &cached, nil
		}
	}

	filter := store.ProductFilter{
		Category:   q.Category,
		Sort:       q.Sort,
		ActiveOnly: !q.Admin,
		Page:       pg,
	}
	if q.Admin {
		filter.Status = q.Status
	}

	if q.Search != "" {
		ids, err := s.searchIDs(ctx, q.Search)
		switch {
		case err != nil:
			filter.Search = q.Search
		case len(ids) == 0:
			return &Page{Items: []models.Product{}, Pagination: models.NewPagination(pg.Page, pg.Limit, 0)}, nil
		default:
			filter.IDs = ids
		}
	}

	items, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	page := &Page{Items: items, Pagination: models.NewPagination(pg.Page, pg.Limit, total)}

	if q.Admin {
		st, err := s.products.Stats(ctx)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		page.Stats = &st
		return page, nil
	}
	s.cache.SetJSON(ctx, q.cacheKey(), page, cache.ProductListTTL)
	return page, nil
}

func (s *Service) searchIDs(ctx context.Context, query string) ([]string, error) {
	if s.index == nil || !s.index.Enabled() {
		return nil, services.ErrSearchDisabled
	}
	ids, err := s.index.SearchIDs(ctx, query, searchLimit)
	if err != nil {
		log.Printf("⚠️ search fell back to Mongo: %v", err)
	}
	return ids, err
}

// Get resolves a hex id, legacy numeric id or slug.
func (s *Service) Get(ctx context.Context, ref string, includeInactive bool) (*models.Product, error) {
	if !includeInactive {
		var cached models.Product
		if s.cache.GetJSON(ctx, cache.ProductKey(ref), &cached) {
			return &cached, nil
		}
	}
	p, err := s.products.Resolve(ctx, ref)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !p.IsActive && !includeInactive) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !includeInactive {
		s.cache.SetJSON(ctx, cache.ProductKey(ref), p, cache.ProductTTL)
	}
	return p, nil
}

func (s *Service) Categories(ctx context.Context) ([]models.CategorySummary, error) {
	out, err := s.products.Categories(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func prepare(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Name)
	}
	for i := range p.Variants {
		if p.Variants[i].ID == "" {
			p.Variants[i].ID = uuid.NewString()[:8]
		}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if err := p.Validate(); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func (s *Service) changed(ctx context.Context, p *models.Product, refs ...string) {
	s.cache.InvalidateProducts(ctx, append(refs, p.ID.Hex(), p.Slug)...)
	if s.index != nil {
		s.index.Index(ctx, p)
	}
}

func (s *Service) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := prepare(p); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("A product with this slug already exists")
		}
		return nil, apperr.Internal(err)
	}
	s.changed(ctx, p)
	log.Printf("✅ Product created: %s", p.Name)
	return p, nil
}

// Patch carries a partial admin edit; nil fields are left alone.
type Patch struct {
	Name           *string            `json:"name"`
	Slug           *string            `json:"slug"`
	Description    *string            `json:"description"`
	Price          *float64           `json:"price"`
	OriginalPrice  *float64           `json:"originalPrice"`
	Category       *string            `json:"category"`
	Images         *[]string          `json:"images"`
	Variants       *[]models.Variant  `json:"variants"`
	StockCount     *int               `json:"stockCount"`
	NutritionFacts *map[string]string `json:"nutritionFacts"`
	Features       *[]string          `json:"features"`
	Benefits       *[]string          `json:"benefits"`
	IsActive       *bool              `json:"isActive"`
}

func (pt Patch) apply(p *models.Product) {
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.Slug != nil {
		p.Slug = *pt.Slug
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.Price != nil {
		p.Price = *pt.Price
	}
	if pt.OriginalPrice != nil {
		p.OriginalPrice = *pt.OriginalPrice
	}
	if pt.Category != nil {
		p.Category = *pt.Category
	}
	if pt.Images != nil {
		p.Images = *pt.Images
	}
	if pt.Variants != nil {
		p.Variants = *pt.Variants
	}
	if pt.StockCount != nil {
		p.StockCount = *pt.StockCount
	}
	if pt.NutritionFacts != nil {
		p.NutritionFacts = *pt.NutritionFacts
	}
	if pt.Features != nil {
		p.Features = *pt.Features
	}
	if pt.Benefits != nil {
		p.Benefits = *pt.Benefits
	}
	if pt.IsActive != nil {
		p.IsActive = *pt.IsActive
	}
}

// Update applies a patch and returns the product before and after, for the
// audit trail.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (before, after *models.Product, err error) {
	before, err = s.Get(ctx, id, true)
	if err != nil {
		return nil, nil, err
	}
	p := *before
	patch.apply(&p)
	if err := prepare(&p); err != nil {
		return nil, nil, err
	}
	if err := s.products.Update(ctx, &p); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, nil, apperr.NotFound("Product not found")
		case errors.Is(err, store.ErrDuplicate):
			return nil, nil, apperr.Conflict("A product with this slug already exists")
		}
		return nil, nil, apperr.Internal(err)
	}
	s.changed(ctx, &p, before.Slug)
	return before, &p, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.products.Delete(ctx, p.ID.Hex()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal(err)
	}
	s.cache.InvalidateProducts(ctx, p.ID.Hex(), p.Slug)
	if s.index != nil {
		s.index.Remove(ctx, p.ID.Hex())
	}
	log.Printf("🗑️ Product deleted: %s", p.Name)
	return p, nil
}

func (s *Service) UploadImage(ctx context.Context, id string, file *multipart.FileHeader) (string, error) {
	p, err := s.Get(ctx, id, true)
	if err != nil {
		return "", err
	}
	if s.images == nil {
		return "", apperr.Upstream("Image storage is unavailable", services.ErrStorageDisabled)
	}
	url, err := s.images.Upload(ctx, p.ID.Hex(), file)
	switch {
	case errors.Is(err, services.ErrNotImage):
		return "", apperr.Validation("Only JPEG, PNG, WebP or GIF images are accepted")
	case errors.Is(err, services.ErrImageTooLarge):
		return "", apperr.Validation("Image must be 5 MB or smaller")
	case err != nil:
		log.Printf("❌ image upload for %s: %v", p.Name, err)
		return "", apperr.Upstream("Image storage is unavailable", err)
	}
	if err := s.products.AddImage(ctx, p.ID.Hex(), url); err != nil {
		return "", apperr.Internal(err)
	}
	s.cache.InvalidateProducts(ctx, p.ID.Hex(), p.Slug)
	return url, nil
}

// AdjustStock applies a signed admin correction to a product or variant.
func (s *Service) AdjustStock(ctx context.Context, id, variantID string, delta int, reason, userID string) (*models.Product, error) {
	if delta == 0 {
		return nil, apperr.Validation("delta must not be zero")
	}
	p, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if variantID != "" {
		if _, ok := p.FindVariant(variantID); !ok {
			return nil, apperr.NotFound("Variant not found")
		}
	}
	err = s.products.AdjustStock(ctx, p.ID.Hex(), variantID, delta, reason, userID)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.Validation("Stock cannot go below zero")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	fresh, err := s.products.FindByID(ctx, p.ID.Hex())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.cache.InvalidateProducts(ctx, p.ID.Hex(), p.Slug)
	if fresh.StockCount <= models.LowStockThreshold {
		log.Printf("⚠️ Low stock: %s has %d left", fresh.Name, fresh.StockCount)
	}
	return fresh, nil
}

// StockChanged drops the cached views of products whose stock moved outside
// the catalog, such as a checkout or a cancellation.
func (s *Service) StockChanged(ctx context.Context, ids ...string) {
	refs := make([]string, 0, len(ids)*3)
	for _, id := range ids {
		refs = append(refs, id)
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			continue
		}
		refs = append(refs, p.Slug)
		if p.LegacyID > 0 {
			refs = append(refs, strconv.Itoa(p.LegacyID))
		}
	}
	if len(refs) > 0 {
		s.cache.InvalidateProducts(ctx, refs...)
	}
}

func (s *Service) Movements(ctx context.Context, id string, limit int64) ([]models.StockMovement, error) {
	p, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out, err := s.products.Movements(ctx, p.ID.Hex(), limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
