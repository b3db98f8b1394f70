package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrVariantNotFound = errors.New("variant not found")

// Variant is a size/weight/pack option. A nil Stock means the variant draws
// from the parent product's stockCount.
type Variant struct {
	ID    string  `json:"id" bson:"id"`
	Label string  `json:"label" bson:"label"`
	Kind  string  `json:"kind" bson:"kind"` // size, weight, pack
	Price float64 `json:"price" bson:"price"`
	Stock *int    `json:"stock,omitempty" bson:"stock,omitempty"`
}

type Product struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	LegacyID       int                `json:"legacyId,omitempty" bson:"legacyId,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Slug           string             `json:"slug" bson:"slug"`
	Description    string             `json:"description" bson:"description"`
	Price          float64            `json:"price" bson:"price"`
	OriginalPrice  float64            `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Images         []string           `json:"images" bson:"images"`
	Category       string             `json:"category" bson:"category"`
	Variants       []Variant          `json:"variants,omitempty" bson:"variants,omitempty"`
	StockCount     int                `json:"stockCount" bson:"stockCount"`
	InStock        bool               `json:"inStock" bson:"inStock"`
	Rating         float64            `json:"rating" bson:"rating"`
	ReviewCount    int                `json:"reviewCount" bson:"reviewCount"`
	NutritionFacts map[string]string  `json:"nutritionFacts,omitempty" bson:"nutritionFacts,omitempty"`
	Features       []string           `json:"features,omitempty" bson:"features,omitempty"`
	Benefits       []string           `json:"benefits,omitempty" bson:"benefits,omitempty"`
	IsActive       bool               `json:"isActive" bson:"isActive"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (p *Product) FindVariant(id string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// Available returns the stock that applies to the given variant ("" for the
// product itself).
func (p *Product) Available(variantID string) (int, error) {
	if variantID == "" {
		return p.StockCount, nil
	}
	v, ok := p.FindVariant(variantID)
	if !ok {
		return 0, ErrVariantNotFound
	}
	if v.Stock != nil {
		return *v.Stock, nil
	}
	return p.StockCount, nil
}

func (p *Product) UnitPrice(variantID string) float64 {
	if v, ok := p.FindVariant(variantID); ok && v.Price > 0 {
		return v.Price
	}
	return p.Price
}

func (p *Product) VariantLabel(variantID string) string {
	if v, ok := p.FindVariant(variantID); ok {
		return v.Label
	}
	return ""
}

func (p *Product) FirstImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// Validate checks the invariants an admin edit must keep.
func (p *Product) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Price < 0 {
		return errors.New("price cannot be negative")
	}
	if p.StockCount < 0 {
		return errors.New("stockCount cannot be negative")
	}
	seen := make(map[string]bool, len(p.Variants))
	for _, v := range p.Variants {
		if v.ID == "" {
			return errors.New("variant id is required")
		}
		if seen[v.ID] {
			return errors.New("duplicate variant id " + v.ID)
		}
		seen[v.ID] = true
		if v.Stock != nil && *v.Stock < 0 {
			return errors.New("variant stock cannot be negative")
		}
		if v.Price < 0 {
			return errors.New("variant price cannot be negative")
		}
	}
	return nil
}

type ProductStats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	LowStock   int64 `json:"lowStock"`
	OutOfStock int64 `json:"outOfStock"`
}
