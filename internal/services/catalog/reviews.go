package catalog

import (
	"context"
	"errors"
	"strings"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"
)

type Reviews interface {
	ListByProduct(ctx context.Context, productID string, p store.Page) ([]models.Review, int64, error)
	Create(ctx context.Context, r *models.Review) error
	MarkHelpful(ctx context.Context, id string) (*models.Review, error)
	Rating(ctx context.Context, productID string) (models.ProductRating, error)
}

type Purchases interface {
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}

type ReviewPage struct {
	Items      []models.Review      `json:"items"`
	Rating     models.ProductRating `json:"rating"`
	Pagination models.Pagination    `json:"pagination"`
}

func (s *Service) ListReviews(ctx context.Context, productRef string, page store.Page) (*ReviewPage, error) {
	p, err := s.Get(ctx, productRef, false)
	if err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.reviews.ListByProduct(ctx, p.ID.Hex(), page)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &ReviewPage{
		Items:      items,
		Rating:     models.ProductRating{Average: p.Rating, Count: p.ReviewCount},
		Pagination: models.NewPagination(page.Page, page.Limit, total),
	}, nil
}

type ReviewInput struct {
	Rating  int
	Title   string
	Content string
}

// AddReview stores one review per user and product. It is marked verified
// when the user paid for or received the product.
func (s *Service) AddReview(ctx context.Context, userID, userName, productRef string, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Validation("content is required")
	}
	p, err := s.Get(ctx, productRef, false)
	if err != nil {
		return nil, err
	}
	pid := p.ID.Hex()

	verified := false
	if s.purchases != nil {
		if verified, err = s.purchases.HasPurchased(ctx, userID, pid); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	r := &models.Review{
		ProductID: pid,
		UserID:    userID,
		UserName:  userName,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Content:   strings.TrimSpace(in.Content),
		Verified:  verified,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("You have already reviewed this product")
		}
		return nil, apperr.Internal(err)
	}

	rating, err := s.reviews.Rating(ctx, pid)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.products.SetRating(ctx, pid, rating); err != nil {
		return nil, apperr.Internal(err)
	}
	s.cache.InvalidateProducts(ctx, pid, p.Slug, productRef)
	return r, nil
}

func (s *Service) MarkHelpful(ctx context.Context, reviewID string) (*models.Review, error) {
	r, err := s.reviews.MarkHelpful(ctx, reviewID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Review not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return r, nil
}
