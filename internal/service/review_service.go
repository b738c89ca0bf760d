package service

import (
	"context"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// ReviewInput is a customer's rating of a product.
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewService struct {
	reviews  *repository.ReviewRepository
	products repository.ProductRepository
}

func NewReviewService(reviews *repository.ReviewRepository, products repository.ProductRepository) *ReviewService {
	return &ReviewService{reviews: reviews, products: products}
}

// List returns the reviews of an existing product.
func (s *ReviewService) List(ctx context.Context, productID string) ([]models.Review, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.reviews.ListByProduct(ctx, productID)
}

// Add records the user's review. Each user may review a product once.
func (s *ReviewService) Add(ctx context.Context, userID, productID string, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	rv := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}
