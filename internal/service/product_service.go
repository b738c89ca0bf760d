package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/internal/storage"
)

// CategoryReader resolves categories referenced by products
type CategoryReader interface {
	GetByID(ctx context.Context, id string) (*models.Category, error)
}

// ProductService handles business logic for products
type ProductService struct {
	repo       repository.ProductRepository
	categories CategoryReader
	images     storage.ImageStore
}

// NewProductService creates a new product service. images may be nil, which disables uploads.
func NewProductService(repo repository.ProductRepository, categories CategoryReader, images storage.ImageStore) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		images:     images,
	}
}

// ListProducts returns catalog products matching the filter
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return s.repo.List(ctx, filter)
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates and stores a new product
func (s *ProductService) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	p := &models.Product{Active: true}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, p.ID)
}

// UpdateProduct replaces the editable fields of an existing product
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) apply(ctx context.Context, p *models.Product, in models.ProductInput) error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}

	if in.CategoryID != "" {
		if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return fmt.Errorf("%w: unknown category", ErrInvalidInput)
			}
			return err
		}
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}

	p.CategoryID = in.CategoryID
	p.Name = name
	p.Slug = slugify(name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price
	p.Currency = currency
	p.Stock = in.Stock
	p.ImageURL = in.ImageURL
	p.ProviderProductID = strings.TrimSpace(in.ProviderProductID)
	if in.Active != nil {
		p.Active = *in.Active
	}
	return nil
}

// DeleteProduct removes a product from the catalog
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadImage stores the product's main image and records its URL
func (s *ProductService) UploadImage(ctx context.Context, id, contentType string, body io.ReadSeeker) (*models.Product, error) {
	if s.images == nil {
		return nil, ErrImagesUnavailable
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported image type %q", ErrInvalidInput, contentType)
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	url, err := s.images.Put(ctx, "products/"+id+"/main"+ext, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if err := s.repo.SetImageURL(ctx, id, url); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
