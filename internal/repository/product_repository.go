package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/google/uuid"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
	SetImageURL(ctx context.Context, id, url string) error
}

// SQLProductRepository implements ProductRepository on top of the products table
type SQLProductRepository struct {
	q DBTX
}

var _ ProductRepository = (*SQLProductRepository)(nil)

const productColumns = `
	p.id, COALESCE(p.category_id, ''), COALESCE(c.slug, ''), p.name, p.slug, p.description,
	p.price, p.currency, p.stock, p.image_url, p.provider_product_id, p.active,
	COALESCE((SELECT AVG(r.rating) FROM reviews r WHERE r.product_id = p.id), 0.0),
	(SELECT COUNT(*) FROM reviews r WHERE r.product_id = p.id),
	p.created_at, p.updated_at`

const productFrom = ` FROM products p LEFT JOIN categories c ON c.id = p.category_id`

func scanProduct(row interface{ Scan(...any) error }) (models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.CategorySlug, &p.Name, &p.Slug, &p.Description,
		&p.Price, &p.Currency, &p.Stock, &p.ImageURL, &p.ProviderProductID, &p.Active,
		&p.Rating, &p.ReviewCount,
		scanTime(&p.CreatedAt), scanTime(&p.UpdatedAt),
	)
	return p, err
}

// GetAll returns every active product, newest first
func (r *SQLProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	return r.List(ctx, models.ProductFilter{})
}

// List returns products matching the filter
func (r *SQLProductRepository) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeInactive {
		where = append(where, "p.active = 1")
	}
	if f.CategorySlug != "" {
		where = append(where, "c.slug = ?")
		args = append(args, f.CategorySlug)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, `(p.name LIKE ? ESCAPE '\' OR p.description LIKE ? ESCAPE '\')`)
		pat := likePattern(s)
		args = append(args, pat, pat)
	}
	if f.MinPrice != nil {
		where = append(where, "p.price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "p.price <= ?")
		args = append(args, *f.MaxPrice)
	}

	query := "SELECT" + productColumns + productFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	switch f.Sort {
	case models.SortPriceAsc:
		query += " ORDER BY p.price ASC, p.name ASC"
	case models.SortPriceDesc:
		query += " ORDER BY p.price DESC, p.name ASC"
	case models.SortName:
		query += " ORDER BY p.name ASC"
	default:
		query += " ORDER BY p.created_at DESC, p.name ASC"
	}

	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetByID returns a product by its ID
func (r *SQLProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.q.QueryRowContext(ctx, "SELECT"+productColumns+productFrom+" WHERE p.id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetBySlug returns a product by its slug
func (r *SQLProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	row := r.q.QueryRowContext(ctx, "SELECT"+productColumns+productFrom+" WHERE p.slug = ?", slug)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Create inserts p, filling in its ID and timestamps
func (r *SQLProductRepository) Create(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	ts := now()
	p.CreatedAt, p.UpdatedAt = ts, ts

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (id, category_id, name, slug, description, price, currency, stock,
			image_url, provider_product_id, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, nullable(p.CategoryID), p.Name, p.Slug, p.Description, p.Price, p.Currency, p.Stock,
		p.ImageURL, p.ProviderProductID, p.Active, formatTime(ts), formatTime(ts),
	)
	return translateWriteErr("create product", err)
}

// Update overwrites the mutable fields of p
func (r *SQLProductRepository) Update(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = now()
	res, err := r.q.ExecContext(ctx, `
		UPDATE products SET category_id = ?, name = ?, slug = ?, description = ?, price = ?, currency = ?,
			stock = ?, image_url = ?, provider_product_id = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		nullable(p.CategoryID), p.Name, p.Slug, p.Description, p.Price, p.Currency,
		p.Stock, p.ImageURL, p.ProviderProductID, p.Active, formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return translateWriteErr("update product", err)
	}
	return expectOne(res, ErrProductNotFound)
}

// Delete removes a product. Cart lines referencing it are removed too.
func (r *SQLProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectOne(res, ErrProductNotFound)
}

// SetImageURL records the location of an uploaded product image
func (r *SQLProductRepository) SetImageURL(ctx context.Context, id, url string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE products SET image_url = ?, updated_at = ? WHERE id = ?",
		url, formatTime(now()), id,
	)
	if err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	return expectOne(res, ErrProductNotFound)
}

// DecrementStock lowers stock by qty without going below zero
func (r *SQLProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE products SET stock = MAX(stock - ?, 0), updated_at = ? WHERE id = ?",
		qty, formatTime(now()), id,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func translateWriteErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, ErrInvalidReference)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
