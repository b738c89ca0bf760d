package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/google/uuid"
)

type CategoryRepository struct {
	q DBTX
}

const categoryColumns = "id, name, slug, description, created_at"

func scanCategory(row interface{ Scan(...any) error }) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, scanTime(&c.CreatedAt))
	return c, err
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return r.getOne(ctx, "id", id)
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *CategoryRepository) getOne(ctx context.Context, column, value string) (*models.Category, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE "+column+" = ?", value)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now()
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO categories (id, name, slug, description, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Slug, c.Description, formatTime(c.CreatedAt),
	)
	return translateWriteErr("create category", err)
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE categories SET name = ?, slug = ?, description = ? WHERE id = ?",
		c.Name, c.Slug, c.Description, c.ID,
	)
	if err != nil {
		return translateWriteErr("update category", err)
	}
	return expectOne(res, ErrCategoryNotFound)
}

// Delete removes a category; its products become uncategorized.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectOne(res, ErrCategoryNotFound)
}
