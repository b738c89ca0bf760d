package repository

import (
	"context"
	"fmt"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/google/uuid"
)

type ReviewRepository struct {
	q DBTX
}

// ListByProduct returns a product's reviews, newest first, with the author's name.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT rv.id, rv.product_id, rv.user_id, COALESCE(pr.full_name, ''), rv.rating, rv.comment, rv.created_at
		FROM reviews rv LEFT JOIN profiles pr ON pr.id = rv.user_id
		WHERE rv.product_id = ?
		ORDER BY rv.created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.AuthorName, &rv.Rating, &rv.Comment, scanTime(&rv.CreatedAt)); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// Create inserts a review. A user may review a product once; a repeat is ErrConflict.
func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	rv.CreatedAt = now()
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, formatTime(rv.CreatedAt),
	)
	return translateWriteErr("create review", err)
}
