package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/google/uuid"
)

type AddressRepository struct {
	q DBTX
}

const addressColumns = "id, user_id, name, line1, line2, city, state, postal_code, country, created_at"

func scanAddress(row interface{ Scan(...any) error }) (models.Address, error) {
	var a models.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Line1, &a.Line2, &a.City, &a.State, &a.PostalCode, &a.Country, scanTime(&a.CreatedAt))
	return a, err
}

func (r *AddressRepository) Create(ctx context.Context, a *models.Address) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = now()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO addresses (id, user_id, name, line1, line2, city, state, postal_code, country, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country, formatTime(a.CreatedAt),
	)
	return translateWriteErr("create address", err)
}

func (r *AddressRepository) GetByID(ctx context.Context, id string) (*models.Address, error) {
	a, err := scanAddress(r.q.QueryRowContext(ctx, "SELECT "+addressColumns+" FROM addresses WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	return &a, nil
}

// ListByUser returns the user's saved addresses, most recent first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]models.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}
