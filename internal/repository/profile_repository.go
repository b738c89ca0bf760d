package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/google/uuid"
)

type ProfileRepository struct {
	q DBTX
}

const profileColumns = "id, email, full_name, role, password_hash, created_at, updated_at"

func scanProfile(row interface{ Scan(...any) error }) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.PasswordHash, scanTime(&p.CreatedAt), scanTime(&p.UpdatedAt))
	return p, err
}

// Create inserts a profile. Emails are unique case-insensitively.
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Role == "" {
		p.Role = models.RoleCustomer
	}
	ts := now()
	p.CreatedAt, p.UpdatedAt = ts, ts
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, role, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.FullName, p.Role, p.PasswordHash, formatTime(ts), formatTime(ts),
	)
	return translateWriteErr("create profile", err)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	return r.getOne(ctx, "id", id)
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.getOne(ctx, "email", email)
}

func (r *ProfileRepository) getOne(ctx context.Context, column, value string) (*models.Profile, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profiles WHERE "+column+" = ?", value)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// List returns profiles ordered by signup time.
func (r *ProfileRepository) List(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles ORDER BY created_at ASC"
	var args []any
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *ProfileRepository) UpdateName(ctx context.Context, id, fullName string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE profiles SET full_name = ?, updated_at = ? WHERE id = ?",
		fullName, formatTime(now()), id,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return expectOne(res, ErrProfileNotFound)
}

func (r *ProfileRepository) SetRole(ctx context.Context, id, role string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE profiles SET role = ?, updated_at = ? WHERE id = ?",
		role, formatTime(now()), id,
	)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return expectOne(res, ErrProfileNotFound)
}
