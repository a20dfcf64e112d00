// internal/repository/users.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"provider-enrollment/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	var u models.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, organization_name, npi,
			address, city, state, zip_code, phone, role, created_at
		FROM users WHERE id = $1`, id).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.OrganizationName, &u.NPI,
		&u.Address, &u.City, &u.State, &u.ZipCode, &u.Phone, &u.Role, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
