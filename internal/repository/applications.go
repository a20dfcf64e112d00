// internal/repository/applications.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"provider-enrollment/internal/models"
)

const applicationColumns = `id, user_id, application_type, status, submitted_date,
	status_update_date, notes, medicaid_provider_id, form_data`

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	formData, err := marshalFormData(app.FormData)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, user_id, application_type, status, submitted_date,
			status_update_date, notes, medicaid_provider_id, form_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		app.ID,
		app.UserID,
		app.ApplicationType,
		string(app.Status),
		app.SubmittedDate,
		app.StatusUpdateDate,
		nullString(app.Notes),
		nullString(app.MedicaidProviderID),
		formData,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	return scanApplication(row)
}

// GetByIDForUser returns the application only if userID owns it.
func (r *ApplicationRepository) GetByIDForUser(ctx context.Context, id, userID string) (*models.Application, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1 AND user_id = $2`, id, userID)
	return scanApplication(row)
}

// ListByUser returns userID's applications, newest first.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID string) ([]*models.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 ORDER BY submitted_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []*models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// UpdateStatus persists status, status_update_date, notes and the provider id
// in one statement and returns the stored row. An identifier already present
// in the row is never overwritten.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, app *models.Application) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE applications
		SET status = $2,
			status_update_date = $3,
			notes = $4,
			medicaid_provider_id = COALESCE(medicaid_provider_id, $5)
		WHERE id = $1
		RETURNING `+applicationColumns,
		app.ID,
		string(app.Status),
		app.StatusUpdateDate,
		nullString(app.Notes),
		nullString(app.MedicaidProviderID),
	)
	return scanApplication(row)
}

func (r *ApplicationRepository) ProviderIDExists(ctx context.Context, providerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE medicaid_provider_id = $1)`, providerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("provider id lookup: %w", err)
	}
	return exists, nil
}

// CountByStatus returns the per-status breakdown and the overall total.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (models.StatusCounts, int, error) {
	var counts models.StatusCounts

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return counts, 0, fmt.Errorf("count applications: %w", err)
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return counts, 0, fmt.Errorf("count applications: %w", err)
		}
		counts.Add(models.ApplicationStatus(status), n)
		total += n
	}
	if err := rows.Err(); err != nil {
		return counts, 0, fmt.Errorf("count applications: %w", err)
	}
	return counts, total, nil
}

func (r *ApplicationRepository) CountSubmittedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE submitted_date >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recent applications: %w", err)
	}
	return n, nil
}

func scanApplication(s scanner) (*models.Application, error) {
	var (
		app        models.Application
		status     string
		notes      sql.NullString
		providerID sql.NullString
		formData   []byte
	)

	err := s.Scan(
		&app.ID,
		&app.UserID,
		&app.ApplicationType,
		&status,
		&app.SubmittedDate,
		&app.StatusUpdateDate,
		&notes,
		&providerID,
		&formData,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}

	app.Status = models.ApplicationStatus(status)
	if notes.Valid {
		app.Notes = &notes.String
	}
	if providerID.Valid {
		app.MedicaidProviderID = &providerID.String
	}

	app.FormData = map[string]interface{}{}
	if len(formData) > 0 {
		if err := json.Unmarshal(formData, &app.FormData); err != nil {
			return nil, fmt.Errorf("decode form data for %s: %w", app.ID, err)
		}
	}
	return &app, nil
}

func marshalFormData(formData map[string]interface{}) ([]byte, error) {
	if formData == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(formData)
	if err != nil {
		return nil, fmt.Errorf("marshal form data: %w", err)
	}
	return b, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
