package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"provider-enrollment/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Helpers
// ==========================

const (
	appID  = "0b7c6a0e-2f43-4d7e-9a55-3f1f08c1d111"
	userID = "7f3d0a52-9c1b-4f6e-8f0a-6c9d2b4e5222"
)

var columns = []string{
	"id", "user_id", "application_type", "status", "submitted_date",
	"status_update_date", "notes", "medicaid_provider_id", "form_data",
}

func setupDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func applicationRow(status string, notes, providerID interface{}) *sqlmock.Rows {
	submitted := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(columns).AddRow(
		appID, userID, "Individual", status, submitted, submitted,
		notes, providerID, []byte(`{"firstName":"Ada"}`),
	)
}

// ==========================
// ApplicationRepository
// ==========================

func TestApplicationRepository_GetByID(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM applications WHERE id = $1")).
		WithArgs(appID).
		WillReturnRows(applicationRow("In Review", "looking", nil))

	app, err := repo.GetByID(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, app.Status)
	require.NotNil(t, app.Notes)
	assert.Equal(t, "looking", *app.Notes)
	assert.Nil(t, app.MedicaidProviderID)
	assert.Equal(t, "Ada", app.FormData["firstName"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("FROM applications").WithArgs(appID).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), appID)
	assert.ErrorIs(t, err, ErrNotFound)

	// malformed ids never reach the database
	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_GetByID_StoreError(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("FROM applications").WithArgs(appID).WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByID(context.Background(), appID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestApplicationRepository_GetByIDForUser(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
		WithArgs(appID, userID).
		WillReturnRows(applicationRow("Pending", nil, nil))

	app, err := repo.GetByIDForUser(context.Background(), appID, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, app.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_Create(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	notes := "Application submitted and pending review."
	now := time.Now().UTC()
	app := &models.Application{
		ID:               appID,
		UserID:           userID,
		ApplicationType:  "Individual",
		Status:           models.StatusPending,
		SubmittedDate:    now,
		StatusUpdateDate: now,
		Notes:            &notes,
		FormData:         map[string]interface{}{"npi": "1234567890"},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WithArgs(appID, userID, "Individual", "Pending", now, now, notes, nil, []byte(`{"npi":"1234567890"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), app))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_ListByUser(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	rows := applicationRow("Pending", nil, nil)
	rows.AddRow("1d9b3c55-6c2e-4d8f-8a1b-2e3f4a5b6333", userID, "Group", "Approved",
		time.Now(), time.Now(), nil, "12345678901", []byte(`{}`))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY submitted_date DESC")).
		WithArgs(userID).
		WillReturnRows(rows)

	apps, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	require.NotNil(t, apps[1].MedicaidProviderID)
	assert.Equal(t, "12345678901", *apps[1].MedicaidProviderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_UpdateStatus(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	providerID := "12345678901"
	updated := time.Now().UTC()
	app := &models.Application{
		ID:                 appID,
		Status:             models.StatusApproved,
		StatusUpdateDate:   updated,
		MedicaidProviderID: &providerID,
	}

	mock.ExpectQuery(regexp.QuoteMeta("medicaid_provider_id = COALESCE(medicaid_provider_id, $5)")).
		WithArgs(appID, "Approved", updated, nil, providerID).
		WillReturnRows(applicationRow("Approved", nil, providerID))

	got, err := repo.UpdateStatus(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, providerID, *got.MedicaidProviderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepository_UpdateStatus_NotFound(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("UPDATE applications").WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.UpdateStatus(context.Background(), &models.Application{ID: appID, Status: models.StatusRejected})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplicationRepository_ProviderIDExists(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("12345678901").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ProviderIDExists(context.Background(), "12345678901")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestApplicationRepository_Counts(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("Pending", 4).
			AddRow("In Review", 2).
			AddRow("Approved", 3))

	since := time.Now().AddDate(0, 0, -30)
	mock.ExpectQuery(regexp.QuoteMeta("submitted_date >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	counts, total, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, total)
	assert.Equal(t, models.StatusCounts{Pending: 4, InReview: 2, Approved: 3}, counts)

	recent, err := repo.CountSubmittedSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 5, recent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// UserRepository
// ==========================

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "organization_name", "npi",
			"address", "city", "state", "zip_code", "phone", "role", "created_at",
		}).AddRow(userID, "Ada", "Lovelace", "ada@example.org", "Analytical Clinic", "1234567890",
			"1 Main St", "Albany", "NY", "12207", "5185550100", "provider", time.Now()))

	user, err := repo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", user.LastName)
	assert.Equal(t, "1234567890", user.NPI)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users").WithArgs(userID).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), userID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_Count(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}
