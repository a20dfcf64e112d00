package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in    string
		want  ApplicationStatus
		valid bool
	}{
		{"Pending", StatusPending, true},
		{"In Review", StatusInReview, true},
		{"InReview", StatusInReview, true},
		{"Approved", StatusApproved, true},
		{"Rejected", StatusRejected, true},
		{"approved", "", false},
		{"Archived", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatus(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormDataProviderID(t *testing.T) {
	tests := []struct {
		name     string
		formData map[string]interface{}
		want     string
		ok       bool
	}{
		{"eleven chars", map[string]interface{}{"medicaidProviderId": "12345678901"}, "12345678901", true},
		{"ten chars", map[string]interface{}{"medicaidProviderId": "1234567890"}, "", false},
		{"numeric value", map[string]interface{}{"medicaidProviderId": 12345678901.0}, "", false},
		{"absent", map[string]interface{}{"firstName": "Ada"}, "", false},
		{"nil form", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &Application{FormData: tt.formData}
			got, ok := app.FormDataProviderID()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewProviderEnrollmentEvent(t *testing.T) {
	id := "98765432109"
	submitted := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	app := &Application{
		ID:                 "app-1",
		UserID:             "user-1",
		ApplicationType:    "Individual",
		Status:             StatusApproved,
		SubmittedDate:      submitted,
		StatusUpdateDate:   submitted.Add(time.Hour),
		MedicaidProviderID: &id,
	}
	user := &User{ID: "user-1", FirstName: "Ada", LastName: "Lovelace", NPI: "1234567890", ZipCode: "10001"}

	raw, err := json.Marshal(NewProviderEnrollmentEvent(app, user))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Len(t, got, 17)
	assert.Equal(t, "98765432109", got["medicaid_provider_id"])
	assert.Equal(t, "10001", got["zip_code"])
	assert.Equal(t, "Approved", got["status"])
	assert.Equal(t, "2024-01-02T03:04:05Z", got["submitted_date"])
	assert.Equal(t, "2024-01-02T04:04:05Z", got["status_update_date"])
}

func TestStatusCounts_Add(t *testing.T) {
	var c StatusCounts
	c.Add(StatusPending, 2)
	c.Add(StatusInReview, 1)
	c.Add("Archived", 9)
	assert.Equal(t, StatusCounts{Pending: 2, InReview: 1}, c)
}
