// internal/models/event.go
package models

import "time"

// ProviderEnrollmentEvent is the record sent to the data warehouse on approval.
type ProviderEnrollmentEvent struct {
	ID                 string `json:"id"`
	UserID             string `json:"user_id"`
	MedicaidProviderID string `json:"medicaid_provider_id"`
	NPI                string `json:"npi"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	OrganizationName   string `json:"organization_name"`
	Address            string `json:"address"`
	City               string `json:"city"`
	State              string `json:"state"`
	ZipCode            string `json:"zip_code"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	ApplicationType    string `json:"application_type"`
	Status             string `json:"status"`
	SubmittedDate      string `json:"submitted_date"`
	StatusUpdateDate   string `json:"status_update_date"`
}

// NewProviderEnrollmentEvent joins an approved application with its owner.
func NewProviderEnrollmentEvent(app *Application, user *User) *ProviderEnrollmentEvent {
	event := &ProviderEnrollmentEvent{
		ID:               app.ID,
		UserID:           app.UserID,
		NPI:              user.NPI,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		OrganizationName: user.OrganizationName,
		Address:          user.Address,
		City:             user.City,
		State:            user.State,
		ZipCode:          user.ZipCode,
		Phone:            user.Phone,
		Email:            user.Email,
		ApplicationType:  app.ApplicationType,
		Status:           string(app.Status),
		SubmittedDate:    app.SubmittedDate.UTC().Format(time.RFC3339Nano),
		StatusUpdateDate: app.StatusUpdateDate.UTC().Format(time.RFC3339Nano),
	}
	if app.MedicaidProviderID != nil {
		event.MedicaidProviderID = *app.MedicaidProviderID
	}
	return event
}
