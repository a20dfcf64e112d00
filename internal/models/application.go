// internal/models/application.go
package models

import (
	"time"
	"unicode/utf8"
)

// ApplicationStatus is the review state of an enrollment application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "Pending"
	StatusInReview ApplicationStatus = "In Review"
	StatusApproved ApplicationStatus = "Approved"
	StatusRejected ApplicationStatus = "Rejected"
)

// ProviderIDLength is the length of a Medicaid provider identifier.
const ProviderIDLength = 11

var statusAliases = map[string]ApplicationStatus{
	"InReview": StatusInReview,
}

// AllStatuses returns the recognized statuses in review order.
func AllStatuses() []ApplicationStatus {
	return []ApplicationStatus{StatusPending, StatusInReview, StatusApproved, StatusRejected}
}

// StatusNames returns AllStatuses as strings.
func StatusNames() []string {
	all := AllStatuses()
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = string(s)
	}
	return out
}

// ParseStatus maps a requested value to a status. Matching is exact;
// "InReview" is accepted as an alias of "In Review".
func ParseStatus(value string) (ApplicationStatus, bool) {
	if alias, ok := statusAliases[value]; ok {
		return alias, true
	}
	s := ApplicationStatus(value)
	return s, s.Valid()
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Application is one enrollment submission.
type Application struct {
	ID                 string                 `json:"id"`
	UserID             string                 `json:"userId"`
	ApplicationType    string                 `json:"applicationType"`
	Status             ApplicationStatus      `json:"status"`
	SubmittedDate      time.Time              `json:"submittedDate"`
	StatusUpdateDate   time.Time              `json:"statusUpdateDate"`
	Notes              *string                `json:"notes"`
	MedicaidProviderID *string                `json:"medicaidProviderId"`
	FormData           map[string]interface{} `json:"formData"`
}

// HasProviderID reports whether an identifier has been assigned.
func (a *Application) HasProviderID() bool {
	return a.MedicaidProviderID != nil && *a.MedicaidProviderID != ""
}

// FormDataProviderID returns the identifier supplied in the form, if it is a
// string of exactly ProviderIDLength characters.
func (a *Application) FormDataProviderID() (string, bool) {
	if a.FormData == nil {
		return "", false
	}
	id, ok := a.FormData["medicaidProviderId"].(string)
	if !ok || utf8.RuneCountInString(id) != ProviderIDLength {
		return "", false
	}
	return id, true
}

// StatusCounts is the per-status breakdown used by the admin dashboard.
type StatusCounts struct {
	Pending  int `json:"pending"`
	InReview int `json:"inReview"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Add records n applications in status s. Unknown statuses are ignored.
func (c *StatusCounts) Add(s ApplicationStatus, n int) {
	switch s {
	case StatusPending:
		c.Pending += n
	case StatusInReview:
		c.InReview += n
	case StatusApproved:
		c.Approved += n
	case StatusRejected:
		c.Rejected += n
	}
}
