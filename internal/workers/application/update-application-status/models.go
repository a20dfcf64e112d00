// internal/workers/application/update-application-status/models.go
package updateapplicationstatus

type Input struct {
	ApplicationID string  `json:"applicationId"`
	Status        string  `json:"status"`
	Notes         *string `json:"notes,omitempty"`
}

// Delivery outcomes recorded for approvals.
const (
	DeliveryDelivered = "delivered"
	DeliveryQueued    = "queued"
	DeliveryLost      = "lost"
	DeliverySkipped   = "skipped"
)

// Provider id sources.
const (
	ProviderIDFromForm      = "form"
	ProviderIDFromGenerator = "generated"
)
