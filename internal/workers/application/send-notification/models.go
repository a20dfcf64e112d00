// internal/workers/application/send-notification/models.go
package sendnotification

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent" or "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)
