// internal/workers/application/update-application-status/config.go
package updateapplicationstatus

import (
	"time"

	"provider-enrollment/internal/common/config"
)

type Config struct {
	// Endpoint is the warehouse event category for approvals.
	Endpoint string
	// DeliveryTimeout bounds the owner lookup and warehouse delivery after
	// the status is committed.
	DeliveryTimeout time.Duration
	// NotifyTimeout bounds the status notification that follows delivery.
	NotifyTimeout time.Duration
	// QueueTimeout bounds the enqueue that follows a failed delivery.
	QueueTimeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Endpoint:        cfg.Warehouse.Endpoint,
		DeliveryTimeout: config.GetDuration(cfg.Workflow.DeliveryTimeout),
		NotifyTimeout:   config.GetDuration(cfg.Workflow.NotifyTimeout),
		QueueTimeout:    5 * time.Second,
	}
}
