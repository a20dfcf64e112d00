// internal/workers/application/send-notification/config.go
package sendnotification

import (
	"time"

	"provider-enrollment/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	FromEmail    string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		EmailEnabled: cfg.Integrations.AWS.SES.Enabled,
		FromEmail:    cfg.Integrations.AWS.SES.FromEmail,
		AWSRegion:    cfg.Integrations.AWS.Region,
		Timeout:      10 * time.Second,
	}
}
