// internal/workers/delivery/redeliver-events/config.go
package redeliverevents

import (
	"time"

	"provider-enrollment/internal/common/config"
)

type Config struct {
	Interval  time.Duration
	BatchSize int
	// MaxRetries is the per-sweep retry budget handed to the warehouse client.
	MaxRetries int
	// MaxAttempts is the number of sweeps after which an entry is dead-lettered.
	MaxAttempts int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Interval:    config.GetDuration(cfg.Redelivery.Interval),
		BatchSize:   cfg.Redelivery.BatchSize,
		MaxRetries:  cfg.Redelivery.MaxRetries,
		MaxAttempts: cfg.Redelivery.MaxAttempts,
	}
}
