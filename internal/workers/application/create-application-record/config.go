// internal/workers/application/create-application-record/config.go
package createapplicationrecord

import "time"

type Config struct {
	InitialNotes string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		InitialNotes: "Application submitted and pending review.",
		Timeout:      10 * time.Second,
	}
}
