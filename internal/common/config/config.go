// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Server       ServerConfig      `mapstructure:"server"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Auth         AuthConfig        `mapstructure:"auth"`
	Warehouse    WarehouseConfig   `mapstructure:"warehouse"`
	Workflow     WorkflowConfig    `mapstructure:"workflow"`
	Redelivery   RedeliveryConfig  `mapstructure:"redelivery"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds the bearer token settings shared with the credential service.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// --- Workflow Configuration ---

// WarehouseConfig configures the outbound data warehouse delivery client.
type WarehouseConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Endpoint   string `mapstructure:"endpoint"`
	MaxRetries int    `mapstructure:"max_retries"`
	BackoffMs  int    `mapstructure:"backoff_ms"`
	TimeoutMs  int    `mapstructure:"timeout_ms"`
}

// RetryBudget is the worst case in milliseconds for one delivery with all
// retries: every attempt hits the request timeout and every gap waits the
// full backoff.
func (w WarehouseConfig) RetryBudget() int {
	return (w.MaxRetries+1)*w.TimeoutMs + w.MaxRetries*w.BackoffMs
}

type WorkflowConfig struct {
	DeliveryTimeout   int  `mapstructure:"delivery_timeout"` // milliseconds
	NotifyTimeout     int  `mapstructure:"notify_timeout"`   // milliseconds
	UniqueProviderIDs bool `mapstructure:"unique_provider_ids"`
	MaxIDAttempts     int  `mapstructure:"max_id_attempts"`
	// DurableQueue selects the Redis retry queue; false keeps the log-only queue.
	DurableQueue bool `mapstructure:"durable_queue"`
}

// RedeliveryConfig drives the periodic sweep over the retry queue.
type RedeliveryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Interval    int  `mapstructure:"interval"` // milliseconds
	BatchSize   int  `mapstructure:"batch_size"`
	MaxRetries  int  `mapstructure:"max_retries"`
	MaxAttempts int  `mapstructure:"max_attempts"`
}

// IntegrationConfig holds settings for email and other external services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
