// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// base config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// environment overlay, e.g. config.production.yaml
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// Enable ENV override like WAREHOUSE_BASE_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if val := os.Getenv("DATA_WAREHOUSE_URL"); val != "" {
		cfg.Warehouse.BaseURL = val
	}

	if cfg.Auth.JWTSecret == "" {
		if val := os.Getenv("JWT_SECRET"); val != "" {
			cfg.Auth.JWTSecret = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "provider-enrollment"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":5000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		// approval requests block on warehouse retries
		cfg.Server.WriteTimeout = 75000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "provider-enrollment"
	}

	if cfg.Warehouse.BaseURL == "" {
		cfg.Warehouse.BaseURL = "http://localhost:5005/api/events"
	}
	if cfg.Warehouse.Endpoint == "" {
		cfg.Warehouse.Endpoint = "provider-enrollment"
	}
	if cfg.Warehouse.MaxRetries == 0 {
		cfg.Warehouse.MaxRetries = 3
	}
	if cfg.Warehouse.BackoffMs == 0 {
		cfg.Warehouse.BackoffMs = 1000
	}
	if cfg.Warehouse.TimeoutMs == 0 {
		cfg.Warehouse.TimeoutMs = 10000
	}

	if cfg.Workflow.DeliveryTimeout == 0 {
		cfg.Workflow.DeliveryTimeout = cfg.Warehouse.RetryBudget() + deliveryMarginMs
	}
	if cfg.Workflow.NotifyTimeout == 0 {
		cfg.Workflow.NotifyTimeout = 10000
	}
	if cfg.Workflow.MaxIDAttempts == 0 {
		cfg.Workflow.MaxIDAttempts = 5
	}

	if cfg.Redelivery.Interval == 0 {
		cfg.Redelivery.Interval = 60000
	}
	if cfg.Redelivery.BatchSize == 0 {
		cfg.Redelivery.BatchSize = 50
	}
	if cfg.Redelivery.MaxAttempts == 0 {
		cfg.Redelivery.MaxAttempts = 10
	}

	if cfg.Integrations.AWS.Region == "" {
		cfg.Integrations.AWS.Region = "us-east-1"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// deliveryMarginMs leaves room for the owner lookup and the enqueue after a
// delivery that used its whole retry budget.
const deliveryMarginMs = 5000

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if (cfg.Workflow.DurableQueue || cfg.Redelivery.Enabled) && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when the durable retry queue is enabled")
	}

	if cfg.Warehouse.MaxRetries < 0 {
		return fmt.Errorf("warehouse.max_retries must not be negative")
	}
	if budget := cfg.Warehouse.RetryBudget(); cfg.Workflow.DeliveryTimeout < budget {
		return fmt.Errorf("workflow.delivery_timeout %dms is below the warehouse retry budget of %dms", cfg.Workflow.DeliveryTimeout, budget)
	}

	if cfg.Integrations.AWS.SES.Enabled && cfg.Integrations.AWS.SES.FromEmail == "" {
		return fmt.Errorf("integrations.aws.ses.from_email is required when SES is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
