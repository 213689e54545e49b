// Package container provides dependency injection and lifecycle management
// for the quoting service.
package container

import (
	"fmt"
	"time"

	"github.com/brushline/paintquote/internal/application/service"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Policy   service.Policy
	Gateway  GatewayConfig
	Archive  ArchiveConfig
	Metrics  MetricsConfig
	Takeoff  TakeoffConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// BusyTimeout is how long a writer waits for the database lock
	BusyTimeout time.Duration
}

// GatewayConfig holds payment gateway settings.
type GatewayConfig struct {
	// AccessToken for Mercado Pago; empty disables the gateway
	AccessToken string
}

// ArchiveConfig holds DynamoDB audit archive settings.
type ArchiveConfig struct {
	Enabled         bool
	Table           string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PollInterval    time.Duration
	BatchSize       int
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// TakeoffConfig holds takeoff import settings.
type TakeoffConfig struct {
	// Sheet to read; empty reads the first sheet
	Sheet string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/paintquote.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		Policy: service.DefaultPolicy(),
		Archive: ArchiveConfig{
			Table:        "paintquote-audit",
			Region:       "us-east-1",
			PollInterval: 10 * time.Second,
			BatchSize:    100,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "paintquote",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Policy.DepositPercent.IsNegative() || c.Policy.DepositPercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("deposit percent must be between 0 and 100")
	}
	if c.Policy.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if c.Policy.VerifyWithGateway && c.Gateway.AccessToken == "" {
		return fmt.Errorf("gateway access token is required for gateway verification")
	}
	if c.Archive.Enabled && c.Archive.Table == "" {
		return fmt.Errorf("archive table is required")
	}
	return nil
}
