package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Payments PaymentsConfig `mapstructure:"payments"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Takeoff  TakeoffConfig  `mapstructure:"takeoff"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// PricingConfig holds quote pricing settings
type PricingConfig struct {
	DepositPercent float64 `mapstructure:"deposit_percent"`
	AllowZeroPrice bool    `mapstructure:"allow_zero_price"`
	Epsilon        float64 `mapstructure:"epsilon"`
}

// PaymentsConfig holds payment reconciliation settings
type PaymentsConfig struct {
	Currency          string  `mapstructure:"currency"`
	AmountTolerance   float64 `mapstructure:"amount_tolerance"`
	VerifyWithGateway bool    `mapstructure:"verify_with_gateway"`
	AccessToken       string  `mapstructure:"access_token"`
	WebhookSecret     string  `mapstructure:"webhook_secret"`
}

// ArchiveConfig holds the DynamoDB audit archive settings
type ArchiveConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Table           string        `mapstructure:"table"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// TakeoffConfig holds takeoff sheet import settings
type TakeoffConfig struct {
	Sheet string `mapstructure:"sheet"`
}

// Load loads configuration from an optional .env file, the YAML file at
// configPath and environment variables, in increasing precedence. A missing
// config file is not an error.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PAINTQUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/paintquote.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Pricing defaults
	v.SetDefault("pricing.deposit_percent", 30)
	v.SetDefault("pricing.allow_zero_price", false)
	v.SetDefault("pricing.epsilon", 0.01)

	// Payment defaults
	v.SetDefault("payments.currency", "USD")
	v.SetDefault("payments.amount_tolerance", 0.01)
	v.SetDefault("payments.verify_with_gateway", false)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.table", "paintquote-audit")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.poll_interval", 10*time.Second)
	v.SetDefault("archive.batch_size", 100)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "paintquote")
	v.SetDefault("metrics.path", "/metrics")
}

// bindEnvVars binds credentials to their conventional environment variables
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"payments.access_token":     "MERCADOPAGO_ACCESS_TOKEN",
		"payments.webhook_secret":   "PAYMENT_WEBHOOK_SECRET",
		"archive.endpoint":          "DYNAMODB_ENDPOINT",
		"archive.region":            "AWS_REGION",
		"archive.access_key_id":     "AWS_ACCESS_KEY_ID",
		"archive.secret_access_key": "AWS_SECRET_ACCESS_KEY",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Pricing.DepositPercent < 0 || c.Pricing.DepositPercent > 100 {
		return fmt.Errorf("pricing.deposit_percent must be between 0 and 100")
	}
	if c.Pricing.Epsilon < 0 {
		return fmt.Errorf("pricing.epsilon must not be negative")
	}
	if len(c.Payments.Currency) != 3 {
		return fmt.Errorf("payments.currency must be an ISO 4217 code")
	}
	if c.Payments.AmountTolerance < 0 {
		return fmt.Errorf("payments.amount_tolerance must not be negative")
	}
	if c.Payments.VerifyWithGateway && c.Payments.AccessToken == "" {
		return fmt.Errorf("payments.access_token is required when verify_with_gateway is set")
	}
	if c.Payments.WebhookSecret == "" && !c.Payments.VerifyWithGateway {
		return fmt.Errorf("payments.webhook_secret is required unless verify_with_gateway is set")
	}
	if c.Archive.Enabled && c.Archive.Table == "" {
		return fmt.Errorf("archive.table is required when the archive is enabled")
	}
	return nil
}
