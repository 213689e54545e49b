package config

import (
	"strings"

	"github.com/brushline/paintquote/internal/application/service"
	"github.com/brushline/paintquote/internal/container"
	"github.com/shopspring/decimal"
)

// ToContainerConfig converts the file-based configuration loaded by viper
// into the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
		},
		Policy: service.Policy{
			DepositPercent:    decimal.NewFromFloat(c.Pricing.DepositPercent),
			AllowZeroPrice:    c.Pricing.AllowZeroPrice,
			Epsilon:           decimal.NewFromFloat(c.Pricing.Epsilon),
			Currency:          strings.ToUpper(c.Payments.Currency),
			AmountTolerance:   decimal.NewFromFloat(c.Payments.AmountTolerance),
			VerifyWithGateway: c.Payments.VerifyWithGateway,
		},
		Gateway: container.GatewayConfig{
			AccessToken: c.Payments.AccessToken,
		},
		Archive: container.ArchiveConfig{
			Enabled:         c.Archive.Enabled,
			Table:           c.Archive.Table,
			Region:          c.Archive.Region,
			Endpoint:        c.Archive.Endpoint,
			AccessKeyID:     c.Archive.AccessKeyID,
			SecretAccessKey: c.Archive.SecretAccessKey,
			PollInterval:    c.Archive.PollInterval,
			BatchSize:       c.Archive.BatchSize,
		},
		Metrics: container.MetricsConfig{
			Enabled:   c.Metrics.Enabled,
			Namespace: c.Metrics.Namespace,
		},
		Takeoff: container.TakeoffConfig{
			Sheet: c.Takeoff.Sheet,
		},
	}
}
