package container

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brushline/paintquote/internal/application/dispatcher"
	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/application/service"
	"github.com/brushline/paintquote/internal/infrastructure/archive"
	"github.com/brushline/paintquote/internal/infrastructure/external/mercadopago"
	"github.com/brushline/paintquote/internal/infrastructure/metrics"
	"github.com/brushline/paintquote/internal/infrastructure/notify"
	"github.com/brushline/paintquote/internal/infrastructure/persistence/repository"
	"github.com/brushline/paintquote/internal/infrastructure/persistence/sqlite"
	"github.com/brushline/paintquote/internal/infrastructure/worker"
	"github.com/brushline/paintquote/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the SQLite database, applies pending migrations and
// wraps it in a transaction manager.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(ctx, database.Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Quotes:      repository.NewQuoteRepository(sqlDB, logger),
		Jobs:        repository.NewJobRepository(sqlDB, logger),
		Payments:    repository.NewPaymentRepository(sqlDB, logger),
		Audit:       repository.NewAuditRepository(sqlDB, logger),
		Checkpoints: repository.NewCheckpointRepository(sqlDB),
	}, nil
}

// ProvideGateway creates the Mercado Pago gateway. It returns nil without an
// access token; reconciliation then trusts the payment event as delivered.
func ProvideGateway(cfg *GatewayConfig, logger *zap.Logger) (port.PaymentGateway, error) {
	if cfg == nil || cfg.AccessToken == "" {
		logger.Info("Payment gateway disabled")
		return nil, nil
	}
	gateway, err := mercadopago.NewGateway(cfg.AccessToken, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment gateway: %w", err)
	}
	return gateway, nil
}

// ProvideArchive creates the DynamoDB audit archive, or nil when disabled.
func ProvideArchive(ctx context.Context, cfg *ArchiveConfig, logger *zap.Logger) (port.AuditArchive, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	client, err := archive.NewClient(ctx, archive.ClientConfig{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Audit archive enabled",
		zap.String("table", cfg.Table),
		zap.String("region", cfg.Region))
	return archive.NewDynamoArchive(client, cfg.Table, logger), nil
}

// ProvideMetrics creates the Prometheus collector, or nil when disabled.
func ProvideMetrics(cfg *MetricsConfig, logger *zap.Logger) *metrics.Collector {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return metrics.NewCollector(cfg.Namespace, logger)
}

// ProvideDispatcher creates the event dispatcher and subscribes the notifier.
func ProvideDispatcher(notifier port.Notifier, logger *zap.Logger) dispatcher.Dispatcher {
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}))
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	dispatcher.RegisterNotifier(d, notifier)
	return d
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Gateway    port.PaymentGateway
	Metrics    port.Metrics
	Policy     service.Policy
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	logger := &zapLoggerAdapter{logger: deps.Logger.Named("service")}
	audit := service.NewAuditRecorder(deps.Repos.Audit, logger)
	shared := service.Deps{
		Quotes:   deps.Repos.Quotes,
		Jobs:     deps.Repos.Jobs,
		Payments: deps.Repos.Payments,
		Audit:    audit,
		Tx:       deps.TxManager,
		Events:   deps.Dispatcher,
		Metrics:  deps.Metrics,
		Logger:   logger,
	}

	return &ServiceBundle{
		Quotes:   service.NewQuoteService(shared, deps.Policy),
		Jobs:     service.NewJobService(shared),
		Payments: service.NewPaymentService(shared, deps.Gateway, deps.Policy),
	}, nil
}

// WorkerDeps holds dependencies for creating workers.
type WorkerDeps struct {
	Repos   *RepositoryBundle
	Archive port.AuditArchive
	Config  *ArchiveConfig
	Logger  *zap.Logger
}

// ProvideWorkers creates the worker manager and registers enabled workers.
func ProvideWorkers(deps *WorkerDeps) *worker.WorkerManager {
	manager := worker.NewWorkerManager(deps.Logger)
	if deps.Archive != nil {
		manager.Register(worker.NewArchiveWorker(
			worker.ArchiveWorkerConfig{
				PollInterval: deps.Config.PollInterval,
				BatchSize:    deps.Config.BatchSize,
			},
			deps.Repos.Audit,
			deps.Repos.Checkpoints,
			deps.Archive,
			deps.Logger.Named("archive"),
		))
	}
	return manager
}
