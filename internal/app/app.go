// Package app wires configuration, storage and services into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/merge"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/cache"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/database"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/events"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/parsers"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/queue"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/storage"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/config"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/tracing"
)

// ServiceName identifies this process in traces and logs
const ServiceName = "crm-resolution-service"

// App holds the long-lived components of one process
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DB        *database.PostgresDB
	Customers *repositories.CustomerRepository
	Leads     *repositories.LeadRepository
	ScanRuns  *repositories.ScanRunRepository

	Detector *deduplication.Service
	Scanner  *deduplication.Scanner
	Merger   *merge.Service
	Parsers  *parsers.Registry
	Reports  *storage.ReportStore

	// Optional, nil when disabled in config
	Cache    *cache.RedisCache
	Producer *events.Producer

	closers []func() error
}

// New connects to every configured backend and builds the services on top of them.
// Components already opened are closed when a later one fails.
func New(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Parsers: parsers.NewRegistry(parsers.DefaultConfig()),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	shutdownTracing := tracing.Init(ServiceName)
	a.closers = append(a.closers, func() error { return shutdownTracing(context.Background()) })

	a.DB, err = database.NewPostgresDB(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.DB.Close)

	a.Customers = repositories.NewCustomerRepository(a.DB.DB, logger)
	a.Leads = repositories.NewLeadRepository(a.DB.DB, logger)

	a.ScanRuns = repositories.NewScanRunRepository(a.DB.DB, logger)

	a.Detector = deduplication.NewService(DedupConfig(cfg.Dedup), a.Customers, a.Leads, logger)
	a.Scanner = deduplication.NewScanner(a.Detector, a.ScanRuns, logger)

	var locker merge.Locker
	if cfg.Cache.Enabled {
		a.Cache, err = cache.NewRedisCache(&cfg.Cache, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.Cache.Close)
		locker = cache.NewLocker(a.Cache, cfg.Merge.LockTTL, cfg.Merge.LockTimeout)
	}

	var publisher merge.Publisher
	if cfg.Events.Enabled {
		a.Producer = events.NewProducer(&cfg.Events, logger)
		a.closers = append(a.closers, a.Producer.Close)
		publisher = a.Producer
	}

	a.Merger = merge.NewService(repositories.NewMergeStore(a.DB.DB, logger), locker, publisher, logger)

	a.Reports, err = storage.NewReportStore(&cfg.Reports, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("application initialized",
		slog.Bool("redis_lock", locker != nil),
		slog.Bool("events", publisher != nil))

	return a, nil
}

// GroupPublisher returns the producer as a scan publisher, or nil when events are disabled
func (a *App) GroupPublisher() queue.GroupPublisher {
	if a.Producer == nil {
		return nil
	}
	return a.Producer
}

// NewWorker builds an asynq server with the dedup handlers registered
func (a *App) NewWorker() *queue.AsynqServer {
	server := queue.NewAsynqServer(&a.Config.Queue, a.Logger)
	queue.NewHandlers(a.Scanner, a.Merger, a.GroupPublisher(), a.Logger).Register(server)
	return server
}

// Close releases every component in reverse order of creation
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to close application: %w", err)
	}
	return nil
}

// DedupConfig converts the loaded thresholds to the detector's config
func DedupConfig(cfg config.DedupConfig) deduplication.Config {
	return deduplication.Config{
		CustomerNameThreshold:    cfg.CustomerNameThreshold,
		CustomerAddressThreshold: cfg.CustomerAddressThreshold,
		LeadNameThreshold:        cfg.LeadNameThreshold,
		LeadCompanyThreshold:     cfg.LeadCompanyThreshold,
	}
}
