package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/extractor"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/handler"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/repository"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/rubric"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/service"
	"github.com/FACorreiaa/ecad-statements/pkg/config"
	"github.com/FACorreiaa/ecad-statements/pkg/cron"
	"github.com/FACorreiaa/ecad-statements/pkg/db"
	"github.com/FACorreiaa/ecad-statements/pkg/metrics"
	"github.com/FACorreiaa/ecad-statements/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB // nil when the database is disabled
	Logger *slog.Logger

	// Repositories
	RunRepo repository.RunRepository

	// Services
	Store            storage.Store
	Metrics          *metrics.Metrics
	StatementService *service.Service
	Scheduler        *cron.Scheduler

	// Handlers
	RunsHandler *handler.RunsHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if cfg.Database.Enabled {
		if err := deps.initDatabase(); err != nil {
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
	}

	// Initialize repositories
	if err := deps.initRepositories(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	// Initialize services
	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// Initialize handlers
	if err := deps.initHandlers(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	if d.DB != nil {
		d.RunRepo = repository.NewPostgresRunRepository(d.DB.Pool)
	}

	d.Logger.Info("repositories initialized", slog.Bool("database", d.DB != nil))
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	pipeline := d.Config.Pipeline

	d.StatementService = service.NewService(service.Options{
		Workers:       pipeline.Workers,
		KeepTrailing:  pipeline.KeepTrailing,
		ClosingMarker: pipeline.Layout.ClosingMarker,
		Specs:         tableSpecs(pipeline.Layout),
		TopN:          pipeline.TopN,
		Merge:         pipeline.Merge,
	}, d.Logger)

	if pipeline.ReferencePath != "" {
		ref, err := rubric.LoadReference(pipeline.ReferencePath)
		if err != nil {
			return fmt.Errorf("failed to load rubric reference: %w", err)
		}
		d.StatementService.WithReference(ref)
		d.Logger.Info("rubric reference loaded",
			slog.String("path", pipeline.ReferencePath),
			slog.Int("entries", ref.Len()),
		)
	}

	// Artifact storage for run outputs
	store, err := storage.NewLocalStore(d.Config.Storage.Root)
	if err != nil {
		return fmt.Errorf("failed to init artifact storage: %w", err)
	}
	d.Store = store
	d.StatementService.WithStore(store)

	if d.RunRepo != nil {
		d.StatementService.WithRepository(d.RunRepo)
	}

	if d.Config.Observability.MetricsEnabled {
		d.Metrics = metrics.New()
		d.StatementService.WithMetrics(d.Metrics)
	}

	// Inbox polling feeds dropped PDFs through the pipeline
	if d.Config.Scheduler.Enabled {
		d.Scheduler = cron.NewScheduler(
			d.Config.Scheduler.Spec,
			d.Config.Scheduler.InboxDir,
			newInboxAdapter(d.StatementService, d.Logger),
			d.Logger,
		)
	}

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.RunsHandler = handler.NewRunsHandler(d.StatementService, d.Logger)
	if d.RunRepo != nil {
		d.RunsHandler.WithLister(d.RunRepo)
	}
	if d.DB != nil {
		d.RunsHandler.WithHealth(d.DB)
	}
	if d.Metrics != nil {
		d.RunsHandler.WithMetrics(d.Metrics.Handler())
	}

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}

// tableSpecs applies the layout profile to the built-in table specs.
func tableSpecs(layout config.Layout) []extractor.TableSpec {
	return []extractor.TableSpec{
		extractor.CategorySpec.WithAnchors(layout.Category.Start, layout.Category.End),
		extractor.RubricSpec.WithAnchors(layout.Rubric.Start, layout.Rubric.End),
		extractor.WorkSpec.WithAnchors(layout.Work.Start, layout.Work.End),
	}
}
