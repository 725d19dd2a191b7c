package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/linkforge/linkwatch/internal/api"
	"github.com/linkforge/linkwatch/internal/config"
	"github.com/linkforge/linkwatch/internal/database"
	"github.com/linkforge/linkwatch/internal/engine"
	"github.com/linkforge/linkwatch/internal/fetcher"
	"github.com/linkforge/linkwatch/internal/logger"
	"github.com/linkforge/linkwatch/internal/notify"
	"github.com/linkforge/linkwatch/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

// Deps holds the wired application components for the serve command.
type Deps struct {
	Config           *config.Config
	Logger           logger.Interface
	DB               *sqlx.DB
	BacklinksHandler *api.BacklinksHandler
	CronHandler      *api.CronHandler
	CronRunner       *scheduler.CronRunner
}

// newDeps loads configuration and wires the full dependency graph:
// database, repositories, fetcher, check engine, batch scheduler and
// HTTP handlers.
func newDeps(cfgFile string) (*Deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if migrateErr := database.RunMigrations(cfg.Database); migrateErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", migrateErr)
	}

	backlinkRepo := database.NewBacklinkRepository(db)
	checkLogRepo := database.NewCheckLogRepository(db)

	pageFetcher := fetcher.New(fetcher.Config{
		Timeout:   cfg.Monitor.FetchTimeout,
		UserAgent: cfg.Monitor.UserAgent,
	})

	checkEngine := engine.New(engine.Params{
		Fetcher:   pageFetcher,
		Backlinks: backlinkRepo,
		CheckLogs: checkLogRepo,
		Notifier:  notify.NewLogNotifier(log),
		Logger:    log,
	})

	batch := scheduler.NewBatchScheduler(backlinkRepo, checkEngine, log, scheduler.Config{
		Limit:     cfg.Monitor.BatchLimit,
		Workers:   cfg.Monitor.BatchWorkers,
		WallClock: cfg.Monitor.BatchWallClock,
	})

	var cronRunner *scheduler.CronRunner
	if cfg.Monitor.CronSchedule != "" {
		cronRunner = scheduler.NewCronRunner(batch, log, cfg.Monitor.CronSchedule)
	}

	return &Deps{
		Config:           cfg,
		Logger:           log,
		DB:               db,
		BacklinksHandler: api.NewBacklinksHandler(backlinkRepo, checkLogRepo, checkEngine),
		CronHandler:      api.NewCronHandler(batch, cfg.Server.CronSecret),
		CronRunner:       cronRunner,
	}, nil
}

// Close releases held resources.
func (d *Deps) Close() {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("Failed to close database", "error", err)
		}
	}
}

// shutdownContext returns the context bounding graceful shutdown.
func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), shutdownTimeout)
}
