// Package monitor implements the one-shot batch monitoring command.
package monitor

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkforge/linkwatch/internal/config"
	"github.com/linkforge/linkwatch/internal/database"
	"github.com/linkforge/linkwatch/internal/engine"
	"github.com/linkforge/linkwatch/internal/fetcher"
	"github.com/linkforge/linkwatch/internal/logger"
	"github.com/linkforge/linkwatch/internal/notify"
	"github.com/linkforge/linkwatch/internal/scheduler"
)

// Command returns the monitor cobra command. It runs a single monitoring
// batch against the backlinks most overdue for a check and exits, which
// suits external schedulers such as systemd timers or Kubernetes CronJobs.
func Command(cfgFile *string) *cobra.Command {
	var (
		limit   int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run one monitoring batch and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), *cfgFile, limit, workers)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "max backlinks to check this batch (0 uses the configured default)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent checks (0 uses the configured default)")

	return cmd
}

func runBatch(ctx context.Context, cfgFile string, limit, workers int) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	backlinkRepo := database.NewBacklinkRepository(db)
	checkLogRepo := database.NewCheckLogRepository(db)

	checkEngine := engine.New(engine.Params{
		Fetcher: fetcher.New(fetcher.Config{
			Timeout:   cfg.Monitor.FetchTimeout,
			UserAgent: cfg.Monitor.UserAgent,
		}),
		Backlinks: backlinkRepo,
		CheckLogs: checkLogRepo,
		Notifier:  notify.NewLogNotifier(log),
		Logger:    log,
	})

	batchCfg := scheduler.Config{
		Limit:     cfg.Monitor.BatchLimit,
		Workers:   cfg.Monitor.BatchWorkers,
		WallClock: cfg.Monitor.BatchWallClock,
	}
	if limit > 0 {
		batchCfg.Limit = limit
	}
	if workers > 0 {
		batchCfg.Workers = workers
	}

	batch := scheduler.NewBatchScheduler(backlinkRepo, checkEngine, log, batchCfg)

	result, err := batch.RunBatch(ctx)
	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}

	log.Info("monitoring batch finished",
		"total", result.Total,
		"checked", result.Checked,
		"errored", result.Errored,
		"alerts", result.AlertsRaised,
	)

	return nil
}
