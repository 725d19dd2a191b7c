// Package scheduler runs bounded batches of backlink monitoring checks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linkforge/linkwatch/internal/domain"
	"github.com/linkforge/linkwatch/internal/engine"
)

const (
	// DefaultBatchLimit bounds how many backlinks one batch selects.
	DefaultBatchLimit = 50
	// DefaultWallClock bounds one batch's total run time.
	DefaultWallClock = 4 * time.Minute
	// maxWorkers caps outbound fetch concurrency for politeness against
	// third-party sites.
	maxWorkers = 8
)

// BacklinkSource selects backlinks eligible for monitoring.
type BacklinkSource interface {
	ListDueForMonitoring(ctx context.Context, limit int) ([]*domain.Backlink, error)
}

// Checker runs one monitoring check against a backlink.
type Checker interface {
	Monitor(ctx context.Context, bl *domain.Backlink) (*engine.Outcome, error)
}

// Logger provides structured logging.
type Logger interface {
	Info(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// Config configures a BatchScheduler.
type Config struct {
	Limit     int
	Workers   int
	WallClock time.Duration
}

// Result summarizes one batch run.
type Result struct {
	Total        int `json:"total"`
	Checked      int `json:"checked"`
	Errored      int `json:"errors"`
	AlertsRaised int `json:"alerts"`
}

// BatchScheduler iterates a bounded batch of due backlinks, invoking the
// monitoring engine per item inside a wall-clock budget. One failing item
// never aborts the batch.
type BatchScheduler struct {
	source    BacklinkSource
	checker   Checker
	log       Logger
	limit     int
	workers   int
	wallClock time.Duration
}

// NewBatchScheduler creates a BatchScheduler. Zero config fields fall back
// to defaults; worker count is clamped to the politeness cap. One worker,
// the default, makes the batch strictly sequential: a single outbound fetch
// in flight at a time.
func NewBatchScheduler(source BacklinkSource, checker Checker, log Logger, cfg Config) *BatchScheduler {
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	wallClock := cfg.WallClock
	if wallClock <= 0 {
		wallClock = DefaultWallClock
	}

	return &BatchScheduler{
		source:    source,
		checker:   checker,
		log:       log,
		limit:     limit,
		workers:   workers,
		wallClock: wallClock,
	}
}

// RunBatch selects due backlinks and monitors each one. Items not started
// when the wall-clock budget expires remain eligible for the next run, since
// selection by last_checked_at ascending deprioritizes anything already
// attempted. Safe to re-trigger: each backlink id is handed to exactly one
// worker, and every update is a single conditional write keyed by id.
func (s *BatchScheduler) RunBatch(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.wallClock)
	defer cancel()

	due, err := s.source.ListDueForMonitoring(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list due backlinks: %w", err)
	}

	result := &Result{Total: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	items := make(chan *domain.Backlink)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for bl := range items {
				checked, alerts := s.monitorOne(ctx, bl)

				mu.Lock()
				if checked {
					result.Checked++
					result.AlertsRaised += alerts
				} else {
					result.Errored++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, bl := range due {
		select {
		case <-ctx.Done():
			break feed
		case items <- bl:
		}
	}
	close(items)

	wg.Wait()

	s.log.Info("monitoring batch finished",
		"total", result.Total,
		"checked", result.Checked,
		"errored", result.Errored,
		"alerts", result.AlertsRaised,
	)

	return result, nil
}

// monitorOne checks a single backlink, absorbing errors and panics so the
// batch continues. Returns whether the check completed and how many alerts
// it raised.
func (s *BatchScheduler) monitorOne(ctx context.Context, bl *domain.Backlink) (checked bool, alerts int) {
	defer func() {
		if r := recover(); r != nil {
			checked = false
			s.log.Error("monitor panicked",
				"backlink_id", bl.ID,
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()

	outcome, err := s.checker.Monitor(ctx, bl)
	if err != nil {
		s.log.Error("monitor failed",
			"backlink_id", bl.ID,
			"source_url", bl.SourceURL,
			"error", err.Error(),
		)
		return false, 0
	}

	return true, len(outcome.Alerts)
}
