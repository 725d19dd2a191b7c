package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// CronRunner triggers the batch scheduler on a fixed cron schedule inside
// the serve process. The HTTP cron endpoint drives the same BatchScheduler,
// so both triggers share one code path.
type CronRunner struct {
	cron  *cron.Cron
	batch *BatchScheduler
	log   Logger
	spec  string
}

// NewCronRunner creates a CronRunner with a standard 5-field cron spec.
func NewCronRunner(batch *BatchScheduler, log Logger, spec string) *CronRunner {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	return &CronRunner{
		cron:  c,
		batch: batch,
		log:   log,
		spec:  spec,
	}
}

// Start registers the batch job and starts the cron loop.
func (r *CronRunner) Start() error {
	_, err := r.cron.AddFunc(r.spec, func() {
		result, runErr := r.batch.RunBatch(context.Background())
		if runErr != nil {
			r.log.Error("scheduled batch failed", "error", runErr.Error())
			return
		}

		r.log.Info("scheduled batch completed",
			"checked", result.Checked,
			"errored", result.Errored,
			"alerts", result.AlertsRaised,
		)
	})
	if err != nil {
		return fmt.Errorf("register batch schedule %q: %w", r.spec, err)
	}

	r.cron.Start()
	r.log.Info("batch cron started", "schedule", r.spec)

	return nil
}

// Stop stops the cron loop and waits for a running batch to finish.
func (r *CronRunner) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("batch cron stopped")
}
