package scheduler

import (
	"context"
	"time"

	billingdomain "github.com/milkroute/milkroute/internal/billing/domain"
	"go.uber.org/zap"
)

// Runner drives the scheduler on a fixed interval and sweeps overdue
// invoices after each pass.
type Runner struct {
	scheduler *Scheduler
	billing   billingdomain.Service
	log       *zap.Logger
	interval  time.Duration
	mode      Mode
}

func NewRunner(scheduler *Scheduler, billing billingdomain.Service, log *zap.Logger) (*Runner, error) {
	interval, err := time.ParseDuration(scheduler.cfg.RunInterval)
	if err != nil || interval <= 0 {
		interval = 24 * time.Hour
	}
	mode, err := ParseMode(scheduler.cfg.RunMode)
	if err != nil {
		return nil, err
	}
	return &Runner{
		scheduler: scheduler,
		billing:   billing,
		log:       log.Named("scheduler.runner"),
		interval:  interval,
		mode:      mode,
	}, nil
}

// RunForever ticks until ctx is cancelled. Each tick runs the scheduler for
// the current date, then marks invoices past due.
func (r *Runner) RunForever(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	now := r.scheduler.clock.Now()
	if _, err := r.scheduler.Run(ctx, now, r.mode); err != nil {
		r.log.Error("scheduler run failed", zap.Error(err))
	}
	if _, err := r.billing.MarkOverdue(ctx, now); err != nil {
		r.log.Error("overdue sweep failed", zap.Error(err))
	}
}
