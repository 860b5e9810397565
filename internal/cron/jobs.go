package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PendingCounter counts proposals awaiting operator review. ledger.Store
// implements it.
type PendingCounter interface {
	CountPending(ctx context.Context, olderThan time.Duration) (int, error)
}

// PendingGauge receives the latest pending count. telemetry.Metrics
// implements it.
type PendingGauge interface {
	SetPendingProposals(n int)
}

// DefaultReviewAge is how long a proposal may wait before the reminder
// job starts warning about it.
const DefaultReviewAge = 24 * time.Hour

// PendingReviewJob counts pending proposals, publishes the count and logs a
// warning while any have waited longer than MaxAge.
type PendingReviewJob struct {
	Ledger       PendingCounter
	Gauge        PendingGauge // optional
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"
}

// Compile-time interface check.
var _ Job = (*PendingReviewJob)(nil)

// Name implements Job.
func (j *PendingReviewJob) Name() string {
	return "pending_review_reminder"
}

// Schedule implements Job.
func (j *PendingReviewJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run counts pending proposals and warns about stale ones.
func (j *PendingReviewJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: pending review cancelled: %w", ctx.Err())
	}

	total, err := j.Ledger.CountPending(ctx, 0)
	if err != nil {
		return fmt.Errorf("cron: count pending proposals: %w", err)
	}
	if j.Gauge != nil {
		j.Gauge.SetPendingProposals(total)
	}

	maxAge := j.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultReviewAge
	}
	stale, err := j.Ledger.CountPending(ctx, maxAge)
	if err != nil {
		return fmt.Errorf("cron: count stale proposals: %w", err)
	}

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if stale > 0 {
		logger.Warn("cron: proposals awaiting operator review", "pending", total, "stale", stale, "max_age", maxAge)
	} else {
		logger.Debug("cron: pending review check", "pending", total)
	}
	return nil
}
