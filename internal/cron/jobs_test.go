package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type testCounter struct {
	mu    sync.Mutex
	ages  []time.Duration
	count func(olderThan time.Duration) (int, error)
}

func (c *testCounter) CountPending(_ context.Context, olderThan time.Duration) (int, error) {
	c.mu.Lock()
	c.ages = append(c.ages, olderThan)
	c.mu.Unlock()
	return c.count(olderThan)
}

type testGauge struct {
	value int
	set   bool
}

func (g *testGauge) SetPendingProposals(n int) {
	g.value = n
	g.set = true
}

func TestPendingReviewJob_NameAndSchedule(t *testing.T) {
	t.Parallel()

	j := &PendingReviewJob{}
	if j.Name() != "pending_review_reminder" {
		t.Errorf("name = %q", j.Name())
	}
	if j.Schedule() != "0 * * * *" {
		t.Errorf("schedule = %q", j.Schedule())
	}

	j.ScheduleExpr = "*/15 * * * *"
	if j.Schedule() != "*/15 * * * *" {
		t.Errorf("schedule override = %q", j.Schedule())
	}
}

func TestPendingReviewJob_Run(t *testing.T) {
	t.Parallel()

	counter := &testCounter{count: func(olderThan time.Duration) (int, error) {
		if olderThan == 0 {
			return 5, nil
		}
		return 2, nil
	}}
	gauge := &testGauge{}

	j := &PendingReviewJob{Ledger: counter, Gauge: gauge, MaxAge: 6 * time.Hour, Logger: slog.Default()}
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !gauge.set || gauge.value != 5 {
		t.Errorf("gauge = %+v, want 5", gauge)
	}
	if len(counter.ages) != 2 || counter.ages[0] != 0 || counter.ages[1] != 6*time.Hour {
		t.Errorf("CountPending ages = %v", counter.ages)
	}
}

func TestPendingReviewJob_DefaultMaxAge(t *testing.T) {
	t.Parallel()

	counter := &testCounter{count: func(time.Duration) (int, error) { return 0, nil }}
	j := &PendingReviewJob{Ledger: counter}
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if counter.ages[1] != DefaultReviewAge {
		t.Errorf("max age = %v, want %v", counter.ages[1], DefaultReviewAge)
	}
}

func TestPendingReviewJob_LedgerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("database is locked")
	counter := &testCounter{count: func(time.Duration) (int, error) { return 0, boom }}
	j := &PendingReviewJob{Ledger: counter, Logger: slog.Default()}

	if err := j.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped ledger error, got %v", err)
	}
}

func TestPendingReviewJob_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j := &PendingReviewJob{Ledger: &testCounter{}, Logger: slog.Default()}
	if err := j.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
