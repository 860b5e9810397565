package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flemzord/stagewright/internal/cron"
	"github.com/flemzord/stagewright/internal/gateway"
	"github.com/flemzord/stagewright/internal/reload"
)

const shutdownTimeout = 30 * time.Second

// NewGateway builds the HTTP gateway over the app's registry.
func (a *App) NewGateway() (*gateway.Gateway, error) {
	deps := gateway.Deps{
		Registry:    a.Registry,
		AuditLogger: a.AuditLogger,
		RateLimiter: a.RateLimiter,
		Logger:      a.Logger,
		Version:     a.Version,
	}
	if a.Ledger != nil {
		deps.Ledger = a.Ledger
	}
	if a.Config.Telemetry.Metrics.IsEnabled() {
		deps.MetricsHandler = a.Metrics.Handler()
	}
	return gateway.New(a.Config.Gateway, deps)
}

// NewScheduler returns the maintenance scheduler, or nil when cron is
// disabled or there is no ledger to inspect.
func (a *App) NewScheduler() (*cron.Scheduler, *cron.PendingReviewJob, error) {
	if !a.Config.Cron.IsEnabled() || a.Ledger == nil {
		return nil, nil, nil
	}

	logger := a.Logger.With("component", "cron")
	job := &cron.PendingReviewJob{
		Ledger:       a.Ledger,
		Gauge:        a.Metrics,
		MaxAge:       a.Config.Cron.PendingReview.MaxAge,
		Logger:       logger,
		ScheduleExpr: a.Config.Cron.PendingReview.Schedule,
	}
	sched := cron.NewScheduler(logger)
	if err := sched.RegisterJob(job); err != nil {
		return nil, nil, err
	}
	return sched, job, nil
}

// Serve runs the gateway and the scheduler until ctx is cancelled or a
// SIGINT/SIGTERM arrives. SIGHUP and edits to the config file reload the
// security policy.
func (a *App) Serve(ctx context.Context) error {
	gw, err := a.NewGateway()
	if err != nil {
		return err
	}

	sched, job, err := a.NewScheduler()
	if err != nil {
		return err
	}
	if sched != nil {
		if err := job.Run(ctx); err != nil {
			a.Logger.Warn("initial pending review check failed", "error", err)
		}
		if err := sched.Start(); err != nil {
			return err
		}
	}

	if err := gw.Start(); err != nil {
		a.stopScheduler(sched)
		return err
	}

	reloader := reload.NewHandler(a.ConfigPath, a.Gate, a.Registry, a.Logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()

	var events <-chan reload.Event
	if a.ConfigPath != "" {
		watcher := reload.NewWatcher(reload.WatcherConfig{ConfigPath: a.ConfigPath})
		watcher.Start(watchCtx)
		defer watcher.Stop()
		events = watcher.Events()
	}

	a.Logger.Info("stagewright serving", "addr", gw.Addr(), "tools", a.Registry.Names())

	for {
		select {
		case <-ctx.Done():
			return a.shutdown(gw, sched, "context done")
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				a.Logger.Info("SIGHUP received, reloading security policy")
				if err := reloader.HandleReload(watchCtx); err != nil {
					a.Logger.Error("reload failed", "error", err)
				}
				continue
			}
			return a.shutdown(gw, sched, sig.String())
		case evt := <-events:
			a.Logger.Info("config file changed, reloading security policy", "path", evt.ConfigPath)
			if err := reloader.HandleReload(watchCtx); err != nil {
				a.Logger.Error("reload failed", "error", err)
			}
		}
	}
}

func (a *App) shutdown(gw *gateway.Gateway, sched *cron.Scheduler, reason string) error {
	a.Logger.Info("shutting down", "reason", reason)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if stopErr := gw.Stop(ctx); stopErr != nil {
		err = fmt.Errorf("app: stopping gateway: %w", stopErr)
	}
	a.stopScheduler(sched)

	a.Logger.Info("shutdown complete")
	return err
}

func (a *App) stopScheduler(sched *cron.Scheduler) {
	if sched == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = sched.Stop(ctx)
}
