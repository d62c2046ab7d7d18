package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ent0n29/remindbot/internal/bot"
	"github.com/ent0n29/remindbot/internal/config"
	"github.com/ent0n29/remindbot/internal/httpapi"
	"github.com/ent0n29/remindbot/internal/observability"
	"github.com/ent0n29/remindbot/internal/scheduler"
	"github.com/ent0n29/remindbot/internal/session"
	"github.com/ent0n29/remindbot/internal/tasks"
	"github.com/ent0n29/remindbot/internal/texts"
)

type BuildResult struct {
	Config    config.Config
	API       *httpapi.Server
	Bot       *bot.Bot
	Hub       *httpapi.Hub
	Scheduler *scheduler.Scheduler
	Sessions  *session.Manager
	Registry  *tasks.Registry
	Metrics   *observability.Metrics

	// Cleanup stops the scheduler and waits for in-flight reminders.
	Cleanup func() error
}

// Build wires the service graph and starts the reminder scheduler. The
// scheduler stops when ctx is cancelled or Cleanup is called.
func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	loc := cfg.Location
	if loc == nil {
		var err error
		loc, err = config.ParseUTCOffset(cfg.UTCOffset)
		if err != nil {
			return nil, fmt.Errorf("utc offset: %w", err)
		}
		cfg.Location = loc
	}

	catalog, err := texts.Load(cfg.TextsPath)
	if err != nil {
		return nil, fmt.Errorf("texts init failed: %w", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	now := func() time.Time { return time.Now().In(loc) }

	sessions := session.NewManager()
	sessions.SetChangeHook(metrics.SetActiveDialogs)
	registry := tasks.NewRegistry(now)
	sched := scheduler.New(scheduler.WithClock(now), scheduler.WithMetrics(metrics))
	hub := httpapi.NewHub(cfg.OutboxLimit, cfg.SendBuffer, metrics)

	b, err := bot.New(bot.Config{
		Location: loc,
		Texts:    catalog,
		Now:      now,
	}, bot.Deps{
		Sessions:  sessions,
		Registry:  registry,
		Scheduler: sched,
		Sender:    hub,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("bot init failed: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	sched.Start(runCtx)

	api := httpapi.New(cfg, httpapi.Deps{
		Bot:      b,
		Tasks:    registry,
		Jobs:     sched,
		Sessions: sessions,
		Hub:      hub,
		Metrics:  metrics,
	})

	cleanup := func() error {
		cancel()
		sched.Wait()
		return nil
	}

	return &BuildResult{
		Config:    cfg,
		API:       api,
		Bot:       b,
		Hub:       hub,
		Scheduler: sched,
		Sessions:  sessions,
		Registry:  registry,
		Metrics:   metrics,
		Cleanup:   cleanup,
	}, nil
}
