package cron

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"interbot/pkg/bus"
	"interbot/pkg/config"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/state"
)

// Module is the fx module for cron.
var Module = fx.Module("cron",
	fx.Provide(
		NewManager,
		ProvideStatsPersister,
	),
	fx.Invoke(scheduleStats),
)

// NewManager creates a new cron manager for fx.
func NewManager(lc fx.Lifecycle, log *logger.Logger) *Manager {
	manager := New(log.Named("cron"), time.Minute)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return manager.Start()
		},
		OnStop: func(ctx context.Context) error {
			return manager.Stop(ctx)
		},
	})

	return manager
}

// ProvideStatsPersister wires stats persistence to the state store and bus.
func ProvideStatsPersister(stats *slash.Stats, kv state.KV, b bus.Bus, log *logger.Logger) *StatsPersister {
	return NewStatsPersister(stats, kv, b, log.Named("stats"))
}

// scheduleStats restores counters before the gateway opens, snapshots them
// on schedule and once more on shutdown.
func scheduleStats(lc fx.Lifecycle, cfg *config.Config, m *Manager, p *StatsPersister, log *logger.Logger) error {
	if err := p.Restore(context.Background()); err != nil {
		log.Warn("Failed to restore stats", zap.Error(err))
	}
	if !cfg.Scheduler.Enabled {
		return nil
	}
	if err := m.AddJob(StatsJobName, cfg.Scheduler.StatsSnapshot, p.Save); err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return p.Save(ctx)
		},
	})
	return nil
}
