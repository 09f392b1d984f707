package cron

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"interbot/pkg/bus"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/state"
)

// StatsJobName names the stats persistence job.
const StatsJobName = "stats-snapshot"

// StatsPersister saves dispatch counters so they survive restarts.
type StatsPersister struct {
	stats *slash.Stats
	kv    state.KV
	bus   bus.Bus
	log   *logger.Logger
}

// NewStatsPersister creates a persister. b may be nil.
func NewStatsPersister(stats *slash.Stats, kv state.KV, b bus.Bus, log *logger.Logger) *StatsPersister {
	return &StatsPersister{stats: stats, kv: kv, bus: b, log: log}
}

// Restore folds the stored snapshot into the live counters.
func (p *StatsPersister) Restore(ctx context.Context) error {
	var snap slash.StatsSnapshot
	ok, err := p.kv.Get(ctx, state.StatsKey, &snap)
	if err != nil {
		return fmt.Errorf("loading stats snapshot: %w", err)
	}
	if !ok {
		return nil
	}
	p.stats.Restore(snap)
	p.log.Info("Restored dispatch stats",
		zap.Uint64("total", snap.Total),
		zap.Time("since", snap.Since))
	return nil
}

// Save persists the current counters and publishes them on the bus.
func (p *StatsPersister) Save(ctx context.Context) error {
	snap := p.stats.Snapshot()
	if err := p.kv.Set(ctx, state.StatsKey, snap); err != nil {
		return fmt.Errorf("saving stats snapshot: %w", err)
	}
	if p.bus == nil {
		return nil
	}
	msg, err := bus.NewMessage(bus.TopicStats, "cron", snap)
	if err != nil {
		return err
	}
	if err := p.bus.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish stats snapshot", zap.Error(err))
	}
	return nil
}
