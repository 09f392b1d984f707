package cron

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"interbot/pkg/bus"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/state"
)

func TestAddJobValidatesSchedule(t *testing.T) {
	m := New(logger.NewNop(), time.Second)

	if err := m.AddJob("bad", "not a schedule", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected invalid schedule to be rejected")
	}
	if err := m.AddJob("snap", "@every 5m", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := m.AddJob("snap", "@every 1m", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected duplicate job name to be rejected")
	}

	jobs := m.Jobs()
	if len(jobs) != 1 || jobs[0].Name != "snap" || jobs[0].Schedule != "@every 5m" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}

	if err := m.RemoveJob("snap"); err != nil {
		t.Fatalf("RemoveJob: %v", err)
	}
	if err := m.RemoveJob("snap"); err == nil {
		t.Fatal("expected removing a missing job to fail")
	}
}

func TestRunNowRecordsResult(t *testing.T) {
	m := New(logger.NewNop(), time.Second)
	fail := errors.New("disk full")
	if err := m.AddJob("snap", "@every 1h", func(context.Context) error { return fail }); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	m.RunNow("snap", func(context.Context) error { return fail })
	jobs := m.Jobs()
	if jobs[0].RunCount != 1 || jobs[0].LastSuccess || jobs[0].LastError != "disk full" {
		t.Fatalf("unexpected job state: %+v", jobs[0])
	}

	m.RunNow("snap", func(context.Context) error { return nil })
	jobs = m.Jobs()
	if jobs[0].RunCount != 2 || !jobs[0].LastSuccess || jobs[0].LastError != "" {
		t.Fatalf("unexpected job state: %+v", jobs[0])
	}
}

func TestScheduledJobRuns(t *testing.T) {
	m := New(logger.NewNop(), time.Second)
	ran := make(chan struct{}, 1)
	if err := m.AddJob("tick", "@every 1s", func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("expected job to run")
	}
}

type capturingBus struct {
	mu       sync.Mutex
	messages []*bus.Message
}

func (b *capturingBus) Start() error                          { return nil }
func (b *capturingBus) Stop() error                           { return nil }
func (b *capturingBus) Subscribe(bus.Topic, bus.Handler)      {}
func (b *capturingBus) Unsubscribe(bus.Topic)                 {}
func (b *capturingBus) GetMetrics() map[string]uint64         { return nil }
func (b *capturingBus) Publish(_ context.Context, msg *bus.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

func TestStatsPersisterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	kv, err := state.NewFileStore(logger.NewNop(), &state.FileStoreConfig{FilePath: path})
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer kv.Close()
	ctx := context.Background()

	before := slash.NewStats()
	before.Record("ping", slash.OutcomeCompleted)
	before.Record("ping", slash.OutcomeCompleted)
	before.Record("admin", slash.OutcomeFailed)

	b := &capturingBus{}
	if err := NewStatsPersister(before, kv, b, logger.NewNop()).Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(b.messages) != 1 || b.messages[0].Topic != bus.TopicStats {
		t.Fatalf("expected one stats message, got %+v", b.messages)
	}

	after := slash.NewStats()
	after.Record("ping", slash.OutcomeCompleted)
	if err := NewStatsPersister(after, kv, nil, logger.NewNop()).Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	snap := after.Snapshot()
	if snap.Total != 4 || snap.Commands["ping"] != 3 || snap.Failures["admin"] != 1 {
		t.Fatalf("unexpected restored snapshot: %+v", snap)
	}
}

func TestStatsPersisterRestoreEmpty(t *testing.T) {
	kv, err := state.NewFileStore(logger.NewNop(), &state.FileStoreConfig{
		FilePath: filepath.Join(t.TempDir(), "state.json"),
	})
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer kv.Close()

	stats := slash.NewStats()
	if err := NewStatsPersister(stats, kv, nil, logger.NewNop()).Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if stats.Snapshot().Total != 0 {
		t.Fatal("expected empty stats")
	}
}
