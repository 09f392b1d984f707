package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"interbot/pkg/bus"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
)

var errStats = errors.New("stats exploded")

func sampleMeta() slash.FailureMeta {
	return slash.FailureMeta{
		DispatchID: "d-1",
		Command:    "admin",
		Group:      "user",
		SubCommand: "ban",
		ActorID:    "u-1",
		GuildID:    "g-1",
		ChannelID:  "c-1",
	}
}

func TestNewFailure(t *testing.T) {
	f := NewFailure(errStats, sampleMeta())
	if f.Error != "stats exploded" || f.Command != "admin" || f.At.IsZero() || f.Host == "" {
		t.Fatalf("unexpected failure %+v", f)
	}
	if f.Target() != "admin user ban" {
		t.Fatalf("unexpected target %q", f.Target())
	}
}

func TestBusReporterPublishesFailure(t *testing.T) {
	b := bus.NewLocalBus(logger.NewNop(), 4)
	_ = b.Start()

	received := make(chan Failure, 1)
	b.Subscribe(bus.TopicFailure, func(ctx context.Context, msg *bus.Message) error {
		var f Failure
		if err := msg.Decode(&f); err != nil {
			return err
		}
		received <- f
		return nil
	})

	NewBusReporter(b, "test", logger.NewNop()).Report(context.Background(), errStats, sampleMeta())
	_ = b.Stop()

	select {
	case f := <-received:
		if f.DispatchID != "d-1" || f.Error != "stats exploded" {
			t.Fatalf("unexpected failure %+v", f)
		}
	default:
		t.Fatal("expected failure on the bus")
	}
}

func TestMultiCallsEveryReporterOnce(t *testing.T) {
	var calls []string
	m := Multi{
		Func(func(context.Context, error, slash.FailureMeta) { calls = append(calls, "a") }),
		nil,
		Func(func(context.Context, error, slash.FailureMeta) { calls = append(calls, "b") }),
	}
	m.Report(context.Background(), errStats, sampleMeta())
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestAsyncDeliversAndDrainsOnClose(t *testing.T) {
	var mu sync.Mutex
	var got []string
	a := NewAsync(Func(func(_ context.Context, _ error, meta slash.FailureMeta) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		got = append(got, meta.DispatchID)
		mu.Unlock()
	}), 8, logger.NewNop())

	for _, id := range []string{"1", "2", "3"} {
		meta := sampleMeta()
		meta.DispatchID = id
		a.Report(context.Background(), errStats, meta)
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("expected 3 deliveries, got %v", got)
	}
}

func TestAsyncDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	a := NewAsync(Func(func(context.Context, error, slash.FailureMeta) { <-release }), 1, logger.NewNop())

	// one in flight, one queued, the rest dropped
	for i := 0; i < 5; i++ {
		a.Report(context.Background(), errStats, sampleMeta())
		time.Sleep(time.Millisecond)
	}
	close(release)
	_ = a.Close(context.Background())

	if a.Dropped() == 0 {
		t.Fatal("expected dropped reports")
	}
}

func TestAsyncReportNeverBlocksAfterClose(t *testing.T) {
	a := NewAsync(Func(func(context.Context, error, slash.FailureMeta) {}), 1, logger.NewNop())
	_ = a.Close(context.Background())

	done := make(chan struct{})
	go func() {
		a.Report(context.Background(), errStats, sampleMeta())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report blocked after Close")
	}
}

func TestAsyncSurvivesPanickingReporter(t *testing.T) {
	delivered := make(chan struct{}, 2)
	first := true
	a := NewAsync(Func(func(context.Context, error, slash.FailureMeta) {
		if first {
			first = false
			panic("reporter exploded")
		}
		delivered <- struct{}{}
	}), 4, logger.NewNop())

	a.Report(context.Background(), errStats, sampleMeta())
	a.Report(context.Background(), errStats, sampleMeta())
	_ = a.Close(context.Background())

	if len(delivered) != 1 {
		t.Fatalf("expected second report to be delivered")
	}
}
