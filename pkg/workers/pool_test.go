package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsEverySubmittedTask(t *testing.T) {
	pool := New(nil, 4, 32)
	if err := pool.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			ran.Add(1)
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	wg.Wait()

	if err := pool.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if ran.Load() != 20 {
		t.Fatalf("expected 20 tasks, ran %d", ran.Load())
	}
}

func TestPool_QueueFull(t *testing.T) {
	pool := New(nil, 1, 1)
	if err := pool.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	release := make(chan struct{})
	started := make(chan struct{})
	_ = pool.Submit(func() {
		close(started)
		<-release
	})
	<-started
	if err := pool.Submit(func() {}); err != nil {
		t.Fatalf("expected queue slot, got %v", err)
	}
	if err := pool.Submit(func() {}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(release)
	_ = pool.Stop(context.Background())
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := New(nil, 1, 1)
	_ = pool.Start()
	_ = pool.Stop(context.Background())

	if err := pool.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_StopDrainsQueuedTasks(t *testing.T) {
	pool := New(nil, 1, 8)
	_ = pool.Start()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		_ = pool.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
		})
	}
	if err := pool.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if ran.Load() != 5 {
		t.Fatalf("expected queued tasks to finish, ran %d", ran.Load())
	}
}

func TestPool_StopHonorsDrainTimeout(t *testing.T) {
	pool := New(nil, 1, 1)
	_ = pool.Start()
	release := make(chan struct{})
	defer close(release)
	_ = pool.Submit(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	pool := New(nil, 1, 4)
	_ = pool.Start()

	done := make(chan struct{})
	_ = pool.Submit(func() { panic("boom") })
	_ = pool.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not survive panic")
	}
	_ = pool.Stop(context.Background())
	if pool.Metrics()["panics"] != 1 {
		t.Fatalf("expected one panic counted, got %v", pool.Metrics())
	}
}
