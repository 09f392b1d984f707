// Package workers provides a bounded pool that runs dispatches off the
// gateway's event goroutine.
package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"interbot/pkg/logger"
)

var (
	// ErrPoolClosed is returned by Submit after Stop.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrQueueFull is returned by Submit when the queue has no room.
	ErrQueueFull = errors.New("worker pool queue is full")
)

// Task is one unit of work.
type Task func()

// Pool runs tasks on a fixed number of goroutines fed by a bounded queue.
type Pool struct {
	log     *logger.Logger
	workers int
	queue   chan Task

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup

	submitted atomic.Uint64
	completed atomic.Uint64
	rejected  atomic.Uint64
	panics    atomic.Uint64
}

// New creates a pool. Values below one are raised to one worker and an
// unbuffered queue respectively.
func New(log *logger.Logger, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Pool{
		log:     log,
		workers: workers,
		queue:   make(chan Task, queueSize),
	}
}

// Start launches the workers.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	if p.started {
		return fmt.Errorf("worker pool already started")
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
	p.log.Info("Worker pool started",
		zap.Int("workers", p.workers),
		zap.Int("queue", cap(p.queue)),
	)
	return nil
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.rejected.Add(1)
		return ErrPoolClosed
	}
	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return nil
	default:
		p.rejected.Add(1)
		return ErrQueueFull
	}
}

// Stop refuses new tasks and waits for queued and running ones until ctx
// ends. Tasks still running after that are abandoned, not interrupted.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("Worker pool drained", zap.Uint64("completed", p.completed.Load()))
		return nil
	case <-ctx.Done():
		pending := p.submitted.Load() - p.completed.Load()
		p.log.Warn("Worker pool drain timed out", zap.Uint64("pending", pending))
		return fmt.Errorf("drain worker pool: %d task(s) pending: %w", pending, ctx.Err())
	}
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for task := range p.queue {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	defer p.completed.Add(1)
	defer func() {
		if rec := recover(); rec != nil {
			p.panics.Add(1)
			p.log.Error("Task panicked",
				zap.Int("worker", id),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	task()
}

// Metrics returns pool counters.
func (p *Pool) Metrics() map[string]uint64 {
	return map[string]uint64{
		"submitted": p.submitted.Load(),
		"completed": p.completed.Load(),
		"rejected":  p.rejected.Load(),
		"panics":    p.panics.Load(),
		"queued":    uint64(len(p.queue)),
	}
}
