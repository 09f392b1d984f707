package report

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"interbot/pkg/logger"
	"interbot/pkg/slash"
)

type job struct {
	ctx  context.Context
	err  error
	meta slash.FailureMeta
}

// Async hands reports to a background goroutine so Report never blocks the
// dispatch. Reports arriving while the queue is full are dropped and counted.
type Async struct {
	next    slash.Reporter
	log     *logger.Logger
	queue   chan job
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Uint64
}

// NewAsync wraps next and starts its delivery goroutine.
func NewAsync(next slash.Reporter, queueSize int, log *logger.Logger) *Async {
	if queueSize < 1 {
		queueSize = 1
	}
	a := &Async{
		next:  next,
		log:   log,
		queue: make(chan job, queueSize),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

// Report implements slash.Reporter.
func (a *Async) Report(ctx context.Context, err error, meta slash.FailureMeta) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return
	}
	select {
	case a.queue <- job{ctx: context.WithoutCancel(ctx), err: err, meta: meta}:
	default:
		a.dropped.Add(1)
		a.log.Warn("Failure report dropped, queue full",
			zap.String("dispatch_id", meta.DispatchID),
			zap.String("command", meta.Command),
		)
	}
}

func (a *Async) loop() {
	defer close(a.done)
	for j := range a.queue {
		a.deliver(j)
	}
}

func (a *Async) deliver(j job) {
	defer func() {
		if rec := recover(); rec != nil {
			a.log.Error("Reporter panicked", zap.Any("panic", rec))
		}
	}()
	a.next.Report(j.ctx, j.err, j.meta)
}

// Close stops accepting reports and waits for queued ones until ctx ends.
func (a *Async) Close(ctx context.Context) error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
	})
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns how many reports were discarded.
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}
