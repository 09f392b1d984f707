package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"interbot/pkg/logger"
)

// LocalBus is an in-process bus using a buffered Go channel.
type LocalBus struct {
	log      *logger.Logger
	handlers map[Topic][]Handler
	mu       sync.RWMutex

	queue chan *Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	published   uint64
	delivered   uint64
	errors      uint64
	metricsLock sync.RWMutex
}

// NewLocalBus creates a new local bus.
func NewLocalBus(log *logger.Logger, bufferSize int) *LocalBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &LocalBus{
		log:      log,
		handlers: make(map[Topic][]Handler),
		queue:    make(chan *Message, bufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the processing loop.
func (b *LocalBus) Start() error {
	b.log.Info("Starting local bus")

	b.wg.Add(1)
	go b.process()

	return nil
}

// Stop delivers what is already queued, then stops.
func (b *LocalBus) Stop() error {
	b.log.Info("Stopping local bus")

	b.cancel()
	b.wg.Wait()

	b.log.Info("Local bus stopped")
	return nil
}

// Subscribe registers a handler for a topic.
func (b *LocalBus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], handler)
	b.log.Debug("Subscribed handler", zap.String("topic", string(topic)))
}

// Unsubscribe removes all handlers for a topic.
func (b *LocalBus) Unsubscribe(topic Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers, topic)
}

// Publish enqueues a message.
func (b *LocalBus) Publish(ctx context.Context, msg *Message) error {
	if b.ctx.Err() != nil {
		return fmt.Errorf("bus is shutting down")
	}
	select {
	case b.queue <- msg:
		b.incr(&b.published)
		return nil
	case <-b.ctx.Done():
		return fmt.Errorf("bus is shutting down")
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout publishing %s message", msg.Topic)
	}
}

func (b *LocalBus) process() {
	defer b.wg.Done()

	for {
		select {
		case msg := <-b.queue:
			b.deliver(msg)
		case <-b.ctx.Done():
			for {
				select {
				case msg := <-b.queue:
					b.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (b *LocalBus) deliver(msg *Message) {
	b.mu.RLock()
	handlers := b.handlers[msg.Topic]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("No subscribers for topic",
			zap.String("topic", string(msg.Topic)),
			zap.String("message_id", msg.ID))
		return
	}

	for _, handler := range handlers {
		if err := handler(context.Background(), msg); err != nil {
			b.incr(&b.errors)
			b.log.Error("Handler error",
				zap.String("topic", string(msg.Topic)),
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}
		b.incr(&b.delivered)
	}
}

// GetMetrics returns current bus metrics.
func (b *LocalBus) GetMetrics() map[string]uint64 {
	b.metricsLock.RLock()
	defer b.metricsLock.RUnlock()

	return map[string]uint64{
		"published": b.published,
		"delivered": b.delivered,
		"errors":    b.errors,
	}
}

func (b *LocalBus) incr(counter *uint64) {
	b.metricsLock.Lock()
	*counter++
	b.metricsLock.Unlock()
}
