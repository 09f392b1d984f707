package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"interbot/pkg/logger"
)

// RedisBus is a Redis pub/sub bus. Every instance subscribed to the same
// prefix sees every message, so several bot processes can share one alert sink.
type RedisBus struct {
	log    *logger.Logger
	client *redis.Client
	prefix string

	handlers map[Topic][]Handler
	mu       sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pubsub *redis.PubSub

	published   uint64
	delivered   uint64
	errors      uint64
	metricsLock sync.RWMutex
}

// RedisBusConfig configures the Redis bus.
type RedisBusConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisBus creates a Redis bus and verifies the connection.
func NewRedisBus(log *logger.Logger, cfg *RedisBusConfig) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return newRedisBus(log, client, cfg.Prefix), nil
}

func newRedisBus(log *logger.Logger, client *redis.Client, prefix string) *RedisBus {
	if prefix == "" {
		prefix = "interbot:bus:"
	}
	ctx, cancel := context.WithCancel(context.Background())

	log.Info("Redis bus initialized", zap.String("prefix", prefix))

	return &RedisBus{
		log:      log,
		client:   client,
		prefix:   prefix,
		handlers: make(map[Topic][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to every topic under the prefix.
func (b *RedisBus) Start() error {
	b.log.Info("Starting Redis bus")

	b.pubsub = b.client.PSubscribe(b.ctx, b.prefix+"*")
	// Wait for the subscription confirmation so early publishes are not lost.
	if _, err := b.pubsub.Receive(b.ctx); err != nil {
		return fmt.Errorf("subscribing to %s*: %w", b.prefix, err)
	}

	b.wg.Add(1)
	go b.process()

	return nil
}

// Stop unsubscribes and closes the client.
func (b *RedisBus) Stop() error {
	b.log.Info("Stopping Redis bus")

	b.cancel()
	if b.pubsub != nil {
		_ = b.pubsub.Close()
	}
	b.wg.Wait()

	return b.client.Close()
}

// Subscribe registers a handler for a topic.
func (b *RedisBus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], handler)
	b.log.Debug("Subscribed handler", zap.String("topic", string(topic)))
}

// Unsubscribe removes all handlers for a topic.
func (b *RedisBus) Unsubscribe(topic Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers, topic)
}

// Publish sends a message to prefix+topic.
func (b *RedisBus) Publish(ctx context.Context, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	if err := b.client.Publish(ctx, b.prefix+string(msg.Topic), data).Err(); err != nil {
		return fmt.Errorf("publishing to Redis: %w", err)
	}

	b.incr(&b.published)
	return nil
}

// GetMetrics returns current bus metrics.
func (b *RedisBus) GetMetrics() map[string]uint64 {
	b.metricsLock.RLock()
	defer b.metricsLock.RUnlock()

	return map[string]uint64{
		"published": b.published,
		"delivered": b.delivered,
		"errors":    b.errors,
	}
}

func (b *RedisBus) process() {
	defer b.wg.Done()

	ch := b.pubsub.Channel()

	for {
		select {
		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			b.handleRedisMessage(redisMsg)

		case <-b.ctx.Done():
			return
		}
	}
}

func (b *RedisBus) handleRedisMessage(redisMsg *redis.Message) {
	var msg Message
	if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
		b.log.Error("Failed to unmarshal message", zap.Error(err))
		b.incr(&b.errors)
		return
	}

	topic := Topic(strings.TrimPrefix(redisMsg.Channel, b.prefix))
	if msg.Topic == "" {
		msg.Topic = topic
	}

	b.mu.RLock()
	handlers := b.handlers[msg.Topic]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(b.ctx, &msg); err != nil {
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

func (b *RedisBus) incr(counter *uint64) {
	b.metricsLock.Lock()
	*counter++
	b.metricsLock.Unlock()
}
