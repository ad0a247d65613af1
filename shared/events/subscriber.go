package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flathunt/platform/shared/logging"
	"github.com/redis/go-redis/v9"
)

type Handler func(ctx context.Context, event Event) error

// SubscriberConfig describes one consumer in a Redis stream consumer group.
// Zero values pick the defaults below.
type SubscriberConfig struct {
	Group    string
	Consumer string
	Stream   string
	Handler  Handler

	BatchSize     int64         // default 10
	BlockDuration time.Duration // default 5s
	// ClaimIdle is how long a delivered but unacknowledged message waits
	// before this consumer takes it over and retries it. Default 30s.
	ClaimIdle time.Duration
	// MaxDeliveries caps attempts per message. After that it is moved to
	// DeadLetterStream and acknowledged. Default 5.
	MaxDeliveries    int64
	DeadLetterStream string // default Stream + ".dead"
}

type Subscriber struct {
	client *redis.Client
	logger logging.Logger
	cfg    SubscriberConfig
	retry  time.Duration
}

func NewSubscriber(client *redis.Client, logger logging.Logger, cfg SubscriberConfig) *Subscriber {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = 5 * time.Second
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = 30 * time.Second
	}
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = 5
	}
	if cfg.DeadLetterStream == "" {
		cfg.DeadLetterStream = cfg.Stream + ".dead"
	}
	return &Subscriber{
		client: client,
		logger: logger.With("stream", cfg.Stream, "group", cfg.Group),
		cfg:    cfg,
		retry:  time.Second,
	}
}

// Start blocks consuming the stream until ctx is cancelled. Messages whose
// handler fails stay pending and are reclaimed once ClaimIdle has passed, so
// handlers must tolerate redelivery. Malformed events and messages that
// reach MaxDeliveries go to the dead-letter stream.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.cfg.Stream, s.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	s.logger.Info(ctx, "subscriber started", "consumer", s.cfg.Consumer)

	for {
		if err := s.poll(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn(ctx, "error reading messages", "error", err)
			select {
			case <-time.After(s.retry):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			s.logger.Info(context.Background(), "subscriber stopping")
			return ctx.Err()
		}
	}
}

// Background runs Start in its own goroutine. The returned stop cancels it
// and blocks until Start has returned, after which the client may be closed.
func (s *Subscriber) Background(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(ctx, "subscriber stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (s *Subscriber) poll(ctx context.Context) error {
	if err := s.reclaim(ctx); err != nil {
		return err
	}
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Streams:  []string{s.cfg.Stream, ">"},
		Count:    s.cfg.BatchSize,
		Block:    s.cfg.BlockDuration,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}
	for _, stream := range streams {
		s.handleBatch(ctx, stream.Messages)
	}
	return nil
}

// reclaim takes over messages another delivery left pending for too long.
func (s *Subscriber) reclaim(ctx context.Context) error {
	messages, _, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   s.cfg.Stream,
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		MinIdle:  s.cfg.ClaimIdle,
		Start:    "0-0",
		Count:    s.cfg.BatchSize,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to claim pending messages: %w", err)
	}
	if len(messages) > 0 {
		s.logger.Info(ctx, "retrying pending messages", "count", len(messages))
	}
	s.handleBatch(ctx, messages)
	return nil
}

func (s *Subscriber) handleBatch(ctx context.Context, messages []redis.XMessage) {
	for _, message := range messages {
		err := s.processMessage(ctx, message)
		if err == nil {
			s.ack(ctx, message.ID)
			continue
		}
		s.logger.Error(ctx, "failed to process message", "id", message.ID, "error", err)
		if errors.Is(err, ErrMalformed) {
			s.deadLetter(ctx, message, err)
			continue
		}
		if n := s.deliveries(ctx, message.ID); n >= s.cfg.MaxDeliveries {
			s.deadLetter(ctx, message, fmt.Errorf("gave up after %d deliveries: %w", n, err))
		}
	}
}

// deliveries returns how often message id has been handed out, or 0 when
// the pending entry cannot be read.
func (s *Subscriber) deliveries(ctx context.Context, id string) int64 {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: s.cfg.Stream,
		Group:  s.cfg.Group,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn(ctx, "failed to read pending entry", "id", id, "error", err)
		}
		return 0
	}
	if len(pending) == 0 {
		return 0
	}
	return pending[0].RetryCount
}

// deadLetter copies the message to the dead-letter stream and acks it. If
// the copy fails the message stays pending and is tried again later.
func (s *Subscriber) deadLetter(ctx context.Context, message redis.XMessage, cause error) {
	raw, _ := message.Values["event"].(string)
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.cfg.DeadLetterStream,
		Values: map[string]any{
			"event":  raw,
			"source": message.ID,
			"error":  cause.Error(),
		},
	}).Err()
	if err != nil {
		s.logger.Warn(ctx, "failed to dead-letter message", "id", message.ID, "error", err)
		return
	}
	s.logger.Warn(ctx, "message dead-lettered", "id", message.ID, "dead_letter_stream", s.cfg.DeadLetterStream)
	s.ack(ctx, message.ID)
}

func (s *Subscriber) ack(ctx context.Context, id string) {
	if err := s.client.XAck(ctx, s.cfg.Stream, s.cfg.Group, id).Err(); err != nil {
		s.logger.Warn(ctx, "failed to ack message", "id", id, "error", err)
	}
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	raw, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("%w: message %s has no event field", ErrMalformed, message.ID)
	}
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s.cfg.Handler(ctx, event)
}
