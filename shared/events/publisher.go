package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventPublisher is what command services depend on.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

type Publisher struct {
	client *redis.Client
	now    func() time.Time
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	event := Event{
		Type:      eventType,
		Timestamp: p.now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event. It backs services started without Redis.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
