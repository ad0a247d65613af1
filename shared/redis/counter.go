package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ProcessedTTL bounds how long IncrOnce remembers an applied token.
const ProcessedTTL = 7 * 24 * time.Hour

// Counter is a keyed integer projection stored as plain Redis strings under
// prefix+id. A missing key reads as zero.
type Counter struct {
	client *goredis.Client
	prefix string
}

func NewCounter(client *goredis.Client, prefix string) *Counter {
	return &Counter{client: client, prefix: prefix}
}

func (c *Counter) Incr(ctx context.Context, id string) (int64, error) {
	n, err := c.client.Incr(ctx, c.prefix+id).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s%s: %w", c.prefix, id, err)
	}
	return n, nil
}

// IncrOnce increments id unless token has already been applied. The marker
// lives under "processed:"+prefix+token so stream redelivery is skipped.
func (c *Counter) IncrOnce(ctx context.Context, id, token string) (bool, error) {
	marker := "processed:" + c.prefix + token
	fresh, err := c.client.SetNX(ctx, marker, id, ProcessedTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s: %w", marker, err)
	}
	if !fresh {
		return false, nil
	}
	if _, err := c.Incr(ctx, id); err != nil {
		// Let a redelivery retry the increment.
		c.client.Del(ctx, marker)
		return false, err
	}
	return true, nil
}

func (c *Counter) Get(ctx context.Context, id string) (int64, error) {
	n, err := c.client.Get(ctx, c.prefix+id).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s%s: %w", c.prefix, id, err)
	}
	return n, nil
}
