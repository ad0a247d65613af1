package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/flathunt/platform/shared/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPublisher_Publish(t *testing.T) {
	client := newTestRedis(t)
	p := NewPublisher(client)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	err := p.Publish(context.Background(), ListingEventsStream, ApartmentCreated, ApartmentCreatedEvent{
		ApartmentID: "apt-1",
		AddedBy:     "usr-1",
		City:        "berlin",
	})
	require.NoError(t, err)

	msgs, err := client.XRange(context.Background(), ListingEventsStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	raw, ok := msgs[0].Values["event"].(string)
	require.True(t, ok)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	assert.Equal(t, ApartmentCreated, event.Type)
	assert.True(t, fixed.Equal(event.Timestamp))

	var data ApartmentCreatedEvent
	require.NoError(t, event.DecodeData(&data))
	assert.Equal(t, "apt-1", data.ApartmentID)
	assert.Equal(t, "usr-1", data.AddedBy)
}

func TestPublisher_ConnectionFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	err := NewPublisher(client).Publish(context.Background(), AccountEventsStream, UserRegistered, UserRegisteredEvent{UserID: "u"})
	assert.Error(t, err)
}

func TestSubscriber_ProcessMessage(t *testing.T) {
	var got Event
	s := NewSubscriber(nil, logging.Nop(), SubscriberConfig{
		Stream: ListingEventsStream,
		Handler: func(ctx context.Context, e Event) error {
			got = e
			return nil
		},
	})

	err := s.processMessage(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]any{"event": `{"type":"apartment.created","data":{"apartmentId":"a1"}}`},
	})
	require.NoError(t, err)
	assert.Equal(t, ApartmentCreated, got.Type)

	err = s.processMessage(context.Background(), redis.XMessage{ID: "2-0", Values: map[string]any{"other": "x"}})
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "message 2-0 has no event field")

	err = s.processMessage(context.Background(), redis.XMessage{ID: "3-0", Values: map[string]any{"event": "{"}})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSubscriber_StartDeliversPublishedEvents(t *testing.T) {
	client := newTestRedis(t)
	received := make(chan ApartmentCreatedEvent, 1)

	s := NewSubscriber(client, logging.Nop(), SubscriberConfig{
		Group:         "test-group",
		Consumer:      "test-consumer",
		Stream:        ListingEventsStream,
		BlockDuration: 50 * time.Millisecond,
		Handler: func(ctx context.Context, e Event) error {
			var data ApartmentCreatedEvent
			if err := e.DecodeData(&data); err != nil {
				return err
			}
			received <- data
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.NoError(t, NewPublisher(client).Publish(context.Background(), ListingEventsStream, ApartmentCreated,
		ApartmentCreatedEvent{ApartmentID: "apt-9", AddedBy: "usr-9"}))

	select {
	case data := <-received:
		assert.Equal(t, "usr-9", data.AddedBy)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestSubscriber_BackgroundStopWaitsForHandler(t *testing.T) {
	client := newTestRedis(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var finished atomic.Bool

	s := NewSubscriber(client, logging.Nop(), SubscriberConfig{
		Group:         "test-group",
		Consumer:      "test-consumer",
		Stream:        ListingEventsStream,
		BlockDuration: 50 * time.Millisecond,
		Handler: func(ctx context.Context, e Event) error {
			once.Do(func() { close(entered) })
			<-release
			finished.Store(true)
			return nil
		},
	})
	stop := s.Background(context.Background())

	require.NoError(t, NewPublisher(client).Publish(context.Background(), ListingEventsStream, ApartmentCreated,
		ApartmentCreatedEvent{ApartmentID: "apt-1", AddedBy: "usr-1"}))
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("stop returned while the handler was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
		assert.True(t, finished.Load())
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return")
	}
}

func TestSubscriber_RetriesFailedMessages(t *testing.T) {
	client := newTestRedis(t)
	var calls atomic.Int32
	acked := make(chan struct{})

	s := NewSubscriber(client, logging.Nop(), SubscriberConfig{
		Group:         "retry-group",
		Consumer:      "retry-consumer",
		Stream:        ListingEventsStream,
		BlockDuration: 20 * time.Millisecond,
		ClaimIdle:     20 * time.Millisecond,
		Handler: func(ctx context.Context, e Event) error {
			if calls.Add(1) == 1 {
				return errors.New("counter unavailable")
			}
			close(acked)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()

	require.NoError(t, NewPublisher(client).Publish(context.Background(), ListingEventsStream, ApartmentCreated,
		ApartmentCreatedEvent{ApartmentID: "apt-1", AddedBy: "usr-1"}))

	select {
	case <-acked:
	case <-time.After(5 * time.Second):
		t.Fatal("failed message was not retried")
	}
	assert.Equal(t, int32(2), calls.Load())

	require.Eventually(t, func() bool {
		pending, err := client.XPending(context.Background(), ListingEventsStream, "retry-group").Result()
		return err == nil && pending.Count == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubscriber_DeadLettersAfterMaxDeliveries(t *testing.T) {
	client := newTestRedis(t)
	var calls atomic.Int32

	s := NewSubscriber(client, logging.Nop(), SubscriberConfig{
		Group:         "dlq-group",
		Consumer:      "dlq-consumer",
		Stream:        ListingEventsStream,
		BlockDuration: 10 * time.Millisecond,
		ClaimIdle:     10 * time.Millisecond,
		MaxDeliveries: 3,
		Handler: func(ctx context.Context, e Event) error {
			calls.Add(1)
			return errors.New("counter unavailable")
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()

	require.NoError(t, NewPublisher(client).Publish(context.Background(), ListingEventsStream, ApartmentCreated,
		ApartmentCreatedEvent{ApartmentID: "apt-1", AddedBy: "usr-1"}))

	deadLetterStream := ListingEventsStream + ".dead"
	require.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), deadLetterStream).Result()
		return err == nil && n == 1
	}, 5*time.Second, 10*time.Millisecond)

	// Several claim intervals later nothing is redelivered.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())

	pending, err := client.XPending(context.Background(), ListingEventsStream, "dlq-group").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)

	entries, err := client.XRange(context.Background(), deadLetterStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Values["error"], "gave up after 3 deliveries")
	assert.Contains(t, entries[0].Values["event"], "apt-1")
}

func TestSubscriber_DeadLettersMalformedEventsImmediately(t *testing.T) {
	client := newTestRedis(t)
	var calls atomic.Int32

	s := NewSubscriber(client, logging.Nop(), SubscriberConfig{
		Group:         "bad-group",
		Consumer:      "bad-consumer",
		Stream:        ListingEventsStream,
		BlockDuration: 10 * time.Millisecond,
		ClaimIdle:     10 * time.Millisecond,
		Handler: func(ctx context.Context, e Event) error {
			calls.Add(1)
			var data ApartmentCreatedEvent
			return e.DecodeData(&data)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()

	require.NoError(t, NewPublisher(client).Publish(context.Background(), ListingEventsStream, ApartmentCreated,
		map[string]any{"rooms": "many"}))
	require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: ListingEventsStream,
		Values: map[string]any{"event": "{"},
	}).Err())

	require.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), ListingEventsStream+".dead").Result()
		return err == nil && n == 2
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDecodeData_Malformed(t *testing.T) {
	event := Event{Type: ApartmentCreated, Data: map[string]any{"rooms": "many"}}
	var data ApartmentCreatedEvent
	assert.ErrorIs(t, event.DecodeData(&data), ErrMalformed)
}

func TestNopPublisher(t *testing.T) {
	var p EventPublisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "s", "t", nil))
}
