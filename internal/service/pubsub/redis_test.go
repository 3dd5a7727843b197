package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

func newTestPubSub() *RedisPubSub {
	return NewRedisPubSub(nil, logger.NewNop())
}

func encodedEvent(t *testing.T, merchantID, text string) string {
	t.Helper()
	payload, err := json.Marshal(&domain.ConversationEvent{
		MerchantID:  merchantID,
		SenderID:    "user1",
		MessageText: text,
	})
	require.NoError(t, err)
	return string(payload)
}

func TestConsume_DeliversEvents(t *testing.T) {
	ps := newTestPubSub()
	ch := make(chan *redis.Message, 1)
	ch <- &redis.Message{Channel: "conversations:merchant1", Payload: encodedEvent(t, "merchant1", "hi")}
	close(ch)

	var received []*domain.ConversationEvent
	ps.consume(context.Background(), "conversations:merchant1", ch, func(e *domain.ConversationEvent) {
		received = append(received, e)
	})

	require.Len(t, received, 1)
	assert.Equal(t, "merchant1", received[0].MerchantID)
	assert.Equal(t, "hi", received[0].MessageText)
}

// Unsubscribe and Close make go-redis close the subscription channel, which
// then yields nil messages. The consumer has to stop cleanly instead of
// dereferencing them.
func TestConsume_ReturnsOnChannelClose(t *testing.T) {
	ps := newTestPubSub()
	ch := make(chan *redis.Message)
	close(ch)

	finished := make(chan struct{})
	go func() {
		assert.NotPanics(t, func() {
			ps.consume(context.Background(), "conversations:merchant1", ch, func(*domain.ConversationEvent) {
				t.Error("no event should be delivered from a closed channel")
			})
		})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not return after channel close")
	}
}

func TestConsume_SkipsMalformedPayload(t *testing.T) {
	ps := newTestPubSub()
	ch := make(chan *redis.Message, 2)
	ch <- &redis.Message{Channel: "conversations:merchant1", Payload: "{not json"}
	ch <- &redis.Message{Channel: "conversations:merchant1", Payload: encodedEvent(t, "merchant1", "still works")}
	close(ch)

	var received []*domain.ConversationEvent
	ps.consume(context.Background(), "conversations:merchant1", ch, func(e *domain.ConversationEvent) {
		received = append(received, e)
	})

	require.Len(t, received, 1)
	assert.Equal(t, "still works", received[0].MessageText)
}

func TestConsume_ReturnsOnContextCancel(t *testing.T) {
	ps := newTestPubSub()
	ch := make(chan *redis.Message)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finished := make(chan struct{})
	go func() {
		ps.consume(ctx, "conversations:merchant1", ch, func(*domain.ConversationEvent) {})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not return after context cancellation")
	}
}
