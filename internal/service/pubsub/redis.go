package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

const (
	channelPrefix = "conversations:"
)

// RedisPubSub fans processed conversation events out to the merchant
// dashboard stream. One Redis channel per merchant.
type RedisPubSub struct {
	client       *redis.Client
	logger       *logger.Logger
	subscribers  map[string]*redis.PubSub
	subscriberMu sync.RWMutex
}

func NewRedisPubSub(client *redis.Client, logger *logger.Logger) *RedisPubSub {
	return &RedisPubSub{
		client:      client,
		logger:      logger,
		subscribers: make(map[string]*redis.PubSub),
	}
}

func (ps *RedisPubSub) getChannelName(merchantID string) string {
	return channelPrefix + merchantID
}

// Publish pushes a conversation event to the owning merchant's channel.
func (ps *RedisPubSub) Publish(ctx context.Context, event *domain.ConversationEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation event: %w", err)
	}

	channel := ps.getChannelName(event.MerchantID)
	if err := ps.client.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis channel %s: %w", channel, err)
	}

	return nil
}

// Subscribe starts delivering a merchant's conversation events to callback.
// Subscribing twice for the same merchant is a no-op.
func (ps *RedisPubSub) Subscribe(ctx context.Context, merchantID string, callback func(*domain.ConversationEvent)) error {
	channel := ps.getChannelName(merchantID)

	ps.subscriberMu.RLock()
	_, exists := ps.subscribers[merchantID]
	ps.subscriberMu.RUnlock()
	if exists {
		ps.logger.Infof("Already subscribed to merchant channel: %s", channel)
		return nil
	}

	pubsub := ps.client.Subscribe(ctx, channel)

	ps.subscriberMu.Lock()
	ps.subscribers[merchantID] = pubsub
	ps.subscriberMu.Unlock()

	go func() {
		defer func() {
			ps.logger.Infof("Closing subscription for merchant channel: %s", channel)
			pubsub.Close()
			ps.subscriberMu.Lock()
			delete(ps.subscribers, merchantID)
			ps.subscriberMu.Unlock()
		}()

		ps.consume(ctx, channel, pubsub.Channel(), callback)
	}()

	ps.logger.Infof("Subscribed to merchant channel: %s", channel)
	return nil
}

// consume drains subscription messages until the channel closes or ctx is
// cancelled. go-redis closes the channel when the PubSub is closed (via
// Unsubscribe or Close), and a receive from the closed channel yields nil.
func (ps *RedisPubSub) consume(ctx context.Context, channel string, ch <-chan *redis.Message, callback func(*domain.ConversationEvent)) {
	for {
		select {
		case msg, ok := <-ch:
			if !ok || msg == nil {
				return
			}
			var event domain.ConversationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				ps.logger.Errorf("Failed to unmarshal conversation event from channel %s: %v", channel, err)
				continue
			}
			callback(&event)

		case <-ctx.Done():
			return
		}
	}
}

// Unsubscribe removes the subscription for a merchant.
func (ps *RedisPubSub) Unsubscribe(merchantID string) {
	ps.subscriberMu.Lock()
	defer ps.subscriberMu.Unlock()

	if pubsub, exists := ps.subscribers[merchantID]; exists {
		pubsub.Close()
		delete(ps.subscribers, merchantID)
		ps.logger.Infof("Unsubscribed from merchant channel: %s", ps.getChannelName(merchantID))
	}
}

func (ps *RedisPubSub) Close() {
	ps.subscriberMu.Lock()
	defer ps.subscriberMu.Unlock()

	for merchantID, pubsub := range ps.subscribers {
		pubsub.Close()
		delete(ps.subscribers, merchantID)
		ps.logger.Infof("Closed subscription for merchant channel: %s", ps.getChannelName(merchantID))
	}
}
