package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroadcaster fans cart-updated messages out over Redis pub/sub so
// controllers in different processes converge. Channel per user.
type RedisBroadcaster struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisBroadcaster(client *redis.Client, log zerolog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, log: log}
}

func channelKey(userID string) string {
	return fmt.Sprintf("cart-updated:%s", userID)
}

func (b *RedisBroadcaster) Publish(ctx context.Context, userID string) error {
	payload, err := json.Marshal(Message{Type: EventCartUpdated})
	if err != nil {
		return fmt.Errorf("marshal broadcast message: %w", err)
	}

	if err := b.client.Publish(ctx, channelKey(userID), payload).Err(); err != nil {
		return fmt.Errorf("publish cart update: %w", err)
	}
	return nil
}

func (b *RedisBroadcaster) Subscribe(userID string, handler func()) func() {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, channelKey(userID))

	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var m Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed broadcast")
				continue
			}
			if m.Type != EventCartUpdated {
				continue
			}
			handler()
		}
	}()

	return func() {
		cancel()
		if err := pubsub.Close(); err != nil {
			b.log.Warn().Err(err).Msg("closing pubsub subscription")
		}
	}
}
