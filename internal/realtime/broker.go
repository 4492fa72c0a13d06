package realtime

import (
	"context"
	"fmt"

	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "glimo:changes"

// Publisher hands a change to the fan-out layer.
type Publisher interface {
	Publish(ctx context.Context, change *Change) error
}

// Broker moves published changes to the hub of every instance.
type Broker interface {
	Publisher
	Run(ctx context.Context, hub *Hub) error
}

// LocalBroker delivers changes to the hub of this process only.
type LocalBroker struct {
	changes chan *Change
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{changes: make(chan *Change, 1024)}
}

func (b *LocalBroker) Publish(ctx context.Context, change *Change) error {
	select {
	case b.changes <- change:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *LocalBroker) Run(ctx context.Context, hub *Hub) error {
	for {
		select {
		case change := <-b.changes:
			hub.Dispatch(change)
		case <-ctx.Done():
			return nil
		}
	}
}

// RedisBroker fans changes out to all instances through Redis Pub/Sub.
type RedisBroker struct {
	rdb redis.UniversalClient
}

func NewRedisBroker(rdb redis.UniversalClient) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, change *Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	if err := b.rdb.Publish(ctx, redisChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}

	return nil
}

func (b *RedisBroker) Run(ctx context.Context, hub *Hub) error {
	log := logger.Logger()

	pubsub := b.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", redisChannel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				log.Warn("dropping malformed change", zap.Error(err))
				continue
			}
			hub.Dispatch(&change)

		case <-ctx.Done():
			return nil
		}
	}
}
