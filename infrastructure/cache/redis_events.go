package cache

import (
	"context"
	"encoding/json"
	"time"

	"video-aggregator/domain/dto"
	"video-aggregator/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const (
	EventsChannel  = keyNamespace + "events"
	publishTimeout = 2 * time.Second
)

// RedisBroadcaster relays invalidations between instances over Redis Pub/Sub, so every
// instance drops its memory tier when one of them clears the shared tier.
type RedisBroadcaster struct {
	client redis.UniversalClient
	origin string
}

// NewRedisBroadcaster returns a broadcaster tagging events with origin. A nil client is a no-op
func NewRedisBroadcaster(client redis.UniversalClient, origin string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, origin: origin}
}

func (b *RedisBroadcaster) Enabled() bool {
	return b != nil && b.client != nil
}

// Publish forwards invalidations in the background. Other event types stay local
func (b *RedisBroadcaster) Publish(evt dto.CacheEvent) {
	if !b.Enabled() || evt.Type != dto.EventCacheInvalidated {
		return
	}
	evt.Origin = b.origin
	raw, err := json.Marshal(evt)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("encode cache event failed")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := b.client.Publish(ctx, EventsChannel, raw).Err(); err != nil {
			logger.GetLogger().WithField("error", err).Warn("publish cache event failed")
		}
	}()
}

// Subscribe calls handle for every invalidation sent by another instance until ctx is done
func (b *RedisBroadcaster) Subscribe(ctx context.Context, handle func(dto.CacheEvent)) error {
	if !b.Enabled() {
		<-ctx.Done()
		return ctx.Err()
	}
	sub := b.client.Subscribe(ctx, EventsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.dispatch(msg.Payload, handle)
		}
	}
}

// dispatch decodes payload and hands it to handle unless it is malformed or our own
func (b *RedisBroadcaster) dispatch(payload string, handle func(dto.CacheEvent)) bool {
	var evt dto.CacheEvent
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		logger.GetLogger().WithField("error", err).Warn("decode cache event failed")
		return false
	}
	if evt.Origin == b.origin || evt.Type != dto.EventCacheInvalidated {
		return false
	}
	handle(evt)
	return true
}
