package cache

import (
	"context"
	"testing"
	"time"

	"video-aggregator/domain/dto"

	"github.com/stretchr/testify/assert"
)

func TestRedisBroadcasterDispatch(t *testing.T) {
	b := NewRedisBroadcaster(nil, "node-a")
	var got []dto.CacheEvent
	handle := func(evt dto.CacheEvent) { got = append(got, evt) }

	assert.True(t, b.dispatch(`{"type":"cache_invalidated","scope":"search","origin":"node-b"}`, handle))
	assert.False(t, b.dispatch(`{"type":"cache_invalidated","scope":"all","origin":"node-a"}`, handle), "own events are ignored")
	assert.False(t, b.dispatch(`{"type":"collection_loaded","origin":"node-b"}`, handle))
	assert.False(t, b.dispatch(`{"type":`, handle))

	if assert.Len(t, got, 1) {
		assert.Equal(t, "search", got[0].Scope)
		assert.Equal(t, "node-b", got[0].Origin)
	}
}

func TestRedisBroadcasterDisabled(t *testing.T) {
	b := NewRedisBroadcaster(nil, "node-a")
	assert.False(t, b.Enabled())
	assert.NotPanics(t, func() { b.Publish(dto.CacheEvent{Type: dto.EventCacheInvalidated, Scope: "all"}) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Subscribe(ctx, func(dto.CacheEvent) { t.Fatal("no events expected") })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
