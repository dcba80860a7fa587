package usecase

import (
	"context"
	"time"

	"video-aggregator/domain/model"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/cache"
	"video-aggregator/infrastructure/logger"
)

const (
	keyPagePrefix   = "videos:page:"
	keyItemPrefix   = "videos:item:"
	keySearchPrefix = "videos:search:"
	keyAll          = "videos:all"
)

// tier pairs the in-process cache with the shared one. Shared entries carry their own
// expiry so every instance agrees on freshness.
type tier[T any] struct {
	mem    *cache.Memory[T]
	shared repository.ISharedCache
	grace  time.Duration
	now    func() time.Time
}

func newTier[T any](shared repository.ISharedCache, grace time.Duration, now func() time.Time) *tier[T] {
	return &tier[T]{
		mem:    cache.NewMemory[T](grace).WithClock(now),
		shared: shared,
		grace:  grace,
		now:    now,
	}
}

// get returns fresh data from memory, then from the shared tier. Shared hits are promoted
// into memory, expired ones too, so they remain available to stale.
func (t *tier[T]) get(ctx context.Context, key string) (T, bool) {
	var zero T
	if v, ok := t.mem.Get(key); ok {
		return v, true
	}
	if t.shared == nil || !t.shared.Enabled() {
		return zero, false
	}
	var item model.CacheItem[T]
	found, err := t.shared.Get(ctx, key, &item)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("key", key).Warn("shared cache read failed")
		return zero, false
	}
	if !found {
		return zero, false
	}
	t.mem.SetItem(key, item)
	if !item.Valid(t.now()) {
		return zero, false
	}
	return item.Data, true
}

func (t *tier[T]) stale(key string) (T, bool) {
	return t.mem.GetStale(key)
}

func (t *tier[T]) set(ctx context.Context, key string, data T, ttl time.Duration) {
	item := model.NewCacheItem(data, ttl, t.now())
	t.mem.SetItem(key, item)
	if t.shared == nil || !t.shared.Enabled() {
		return
	}
	if err := t.shared.Set(ctx, key, item, ttl+t.grace); err != nil {
		logger.GetLogger().WithField("error", err).WithField("key", key).Warn("shared cache write failed")
	}
}

// dropLocal clears only this instance's memory, the shared tier was cleared by the peer
func (t *tier[T]) dropLocal(prefix string) {
	t.mem.DeletePrefix(prefix)
}

func (t *tier[T]) dropPrefix(ctx context.Context, prefix string) {
	t.mem.DeletePrefix(prefix)
	if t.shared == nil || !t.shared.Enabled() {
		return
	}
	if err := t.shared.DeletePrefix(ctx, prefix); err != nil {
		logger.GetLogger().WithField("error", err).WithField("prefix", prefix).Warn("shared cache invalidation failed")
	}
}
