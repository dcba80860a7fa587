package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"video-aggregator/domain/model"
	"video-aggregator/infrastructure/logger"
)

// Memory is the in-process cache tier. Expired items are kept for staleGrace so they can be
// served when every upstream fails, then dropped lazily on read or by Sweep. It has no size bound.
type Memory[T any] struct {
	mu         sync.RWMutex
	items      map[string]model.CacheItem[T]
	staleGrace time.Duration
	now        func() time.Time
}

func NewMemory[T any](staleGrace time.Duration) *Memory[T] {
	return &Memory[T]{
		items:      make(map[string]model.CacheItem[T]),
		staleGrace: staleGrace,
		now:        time.Now,
	}
}

// WithClock replaces the time source, used by tests
func (m *Memory[T]) WithClock(now func() time.Time) *Memory[T] {
	m.now = now
	return m
}

// Get returns the data for key if it has not expired
func (m *Memory[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := m.lookup(key)
	if !ok || !item.Valid(m.now()) {
		return zero, false
	}
	return item.Data, true
}

// GetStale returns the data for key even if expired, as long as it is inside the grace window
func (m *Memory[T]) GetStale(key string) (T, bool) {
	var zero T
	item, ok := m.lookup(key)
	if !ok {
		return zero, false
	}
	return item.Data, true
}

func (m *Memory[T]) lookup(key string) (model.CacheItem[T], bool) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return item, false
	}
	if m.dead(item) {
		m.mu.Lock()
		// re-check under the write lock, a concurrent Set may have refreshed it
		if cur, ok := m.items[key]; ok && m.dead(cur) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return model.CacheItem[T]{}, false
	}
	return item, true
}

func (m *Memory[T]) dead(item model.CacheItem[T]) bool {
	return m.now().After(item.Expiry.Add(m.staleGrace))
}

func (m *Memory[T]) Set(key string, data T, ttl time.Duration) {
	m.SetItem(key, model.NewCacheItem(data, ttl, m.now()))
}

func (m *Memory[T]) SetItem(key string, item model.CacheItem[T]) {
	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
}

// DeletePrefix removes every key starting with prefix and returns how many were removed
func (m *Memory[T]) DeletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Sweep drops items past their stale grace and returns how many were removed
func (m *Memory[T]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, item := range m.items {
		if m.dead(item) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Sweeper is anything with a periodic cleanup
type Sweeper interface {
	Sweep() int
}

// RunSweeper sweeps every interval until ctx is done
func RunSweeper(ctx context.Context, interval time.Duration, extra func(ctx context.Context), sweepers ...Sweeper) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := 0
			for _, s := range sweepers {
				removed += s.Sweep()
			}
			if removed > 0 {
				logger.GetLogger().WithField("removed", removed).Debug("cache sweep")
			}
			if extra != nil {
				extra(ctx)
			}
		}
	}
}
