package cache

import (
	"context"
	"testing"
	"time"

	"video-aggregator/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemory(grace time.Duration) (*Memory[string], *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory[string](grace)
	m.now = c.now
	return m, c
}

func TestMemoryGetSet(t *testing.T) {
	m, _ := newTestMemory(time.Hour)

	_, ok := m.Get("missing")
	assert.False(t, ok)

	m.Set("k", "v", time.Minute)
	got, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryValidAtExactExpiry(t *testing.T) {
	m, c := newTestMemory(0)
	m.Set("k", "v", time.Minute)

	c.advance(time.Minute)
	_, ok := m.Get("k")
	assert.True(t, ok, "item is valid while now <= expiry")

	c.advance(time.Nanosecond)
	_, ok = m.Get("k")
	assert.False(t, ok)
}

func TestMemoryStaleWithinGrace(t *testing.T) {
	m, c := newTestMemory(time.Hour)
	m.Set("k", "v", time.Minute)
	c.advance(30 * time.Minute)

	_, ok := m.Get("k")
	assert.False(t, ok, "expired item is not fresh")

	got, ok := m.GetStale("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryLazyEvictionPastGrace(t *testing.T) {
	m, c := newTestMemory(time.Hour)
	m.Set("k", "v", time.Minute)
	c.advance(2 * time.Hour)

	_, ok := m.GetStale("k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len(), "read past grace removes the item")
}

func TestMemorySweep(t *testing.T) {
	m, c := newTestMemory(time.Minute)
	m.Set("old", "1", time.Second)
	m.Set("fresh", "2", time.Hour)
	c.advance(10 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
	_, ok := m.Get("fresh")
	assert.True(t, ok)
}

func TestMemoryDeletePrefix(t *testing.T) {
	m, _ := newTestMemory(time.Hour)
	m.Set("page:1", "a", time.Minute)
	m.Set("page:2", "b", time.Minute)
	m.Set("item:x", "c", time.Minute)

	assert.Equal(t, 2, m.DeletePrefix("page:"))
	assert.Equal(t, 1, m.Len())
	assert.Zero(t, m.DeletePrefix("page:"))
}

func TestMemorySetItemKeepsExpiry(t *testing.T) {
	m, c := newTestMemory(0)
	m.SetItem("k", model.CacheItem[string]{Data: "v", Expiry: c.t.Add(-time.Second)})

	_, ok := m.Get("k")
	assert.False(t, ok)

	_, ok = m.GetStale("k")
	assert.False(t, ok, "dead item is not returned")
	assert.Zero(t, m.Len())
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	m, _ := newTestMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- RunSweeper(ctx, 5*time.Millisecond, func(context.Context) { calls <- struct{}{} }, m)
	}()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not tick")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
