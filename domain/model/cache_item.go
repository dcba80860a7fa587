package model

import "time"

// CacheItem wraps cached data with its absolute expiry
type CacheItem[T any] struct {
	Data   T         `json:"data"`
	Expiry time.Time `json:"expiry"`
}

// NewCacheItem wraps data expiring ttl after now
func NewCacheItem[T any](data T, ttl time.Duration, now time.Time) CacheItem[T] {
	return CacheItem[T]{Data: data, Expiry: now.Add(ttl)}
}

// Valid reports whether the item has not expired at now
func (c CacheItem[T]) Valid(now time.Time) bool {
	return !now.After(c.Expiry)
}
