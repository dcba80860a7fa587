package dto

import "time"

const (
	EventCollectionLoaded = "collection_loaded"
	EventCollectionFailed = "collection_failed"
	EventCacheInvalidated = "cache_invalidated"
)

// CacheEvent is streamed to admin subscribers when the cache changes
type CacheEvent struct {
	Type   string    `json:"type"`
	Scope  string    `json:"scope,omitempty"`
	Videos int       `json:"videos,omitempty"`
	Error  *string   `json:"error,omitempty"`
	Origin string    `json:"origin,omitempty"` // instance that produced the event
	At     time.Time `json:"at"`
}
