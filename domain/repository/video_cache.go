package repository

import (
	"context"
	"time"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
)

// IVideoCache is the persistent snapshot of the video collection
type IVideoCache interface {
	// GetVideo returns a cached video if present and not expired. It also returns the expiration time.
	GetVideo(ctx context.Context, fileCode string) (*model.Video, *time.Time, error)
	// UpsertVideos stores or updates multiple videos with a TTL from now.
	UpsertVideos(ctx context.Context, videos []model.Video, ttl time.Duration) error
	// ListVideos returns a page of unexpired videos ordered by uploaded_at desc and the total count.
	ListVideos(ctx context.Context, limit, offset int) ([]model.Video, int64, error)
	// DeleteExpired drops rows that expired before the given cutoff and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	// Vendor names the backing database for stats
	Vendor() string
}

// ISharedCache is the cross-instance cache tier
type ISharedCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
	Enabled() bool
}

// ICacheEventPublisher receives cache lifecycle events. Publish must not block.
type ICacheEventPublisher interface {
	Publish(evt dto.CacheEvent)
}
