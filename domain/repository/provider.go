package repository

import (
	"context"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
)

// IVideoProvider is an upstream video source queried by the fallback chain
type IVideoProvider interface {
	// Name identifies the provider in logs and in Video.Source
	Name() string
	ListVideos(ctx context.Context, req *dto.VideoListRequest) (*dto.ApiResponse, error)
	GetVideo(ctx context.Context, fileCode string) (*model.Video, error)
	SearchVideos(ctx context.Context, req *dto.VideoSearchRequest) (*dto.ApiResponse, error)
}
