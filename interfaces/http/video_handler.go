package http

import (
	"errors"
	"net/http"
	"strconv"

	"video-aggregator/domain/dto"
	"video-aggregator/domain/model"
	"video-aggregator/domain/repository"
	"video-aggregator/infrastructure/logger"
	"video-aggregator/usecase"

	"github.com/gin-gonic/gin"
)

// IVideoHandler defines the interface for public video HTTP handlers
type IVideoHandler interface {
	GetVideos(ctx *gin.Context)
	GetVideo(ctx *gin.Context)
	GetRelatedVideos(ctx *gin.Context)
	SearchVideos(ctx *gin.Context)
	GetCategories(ctx *gin.Context)
	GetCategoryVideos(ctx *gin.Context)
	GetTrendingVideos(ctx *gin.Context)
	GetRecentVideos(ctx *gin.Context)
}

// VideoHandler implements the video HTTP handlers
type VideoHandler struct {
	videoUseCase usecase.IVideoUseCase
}

func NewVideoHandler(videoUseCase usecase.IVideoUseCase) IVideoHandler {
	return &VideoHandler{videoUseCase: videoUseCase}
}

// GetVideos handles GET /api/videos
func (h *VideoHandler) GetVideos(ctx *gin.Context) {
	req := &dto.VideoListRequest{
		Page:    queryInt(ctx, "page", 1),
		PerPage: queryInt(ctx, "per_page", 0, "perPage"),
	}
	resp, err := h.videoUseCase.GetVideos(ctx.Request.Context(), req)
	if err != nil {
		writeError(ctx, err, "Failed to get videos")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// GetVideo handles GET /api/videos/:fileCode
func (h *VideoHandler) GetVideo(ctx *gin.Context) {
	video, err := h.videoUseCase.GetVideo(ctx.Request.Context(), ctx.Param("fileCode"))
	if err != nil {
		writeError(ctx, err, "Failed to get video")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": video})
}

// GetRelatedVideos handles GET /api/videos/:fileCode/related
func (h *VideoHandler) GetRelatedVideos(ctx *gin.Context) {
	videos, err := h.videoUseCase.GetRelatedVideos(ctx.Request.Context(), ctx.Param("fileCode"), queryInt(ctx, "limit", 0))
	if err != nil {
		writeError(ctx, err, "Failed to get related videos")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": videos})
}

// SearchVideos handles GET /api/search
func (h *VideoHandler) SearchVideos(ctx *gin.Context) {
	req := &dto.VideoSearchRequest{
		Query: ctx.Query("q"),
		Page:  queryInt(ctx, "page", 1),
		Limit: queryInt(ctx, "limit", 0),
	}
	resp, err := h.videoUseCase.SearchVideos(ctx.Request.Context(), req)
	if err != nil {
		writeError(ctx, err, "Failed to search videos")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// GetCategories handles GET /api/categories
func (h *VideoHandler) GetCategories(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": model.Categories()})
}

// GetCategoryVideos handles GET /api/categories/:slug
func (h *VideoHandler) GetCategoryVideos(ctx *gin.Context) {
	resp, err := h.videoUseCase.GetVideosByCategory(ctx.Request.Context(), ctx.Param("slug"),
		queryInt(ctx, "page", 1), queryInt(ctx, "per_page", 0, "perPage"))
	if err != nil {
		writeError(ctx, err, "Failed to get category videos")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// GetTrendingVideos handles GET /api/trending
func (h *VideoHandler) GetTrendingVideos(ctx *gin.Context) {
	videos, err := h.videoUseCase.GetTrendingVideos(ctx.Request.Context(), queryInt(ctx, "limit", 0))
	if err != nil {
		writeError(ctx, err, "Failed to get trending videos")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": videos})
}

// GetRecentVideos handles GET /api/recent
func (h *VideoHandler) GetRecentVideos(ctx *gin.Context) {
	videos, err := h.videoUseCase.GetRecentVideos(ctx.Request.Context(), queryInt(ctx, "limit", 0))
	if err != nil {
		writeError(ctx, err, "Failed to get recent videos")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": videos})
}

// queryInt reads an integer query parameter, trying aliases, falling back to def
func queryInt(ctx *gin.Context, name string, def int, aliases ...string) int {
	raw := ctx.Query(name)
	for _, a := range aliases {
		if raw != "" {
			break
		}
		raw = ctx.Query(a)
	}
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// writeError maps validation errors to 400 and anything else to 500
func writeError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrInvalidFileCode),
		errors.Is(err, repository.ErrEmptyQuery),
		errors.Is(err, repository.ErrUnknownCategory),
		errors.Is(err, repository.ErrUnknownScope):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": message, "message": err.Error()})
	default:
		logger.GetLogger().WithField("error", err).Error(message)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": message, "message": err.Error()})
	}
}
