package http

import (
	"net/http"

	"video-aggregator/domain/dto"
	"video-aggregator/infrastructure/logger"
	"video-aggregator/infrastructure/realtime"
	"video-aggregator/usecase"

	"github.com/gin-gonic/gin"
)

const ErrorUnmarshal = "Error while unmarshal"

// IAdminHandler defines the cache administration handlers
type IAdminHandler interface {
	CacheStats(ctx *gin.Context)
	InvalidateCache(ctx *gin.Context)
	ReloadCache(ctx *gin.Context)
	Events(ctx *gin.Context)
}

type AdminHandler struct {
	videoUseCase usecase.IVideoUseCase
	hub          *realtime.Hub
}

// NewAdminHandler creates the admin handlers. hub may be nil, then the event stream is unavailable
func NewAdminHandler(videoUseCase usecase.IVideoUseCase, hub *realtime.Hub) IAdminHandler {
	return &AdminHandler{videoUseCase: videoUseCase, hub: hub}
}

// CacheStats handles GET /api/cache/stats
func (h *AdminHandler) CacheStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": h.videoUseCase.CacheStats(ctx.Request.Context())})
}

// InvalidateCache handles POST /api/admin/cache/invalidate
func (h *AdminHandler) InvalidateCache(ctx *gin.Context) {
	var req dto.InvalidateRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
			ctx.JSON(http.StatusBadRequest, gin.H{"error": ErrorUnmarshal, "message": err.Error()})
			return
		}
	}
	if req.Scope == "" {
		req.Scope = usecase.ScopeAll
	}
	if err := h.videoUseCase.InvalidateCache(ctx.Request.Context(), req.Scope); err != nil {
		writeError(ctx, err, "Failed to invalidate cache")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"scope": req.Scope}})
}

// ReloadCache handles POST /api/admin/cache/reload
func (h *AdminHandler) ReloadCache(ctx *gin.Context) {
	count, err := h.videoUseCase.Reload(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reload videos", "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"videos": count}})
}

// Events handles GET /api/admin/events as a server-sent event stream
func (h *AdminHandler) Events(ctx *gin.Context) {
	if h.hub == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Event stream disabled", "message": "no event hub configured"})
		return
	}
	h.hub.Serve(ctx)
}
