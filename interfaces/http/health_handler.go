package http

import (
	"net/http"

	"video-aggregator/usecase"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	videoUseCase usecase.IVideoUseCase
}

func NewHealthHandler(videoUseCase usecase.IVideoUseCase) IHealthHandler {
	return &HealthHandler{videoUseCase: videoUseCase}
}

// Healthz returns OK for health checks along with the cache tier state
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	stats := h.videoUseCase.CacheStats(ctx.Request.Context())
	ctx.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"collection":      stats.Collection,
		"shared_cache":    stats.SharedCache,
		"persistent_tier": stats.PersistentTier,
	})
}
