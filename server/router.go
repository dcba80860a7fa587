package server

import (
	"time"

	httpHandler "video-aggregator/interfaces/http"
	"video-aggregator/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:4200"}

func InitiateRouter(
	videoHandler httpHandler.IVideoHandler,
	adminHandler httpHandler.IAdminHandler,
	healthHandler httpHandler.IHealthHandler,
	secretKey string,
	allowedOrigins []string,
) *gin.Engine {
	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultOrigins
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			if _, ok := allowed["*"]; ok {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler.Healthz)

	api := router.Group("api")
	{
		api.GET("/videos", videoHandler.GetVideos)
		api.GET("/videos/:fileCode", videoHandler.GetVideo)
		api.GET("/videos/:fileCode/related", videoHandler.GetRelatedVideos)
		api.GET("/search", videoHandler.SearchVideos)
		api.GET("/categories", videoHandler.GetCategories)
		api.GET("/categories/:slug", videoHandler.GetCategoryVideos)
		api.GET("/trending", videoHandler.GetTrendingVideos)
		api.GET("/recent", videoHandler.GetRecentVideos)
	}

	admin := middleware.AdminAuth(secretKey)
	api.GET("/cache/stats", admin, adminHandler.CacheStats)
	adminGroup := api.Group("/admin", admin)
	{
		adminGroup.POST("/cache/invalidate", adminHandler.InvalidateCache)
		adminGroup.POST("/cache/reload", adminHandler.ReloadCache)
		adminGroup.GET("/events", adminHandler.Events)
	}

	return router
}
