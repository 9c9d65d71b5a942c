package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weiluo/roamstory/internal/domain/auth"
	"github.com/weiluo/roamstory/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(
	cfg *config.Config,
	handler *Handler,
	authHandler *AuthHandler,
	diaryHandler *DiaryHandler,
	communityHandler *CommunityHandler,
	posterHandler *PosterHandler,
	authSvc auth.Service,
	logger *slog.Logger,
) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
	)

	router.GET("/healthz", handler.Healthz)

	api := router.Group("/api/v1")
	{
		api.POST("/story/arc", handler.GenerateArc)
		api.GET("/atlas/pois", handler.SearchPois)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google/login", authHandler.GoogleLogin)
			authGroup.GET("/google/callback", authHandler.GoogleCallback)
			authGroup.GET("/profile", authMiddleware(authSvc), authHandler.Profile)
		}

		diaryGroup := api.Group("/diary", authMiddleware(authSvc))
		{
			diaryGroup.POST("/entries", diaryHandler.Create)
			diaryGroup.GET("/entries", diaryHandler.List)
			diaryGroup.GET("/search", diaryHandler.Search)
			diaryGroup.GET("/entries/:id", diaryHandler.Get)
			diaryGroup.PUT("/entries/:id", diaryHandler.Update)
			diaryGroup.DELETE("/entries/:id", diaryHandler.Delete)
			diaryGroup.POST("/entries/:id/photo", diaryHandler.UploadPhoto)
		}

		communityGroup := api.Group("/community")
		{
			communityGroup.GET("/posts", communityHandler.ListPosts)
			communityGroup.GET("/trending", communityHandler.Trending)
			communityGroup.GET("/posts/:id", communityHandler.GetPost)
			communityGroup.POST("/posts", authMiddleware(authSvc), communityHandler.CreatePost)
			communityGroup.DELETE("/posts/:id", authMiddleware(authSvc), communityHandler.DeletePost)
			communityGroup.POST("/posts/:id/like", authMiddleware(authSvc), communityHandler.Like)
			communityGroup.DELETE("/posts/:id/like", authMiddleware(authSvc), communityHandler.Unlike)
		}

		posterGroup := api.Group("/posters", authMiddleware(authSvc))
		{
			posterGroup.POST("", posterHandler.Generate)
			posterGroup.GET("", posterHandler.List)
			posterGroup.GET("/:id", posterHandler.Get)
			posterGroup.DELETE("/:id", posterHandler.Delete)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
