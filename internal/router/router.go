// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/clubhub/internal/config"
	"github.com/javajoker/clubhub/internal/handlers"
	"github.com/javajoker/clubhub/internal/metrics"
	"github.com/javajoker/clubhub/internal/middleware"
	"github.com/javajoker/clubhub/internal/services"
)

// Services groups the long-lived services the routes dispatch to.
type Services struct {
	Clubs   *services.ClubService
	Avatars *services.AvatarService
}

func Initialize(cfg *config.Config, svc Services) *gin.Engine {
	// Initialize handlers
	clubHandler := handlers.NewClubHandler(svc.Clubs)
	sourceHandler := handlers.NewSourceHandler(svc.Clubs)
	avatarHandler := handlers.NewAvatarHandler(svc.Avatars)
	liveHandler := handlers.NewLiveHandler(svc.Clubs, cfg.CORS.AllowedOrigins)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	r.Use(metrics.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		state := svc.Clubs.State()
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"version":     "1.0.0",
			"mock_data":   state.UseMockData,
			"initialized": state.Initialized,
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.AWS.AccessKeyID == "" && cfg.Storage.LocalDir != "" {
		r.Static("/uploads", cfg.Storage.LocalDir)
	}

	imageBody := middleware.BodyLimit(middleware.MaxImageRequestBytes)

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.GeneralRateLimit())
	{
		clubs := v1.Group("/clubs")
		{
			clubs.GET("", clubHandler.GetClubs)
			clubs.POST("", clubHandler.CreateClub)
			clubs.GET("/:id", clubHandler.GetClub)
			clubs.PUT("/:id", clubHandler.UpdateClub)
			clubs.DELETE("/:id", clubHandler.DeleteClub)
			clubs.POST("/:id/members", imageBody, clubHandler.AddMember)
			clubs.PUT("/:id/members/:memberId/avatar", imageBody, clubHandler.UpdateMemberAvatar)
			clubs.POST("/:id/activities", clubHandler.AddActivity)
			clubs.POST("/:id/rolling-paper", clubHandler.AddRollingPaper)
		}

		v1.GET("/rankings", clubHandler.GetRankings)

		source := v1.Group("/source")
		{
			source.GET("", sourceHandler.GetSource)
			source.POST("/toggle", sourceHandler.ToggleSource)
			source.POST("/retry", sourceHandler.Retry)
		}

		v1.POST("/avatars", middleware.AvatarRateLimit(), imageBody, avatarHandler.GenerateAvatar)

		live := v1.Group("/live")
		{
			live.GET("/clubs", liveHandler.StreamClubs)
			live.GET("/clubs/:id", liveHandler.StreamClub)
		}
	}

	return r
}
