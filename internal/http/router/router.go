package router

import (
	"github.com/gin-gonic/gin"

	"guidex.app/curator/internal/http/handler"
	"guidex.app/curator/internal/service"
)

type RouterConfig struct {
	DashboardURL string
	IsProduction bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authService := services.Auth()

	authHandler := handler.NewAuthHandler(authService, cfg.DashboardURL, cfg.IsProduction)
	AuthRouter(router.Group("/auth"), authHandler)

	v1 := router.Group("/api/v1")
	{
		contributionHandler := handler.NewContributionHandler(services.Contributions())
		ContributionRouter(v1.Group("/contributions"), contributionHandler, authService)

		moderationHandler := handler.NewModerationHandler(services.Contributions())
		ModerationRouter(v1.Group("/moderation"), moderationHandler, authService)

		guidelineHandler := handler.NewGuidelineHandler(services.Guidelines())
		GuidelineRouter(v1.Group("/guidelines"), guidelineHandler)
	}
}
