package router

import (
	"github.com/gin-gonic/gin"

	"guidex.app/curator/internal/http/handler"
	"guidex.app/curator/internal/http/middleware"
	"guidex.app/curator/internal/service"
)

func ModerationRouter(rg *gin.RouterGroup, h *handler.ModerationHandler, authService service.AuthService) {
	rg.Use(middleware.RequireAuth(authService))
	rg.Use(middleware.RequireModerator())

	rg.GET("/queue", h.Queue)
	rg.POST("/contributions/:id", h.Decide)
}
