package router

import (
	"github.com/gin-gonic/gin"

	"guidex.app/curator/internal/http/handler"
	"guidex.app/curator/internal/http/middleware"
	"guidex.app/curator/internal/service"
)

func ContributionRouter(rg *gin.RouterGroup, h *handler.ContributionHandler, authService service.AuthService) {
	rg.Use(middleware.RequireAuth(authService))

	rg.POST("", h.Submit)
	rg.GET("", h.ListMine)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Revise)
	rg.POST("/:id/withdraw", h.Withdraw)
	rg.POST("/:id/review", h.RequestReview)
}
