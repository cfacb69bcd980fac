package router

import (
	"github.com/gin-gonic/gin"

	"guidex.app/curator/internal/http/handler"
)

// Guideline reads are public.
func GuidelineRouter(rg *gin.RouterGroup, h *handler.GuidelineHandler) {
	rg.GET("", h.List)
	rg.GET("/:topic/:category/:slug", h.Get)
}
