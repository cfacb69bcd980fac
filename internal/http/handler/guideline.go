package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"guidex.app/curator/internal/http/dto"
	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/service"
)

type GuidelineHandler struct {
	service service.GuidelineService
}

func NewGuidelineHandler(service service.GuidelineService) *GuidelineHandler {
	return &GuidelineHandler{service: service}
}

func (h *GuidelineHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	g, err := h.service.Get(ctx, model.Classification{
		Topic:    c.Param("topic"),
		Category: c.Param("category"),
		Slug:     c.Param("slug"),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGuidelineResponse(g))
}

func (h *GuidelineHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.service.List(ctx, c.Query("topic"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"guidelines": dto.ToGuidelineListResponse(items)})
}
