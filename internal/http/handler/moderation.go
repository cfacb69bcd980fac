package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"guidex.app/curator/internal/http/dto"
	"guidex.app/curator/internal/http/middleware"
	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/service"
)

type ModerationHandler struct {
	service service.ContributionService
}

func NewModerationHandler(service service.ContributionService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// Queue lists contributions by status for moderator triage. Defaults to the
// ones that passed automated review, since those are next in line.
func (h *ModerationHandler) Queue(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	status := model.Status(c.DefaultQuery("status", string(model.StatusAutomatedPass)))

	items, err := h.service.ListByStatus(ctx, user.ID, status)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        string(status),
		"count":         len(items),
		"contributions": dto.ToContributionListResponse(items),
	})
}

func (h *ModerationHandler) Decide(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	contributionID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
		return
	}

	var req dto.ModerateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid moderation request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Moderate(ctx, service.ModerateParams{
		ActorID:        user.ID,
		ContributionID: contributionID,
		Action:         model.ModeratorAction(req.Action),
		Feedback:       req.Feedback,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := gin.H{"contribution": dto.ToContributionResponse(result.Contribution)}
	if result.Guideline != nil {
		resp["guideline"] = dto.ToGuidelineResponse(result.Guideline)
	}
	c.JSON(http.StatusOK, resp)
}
