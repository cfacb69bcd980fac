package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"guidex.app/curator/internal/http/dto"
	"guidex.app/curator/internal/http/middleware"
	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/service"
)

type ContributionHandler struct {
	service service.ContributionService
}

func NewContributionHandler(service service.ContributionService) *ContributionHandler {
	return &ContributionHandler{service: service}
}

func (h *ContributionHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	var req dto.SubmitContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid submit request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := service.SubmitParams{
		OwnerID: user.ID,
		Classification: model.Classification{
			Topic:    req.Topic,
			Category: req.Category,
			Slug:     req.Slug,
		},
		Payload: req.Payload.ToModel(),
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		traceID := spanCtx.TraceID().String()
		params.TraceID = &traceID
	}

	result, err := h.service.Submit(ctx, params)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SubmitContributionResponse{
		Contribution: dto.ToContributionResponse(result.Contribution),
		ReviewQueued: result.ReviewQueued,
	})
}

func (h *ContributionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	contributionID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
		return
	}

	detail, err := h.service.Get(ctx, user.ID, contributionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := dto.ToContributionResponse(detail.Contribution)
	resp.Payload = dto.ToPayloadResponse(detail.Payload)
	c.JSON(http.StatusOK, resp)
}

func (h *ContributionHandler) ListMine(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	items, err := h.service.ListMine(ctx, user.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contributions": dto.ToContributionListResponse(items)})
}

func (h *ContributionHandler) Revise(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	contributionID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
		return
	}

	var req dto.ReviseContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid revise request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := service.ReviseParams{
		ActorID:        user.ID,
		ContributionID: contributionID,
		Payload:        req.Payload.ToModel(),
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		traceID := spanCtx.TraceID().String()
		params.TraceID = &traceID
	}

	result, err := h.service.Revise(ctx, params)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitContributionResponse{
		Contribution: dto.ToContributionResponse(result.Contribution),
		ReviewQueued: result.ReviewQueued,
	})
}

func (h *ContributionHandler) Withdraw(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	contributionID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
		return
	}

	contribution, err := h.service.Withdraw(ctx, user.ID, contributionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToContributionResponse(contribution))
}

func (h *ContributionHandler) RequestReview(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	contributionID, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
		return
	}

	if err := h.service.RequestReview(ctx, user.ID, contributionID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "review queued"})
}

func parseID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
