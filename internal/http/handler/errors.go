package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"guidex.app/curator/internal/service"
)

// writeServiceError maps the service error vocabulary onto HTTP statuses.
// Anything unrecognized is a 500 with a generic body.
func writeServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var (
		verr *service.ValidationError
		serr *service.InvalidStateError
		dup  *service.DuplicateClassificationError
		perr *service.PublishError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, service.ErrFeedbackRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.As(err, &serr):
		c.JSON(http.StatusConflict, gin.H{"error": serr.Error(), "status": string(serr.Current)})
	case errors.Is(err, service.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": "contribution was modified concurrently, re-fetch and retry"})
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{"error": dup.Error()})
	case errors.Is(err, service.ErrReviewerUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reviewer unavailable, try again later"})
	case errors.As(err, &perr):
		slog.ErrorContext(ctx, "publish failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "publish failed"})
	default:
		slog.ErrorContext(ctx, "unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
