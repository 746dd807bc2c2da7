package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fabtrack/fabledger/internal/apperrors"
)

// actorID resolves the acting user from the X-Actor-ID header. Requests from
// internal schedulers arrive without one and are attributed to "system".
func actorID(c *gin.Context) string {
	if v := c.GetHeader("X-Actor-ID"); v != "" {
		return v
	}
	return "system"
}

// respondServiceError maps service errors to HTTP responses. fallback is the
// message returned for unclassified errors so internals never leak.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var (
		insufficient *apperrors.InsufficientStockError
		overReceipt  *apperrors.OverReceiptError
		cyclic       *apperrors.CyclicBOMReferenceError
		transition   *apperrors.InvalidStateTransitionError
		concurrent   *apperrors.ConcurrentModificationError
	)
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Duplicate resource", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &transition):
		logger.Warn("Invalid state transition", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient), errors.As(err, &overReceipt), errors.As(err, &cyclic):
		logger.Warn("Business rule violation", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &concurrent):
		logger.Warn("Concurrent modification, retries exhausted", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// parseListParams reads limit/offset query params with sane bounds.
func parseListParams(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parsePageParams reads limit plus the opaque keyset token.
func parsePageParams(c *gin.Context) (limit int, nextToken *string) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	if tok := c.Query("nextToken"); tok != "" {
		nextToken = &tok
	}
	return limit, nextToken
}
