package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/dto"
	"github.com/fabtrack/fabledger/internal/middleware"
)

// movementHandler exposes the inventory state machine over HTTP. Every post
// runs as one coordinator unit keyed by the caller's event reference, so
// retried requests replay instead of double-moving stock.
type movementHandler struct {
	inventoryService portssvc.InventorySvcFacade
	coordinator      portssvc.CoordinatorSvcFacade
}

func newMovementHandler(inventoryService portssvc.InventorySvcFacade, coordinator portssvc.CoordinatorSvcFacade) *movementHandler {
	return &movementHandler{
		inventoryService: inventoryService,
		coordinator:      coordinator,
	}
}

func (h *movementHandler) postMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	postReq := dto.PostMovementRequest{}
	if err := c.ShouldBindJSON(&postReq); err != nil {
		logger.Error("Failed to bind JSON for PostMovement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	eventType := domain.EventType(postReq.EventType)
	if !eventType.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event type"})
		return
	}
	ref := domain.EventRef{Type: eventType, ID: postReq.EventID}
	actor := actorID(c)

	outcome, err := h.coordinator.Execute(c.Request.Context(), ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		return h.applyMovement(ctx, tx, postReq, ref, actor)
	})
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post movement")
		return
	}

	if outcome.Replayed {
		logger.Info("Movement replayed from idempotency registry", slog.String("event_key", ref.Key()))
		c.JSON(http.StatusOK, gin.H{"replayed": true, "result": outcome.Stored})
		return
	}

	logger.Info("Movement posted",
		slog.String("event_key", ref.Key()),
		slog.String("item_id", postReq.ItemID),
	)
	c.JSON(http.StatusCreated, gin.H{"replayed": false, "result": outcome.Result})
}

// applyMovement selects the state machine operation from the from/to pair.
func (h *movementHandler) applyMovement(ctx context.Context, tx pgx.Tx, req dto.PostMovementRequest, ref domain.EventRef, actor string) (any, error) {
	from := domain.StockState(req.FromState)
	to := domain.StockState(req.ToState)

	if to == domain.StateScrap && from.IsBucket() {
		return h.inventoryService.ScrapAdjust(ctx, tx, req.ItemID, req.Quantity, from, ref, actor)
	}

	switch {
	case from == domain.StateRaw && to == domain.StateWIP:
		return h.inventoryService.MoveToWIP(ctx, tx, req.ItemID, req.Quantity, ref, actor)
	case from == domain.StateWIP && to == domain.StateFinished:
		return h.inventoryService.ReceiveFromWIP(ctx, tx, req.ItemID, req.Quantity, req.ScrapQty, ref, actor)
	case from == domain.StateWIP && to == domain.StateRaw:
		return h.inventoryService.ReturnFromWIP(ctx, tx, req.ItemID, req.Quantity, ref, actor)
	case from == domain.StateWIP && to == domain.StateExternal:
		return h.inventoryService.ConsumeWIP(ctx, tx, req.ItemID, req.Quantity, ref, actor)
	case from == domain.StateExternal && to == domain.StateRaw:
		return h.inventoryService.ReceiveRaw(ctx, tx, req.ItemID, req.Quantity, ref, actor)
	case from == domain.StateExternal && to == domain.StateFinished:
		return h.inventoryService.ReceiveProduced(ctx, tx, req.ItemID, req.Quantity, req.ScrapQty, ref, actor)
	case from == domain.StateFinished && to == domain.StateExternal:
		return h.inventoryService.ConsumeFinished(ctx, tx, req.ItemID, req.Quantity, req.AllowRawSubstitute, ref, actor)
	}
	return nil, fmt.Errorf("%w: no inventory operation moves stock from %s to %s", apperrors.ErrValidation, from, to)
}

// RegisterMovementRoutes registers the movement posting route
func RegisterMovementRoutes(group *gin.RouterGroup, inventoryService portssvc.InventorySvcFacade, coordinator portssvc.CoordinatorSvcFacade) {
	h := newMovementHandler(inventoryService, coordinator)

	group.POST("/movements", h.postMovement)
}
