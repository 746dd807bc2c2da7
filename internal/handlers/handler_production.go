package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fabtrack/fabledger/internal/core/domain"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/dto"
	"github.com/fabtrack/fabledger/internal/middleware"
)

// productionHandler handles HTTP requests for production orders.
type productionHandler struct {
	productionService portssvc.ProductionSvcFacade
}

func newProductionHandler(productionService portssvc.ProductionSvcFacade) *productionHandler {
	return &productionHandler{productionService: productionService}
}

func (h *productionHandler) createOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	createReq := dto.CreateProductionOrderRequest{}
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for CreateProductionOrder", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.productionService.CreateProductionOrder(c.Request.Context(), createReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create production order")
		return
	}

	logger.Info("Production order created", slog.String("order_id", order.OrderID), slog.String("number", order.Number))
	c.JSON(http.StatusCreated, order)
}

func (h *productionHandler) getOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("orderID")

	order, err := h.productionService.GetProductionOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve production order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *productionHandler) listOrders(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit, offset := parseListParams(c)

	orders, err := h.productionService.ListProductionOrders(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list production orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"productionOrders": orders})
}

// transition moves the production order through its lifecycle. Reservation,
// completion and cancellation carry inventory and ledger effects; the service
// runs those as coordinator units.
func (h *productionHandler) transition(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("orderID")

	transitionReq := dto.ProductionTransitionRequest{}
	if err := c.ShouldBindJSON(&transitionReq); err != nil {
		logger.Error("Failed to bind JSON for ProductionOrder transition", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	target := domain.ProductionOrderState(transitionReq.Target)
	order, err := h.productionService.Transition(c.Request.Context(), orderID, target, transitionReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to transition production order")
		return
	}

	logger.Info("Production order transitioned",
		slog.String("order_id", orderID),
		slog.String("target", string(target)),
	)
	c.JSON(http.StatusOK, order)
}

// registerProductionRoutes registers production order specific routes
func registerProductionRoutes(group *gin.RouterGroup, productionService portssvc.ProductionSvcFacade) {
	h := newProductionHandler(productionService)

	orders := group.Group("/production-orders")
	{
		orders.POST("", h.createOrder)
		orders.GET("", h.listOrders)
		orders.GET("/:orderID", h.getOrder)
		orders.POST("/:orderID/transition", h.transition)
	}
}
