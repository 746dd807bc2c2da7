package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/dto"
	"github.com/fabtrack/fabledger/internal/middleware"
)

// itemHandler handles HTTP requests for item master data and its stock
// read model.
type itemHandler struct {
	itemService      portssvc.ItemSvcFacade
	inventoryService portssvc.InventoryReader
}

func newItemHandler(itemService portssvc.ItemSvcFacade, inventoryService portssvc.InventoryReader) *itemHandler {
	return &itemHandler{
		itemService:      itemService,
		inventoryService: inventoryService,
	}
}

func (h *itemHandler) createItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	createReq := dto.CreateItemRequest{}
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for CreateItem", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	item, err := h.itemService.CreateItem(c.Request.Context(), createReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create item")
		return
	}

	logger.Info("Item created", slog.String("item_id", item.ItemID), slog.String("code", item.Code))
	c.JSON(http.StatusCreated, item)
}

func (h *itemHandler) getItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	itemID := c.Param("itemID")

	item, err := h.itemService.GetItem(c.Request.Context(), itemID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *itemHandler) getItemByCode(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := c.Param("code")

	item, err := h.itemService.GetItemByCode(c.Request.Context(), code)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *itemHandler) listItems(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit, offset := parseListParams(c)

	items, err := h.itemService.ListItems(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list items")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *itemHandler) getSnapshot(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	itemID := c.Param("itemID")

	snapshot, err := h.inventoryService.GetStockSnapshot(c.Request.Context(), itemID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve stock snapshot")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// rebuildSnapshot replays the movement log and returns the derived snapshot,
// for reconciliation against the cached bucket columns.
func (h *itemHandler) rebuildSnapshot(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	itemID := c.Param("itemID")

	snapshot, err := h.inventoryService.RebuildSnapshot(c.Request.Context(), itemID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to rebuild stock snapshot")
		return
	}

	logger.Info("Stock snapshot rebuilt from movement log", slog.String("item_id", itemID))
	c.JSON(http.StatusOK, snapshot)
}

func (h *itemHandler) listMovements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	itemID := c.Param("itemID")
	limit, nextToken := parsePageParams(c)

	movements, next, err := h.inventoryService.ListMovements(c.Request.Context(), itemID, limit, nextToken)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list movements")
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "nextToken": next})
}

// registerItemRoutes registers item specific routes
func registerItemRoutes(group *gin.RouterGroup, itemService portssvc.ItemSvcFacade, inventoryService portssvc.InventoryReader) {
	h := newItemHandler(itemService, inventoryService)

	items := group.Group("/items")
	{
		items.POST("", h.createItem)
		items.GET("", h.listItems)
		items.GET("/code/:code", h.getItemByCode)
		items.GET("/:itemID", h.getItem)
		items.GET("/:itemID/snapshot", h.getSnapshot)
		items.POST("/:itemID/snapshot/rebuild", h.rebuildSnapshot)
		items.GET("/:itemID/movements", h.listMovements)
	}
}
