package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/dto"
	"github.com/fabtrack/fabledger/internal/middleware"
)

// bomHandler handles HTTP requests for bill-of-material definitions and
// resolution.
type bomHandler struct {
	bomService portssvc.BOMSvcFacade
}

func newBOMHandler(bomService portssvc.BOMSvcFacade) *bomHandler {
	return &bomHandler{bomService: bomService}
}

func (h *bomHandler) saveBOM(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	saveReq := dto.SaveBOMRequest{}
	if err := c.ShouldBindJSON(&saveReq); err != nil {
		logger.Error("Failed to bind JSON for SaveBOM", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	bom, err := h.bomService.SaveBOM(c.Request.Context(), saveReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to save BOM")
		return
	}

	logger.Info("BOM version saved",
		slog.String("bom_id", bom.BOMID),
		slog.String("parent_item_id", bom.ParentItemID),
		slog.Int("version", bom.Version),
	)
	c.JSON(http.StatusCreated, bom)
}

func (h *bomHandler) getActiveBOM(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	itemID := c.Param("itemID")

	bom, err := h.bomService.GetActiveBOM(c.Request.Context(), itemID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve BOM")
		return
	}
	c.JSON(http.StatusOK, bom)
}

// resolveBOM expands the active BOM tree into flat raw-material requirements
// for a planned quantity.
func (h *bomHandler) resolveBOM(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	itemID := c.Param("itemID")

	resolveReq := dto.ResolveBOMRequest{}
	if err := c.ShouldBindJSON(&resolveReq); err != nil {
		logger.Error("Failed to bind JSON for ResolveBOM", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	resolved, err := h.bomService.ResolveBOM(c.Request.Context(), itemID, resolveReq.PlannedQty)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to resolve BOM")
		return
	}
	c.JSON(http.StatusOK, resolved)
}

// registerBOMRoutes registers BOM specific routes
func registerBOMRoutes(group *gin.RouterGroup, bomService portssvc.BOMSvcFacade) {
	h := newBOMHandler(bomService)

	boms := group.Group("/boms")
	{
		boms.POST("", h.saveBOM)
		boms.GET("/:itemID", h.getActiveBOM)
		boms.POST("/:itemID/resolve", h.resolveBOM)
	}
}
