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

// grnHandler handles HTTP requests for goods receipt notes.
type grnHandler struct {
	grnService portssvc.GRNSvcFacade
}

func newGRNHandler(grnService portssvc.GRNSvcFacade) *grnHandler {
	return &grnHandler{grnService: grnService}
}

func (h *grnHandler) createGRN(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	createReq := dto.CreateGRNRequest{}
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for CreateGRN", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	grn, err := h.grnService.CreateGRN(c.Request.Context(), createReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create GRN")
		return
	}

	logger.Info("GRN created", slog.String("grn_id", grn.GRNID), slog.String("number", grn.Number))
	c.JSON(http.StatusCreated, grn)
}

func (h *grnHandler) getGRN(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	grnID := c.Param("grnID")

	grn, err := h.grnService.GetGRN(c.Request.Context(), grnID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve GRN")
		return
	}
	c.JSON(http.StatusOK, grn)
}

func (h *grnHandler) listGRNsByJobWork(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	jobWorkID := c.Param("jobWorkID")

	grns, err := h.grnService.ListGRNsByJobWork(c.Request.Context(), jobWorkID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list GRNs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"grns": grns})
}

// transition moves the GRN through its lifecycle. Clearing posts stock and
// ledger effects atomically via the coordinator inside the service.
func (h *grnHandler) transition(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	grnID := c.Param("grnID")

	transitionReq := dto.GRNTransitionRequest{}
	if err := c.ShouldBindJSON(&transitionReq); err != nil {
		logger.Error("Failed to bind JSON for GRN transition", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	target := domain.GRNState(transitionReq.Target)
	grn, err := h.grnService.Transition(c.Request.Context(), grnID, target, transitionReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to transition GRN")
		return
	}

	logger.Info("GRN transitioned",
		slog.String("grn_id", grnID),
		slog.String("target", string(target)),
	)
	c.JSON(http.StatusOK, grn)
}

// registerGRNRoutes registers GRN specific routes
func registerGRNRoutes(group *gin.RouterGroup, grnService portssvc.GRNSvcFacade) {
	h := newGRNHandler(grnService)

	grns := group.Group("/grns")
	{
		grns.POST("", h.createGRN)
		grns.GET("/:grnID", h.getGRN)
		grns.POST("/:grnID/transition", h.transition)
	}

	group.GET("/job-works/:jobWorkID/grns", h.listGRNsByJobWork)
}
