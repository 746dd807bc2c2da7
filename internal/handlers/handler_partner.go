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

// partnerHandler handles HTTP requests for business partners.
type partnerHandler struct {
	partnerService portssvc.PartnerSvcFacade
}

func newPartnerHandler(partnerService portssvc.PartnerSvcFacade) *partnerHandler {
	return &partnerHandler{partnerService: partnerService}
}

func (h *partnerHandler) createPartner(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	createReq := dto.CreatePartnerRequest{}
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for CreatePartner", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	partner, err := h.partnerService.CreatePartner(c.Request.Context(), createReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create partner")
		return
	}

	logger.Info("Partner created", slog.String("partner_id", partner.PartnerID), slog.String("code", partner.Code))
	c.JSON(http.StatusCreated, partner)
}

func (h *partnerHandler) getPartner(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partnerID := c.Param("partnerID")

	partner, err := h.partnerService.GetPartner(c.Request.Context(), partnerID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve partner")
		return
	}
	c.JSON(http.StatusOK, partner)
}

func (h *partnerHandler) listPartners(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var kind *domain.PartnerKind
	if k := c.Query("kind"); k != "" {
		pk := domain.PartnerKind(k)
		if !pk.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown partner kind"})
			return
		}
		kind = &pk
	}

	partners, err := h.partnerService.ListPartners(c.Request.Context(), kind)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list partners")
		return
	}
	c.JSON(http.StatusOK, gin.H{"partners": partners})
}

// registerPartnerRoutes registers partner specific routes
func registerPartnerRoutes(group *gin.RouterGroup, partnerService portssvc.PartnerSvcFacade) {
	h := newPartnerHandler(partnerService)

	partners := group.Group("/partners")
	{
		partners.POST("", h.createPartner)
		partners.GET("", h.listPartners)
		partners.GET("/:partnerID", h.getPartner)
	}
}
