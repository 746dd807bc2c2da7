package handlers

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/pkg/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1")

	// Delegate route registration to specific handlers, passing required services
	registerItemRoutes(v1, services.Item, services.Inventory)
	registerPartnerRoutes(v1, services.Partner)
	RegisterMovementRoutes(v1, services.Inventory, services.Coordinator)
	registerBOMRoutes(v1, services.BOM)
	registerLedgerRoutes(v1, services.Ledger, services.Coordinator)
	registerJobWorkRoutes(v1, services.JobWork)
	registerGRNRoutes(v1, services.GRN)
	registerProductionRoutes(v1, services.Production)
}
