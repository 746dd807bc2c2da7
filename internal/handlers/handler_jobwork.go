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

// jobWorkHandler handles HTTP requests for job work orders.
type jobWorkHandler struct {
	jobWorkService portssvc.JobWorkSvcFacade
}

func newJobWorkHandler(jobWorkService portssvc.JobWorkSvcFacade) *jobWorkHandler {
	return &jobWorkHandler{jobWorkService: jobWorkService}
}

func (h *jobWorkHandler) createJobWork(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	createReq := dto.CreateJobWorkRequest{}
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for CreateJobWork", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	jobWork, err := h.jobWorkService.CreateJobWork(c.Request.Context(), createReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create job work")
		return
	}

	logger.Info("Job work created", slog.String("job_work_id", jobWork.JobWorkID), slog.String("number", jobWork.Number))
	c.JSON(http.StatusCreated, jobWork)
}

func (h *jobWorkHandler) getJobWork(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	jobWorkID := c.Param("jobWorkID")

	jobWork, err := h.jobWorkService.GetJobWork(c.Request.Context(), jobWorkID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve job work")
		return
	}
	c.JSON(http.StatusOK, jobWork)
}

func (h *jobWorkHandler) listJobWorks(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit, offset := parseListParams(c)

	jobWorks, err := h.jobWorkService.ListJobWorks(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list job works")
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobWorks": jobWorks})
}

// transition moves the job work through its guarded state machine. Dispatch
// and cancellation carry inventory and ledger effects; the service runs those
// as coordinator units.
func (h *jobWorkHandler) transition(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	jobWorkID := c.Param("jobWorkID")

	transitionReq := dto.JobWorkTransitionRequest{}
	if err := c.ShouldBindJSON(&transitionReq); err != nil {
		logger.Error("Failed to bind JSON for JobWork transition", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	target := domain.JobWorkState(transitionReq.Target)
	jobWork, err := h.jobWorkService.Transition(c.Request.Context(), jobWorkID, target, transitionReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to transition job work")
		return
	}

	logger.Info("Job work transitioned",
		slog.String("job_work_id", jobWorkID),
		slog.String("target", string(target)),
	)
	c.JSON(http.StatusOK, jobWork)
}

// registerJobWorkRoutes registers job work specific routes
func registerJobWorkRoutes(group *gin.RouterGroup, jobWorkService portssvc.JobWorkSvcFacade) {
	h := newJobWorkHandler(jobWorkService)

	jobWorks := group.Group("/job-works")
	{
		jobWorks.POST("", h.createJobWork)
		jobWorks.GET("", h.listJobWorks)
		jobWorks.GET("/:jobWorkID", h.getJobWork)
		jobWorks.POST("/:jobWorkID/transition", h.transition)
	}
}
