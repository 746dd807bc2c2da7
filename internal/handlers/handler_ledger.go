package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/fabtrack/fabledger/internal/core/domain"
	portssvc "github.com/fabtrack/fabledger/internal/core/ports/services"
	"github.com/fabtrack/fabledger/internal/dto"
	"github.com/fabtrack/fabledger/internal/middleware"
)

// ledgerHandler handles HTTP requests for journals, accounts and balances.
// Posting and reversal run as coordinator units so they share the same
// idempotency guarantees as inventory movements.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
	coordinator   portssvc.CoordinatorSvcFacade
}

func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade, coordinator portssvc.CoordinatorSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ledgerService,
		coordinator:   coordinator,
	}
}

func (h *ledgerHandler) postJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	postReq := dto.PostJournalRequest{}
	if err := c.ShouldBindJSON(&postReq); err != nil {
		logger.Error("Failed to bind JSON for PostJournal", slog.String("error", err.Error()))
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
		return h.ledgerService.PostJournal(ctx, tx, ref, postReq.Payload, actor)
	})
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post journal")
		return
	}

	if outcome.Replayed {
		logger.Info("Journal replayed from idempotency registry", slog.String("event_key", ref.Key()))
		c.JSON(http.StatusOK, gin.H{"replayed": true, "result": outcome.Stored})
		return
	}

	logger.Info("Journal posted", slog.String("event_key", ref.Key()))
	c.JSON(http.StatusCreated, gin.H{"replayed": false, "result": outcome.Result})
}

func (h *ledgerHandler) getJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	journal, lines, err := h.ledgerService.GetJournal(c.Request.Context(), journalID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve journal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"journal": journal, "lines": lines})
}

func (h *ledgerHandler) listJournals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit, nextToken := parsePageParams(c)

	journals, next, err := h.ledgerService.ListJournals(c.Request.Context(), limit, nextToken)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list journals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"journals": journals, "nextToken": next})
}

// reverseJournal posts the compensating mirror of an earlier journal. The
// reversal is itself an event, so a retried request replays instead of
// reversing twice.
func (h *ledgerHandler) reverseJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	ref := domain.EventRef{Type: domain.EventJournalReversal, ID: journalID}
	actor := actorID(c)

	outcome, err := h.coordinator.Execute(c.Request.Context(), ref, func(ctx context.Context, tx pgx.Tx) (any, error) {
		return h.ledgerService.ReverseJournal(ctx, tx, journalID, ref, actor)
	})
	if err != nil {
		respondServiceError(c, logger, err, "Failed to reverse journal")
		return
	}

	if outcome.Replayed {
		c.JSON(http.StatusOK, gin.H{"replayed": true, "result": outcome.Stored})
		return
	}

	logger.Info("Journal reversed", slog.String("journal_id", journalID))
	c.JSON(http.StatusCreated, gin.H{"replayed": false, "result": outcome.Result})
}

func (h *ledgerHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	createReq := dto.CreateAccountRequest{}
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	account, err := h.ledgerService.CreateAccount(c.Request.Context(), createReq, actorID(c))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create account")
		return
	}

	logger.Info("Account created", slog.String("code", account.Code))
	c.JSON(http.StatusCreated, account)
}

func (h *ledgerHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accounts, err := h.ledgerService.ListAccounts(c.Request.Context())
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// getBalance derives a point-in-time balance from journal lines. asOf is
// RFC3339; absent means now.
func (h *ledgerHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := c.Param("code")

	var asOf time.Time
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be RFC3339"})
			return
		}
		asOf = parsed
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), code, asOf)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to derive balance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"accountCode": code, "balance": balance, "asOf": asOf})
}

// registerLedgerRoutes registers journal and account routes
func registerLedgerRoutes(group *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade, coordinator portssvc.CoordinatorSvcFacade) {
	h := newLedgerHandler(ledgerService, coordinator)

	journals := group.Group("/journals")
	{
		journals.POST("", h.postJournal)
		journals.GET("", h.listJournals)
		journals.GET("/:journalID", h.getJournal)
		journals.POST("/:journalID/reverse", h.reverseJournal)
	}

	accounts := group.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:code/balance", h.getBalance)
	}
}
