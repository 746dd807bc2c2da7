package dto

import "github.com/fabtrack/fabledger/internal/core/domain"

// PostJournalRequest posts a journal batch for a business event through its
// posting rule, as an atomic coordinator unit keyed by the event reference.
type PostJournalRequest struct {
	EventType string                `json:"eventType" binding:"required"`
	EventID   string                `json:"eventID" binding:"required"`
	Payload   domain.PostingPayload `json:"payload" binding:"required"`
}
