package domain

import (
	"encoding/json"
	"time"
)

// EventType names the business event that caused a movement or journal batch.
// Posting rules are keyed by these values.
type EventType string

const (
	EventGRNReceipt           EventType = "grn_receipt"
	EventGRNClearing          EventType = "grn_clearing"
	EventJobWorkDispatch      EventType = "job_work_dispatch"
	EventProductionReserve    EventType = "production_reserve"
	EventProductionCompletion EventType = "production_completion"
	EventScrapWriteoff        EventType = "scrap_writeoff"
	EventMaterialReturn       EventType = "material_return"
	EventSaleInvoice          EventType = "sale_invoice"
	EventManualAdjustment     EventType = "manual_adjustment"
	EventJournalReversal      EventType = "journal_reversal"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventGRNReceipt, EventGRNClearing, EventJobWorkDispatch,
		EventProductionReserve, EventProductionCompletion,
		EventScrapWriteoff, EventMaterialReturn, EventSaleInvoice,
		EventManualAdjustment, EventJournalReversal:
		return true
	}
	return false
}

// EventRef identifies one business event. ID is the idempotency reference:
// re-submitting the same ID is a no-op that replays the original result.
type EventRef struct {
	Type EventType `json:"type"`
	ID   string    `json:"id"` // job work id, GRN id, production order id, ...
}

// Key returns the stable string form used for idempotency lookups.
func (r EventRef) Key() string {
	return string(r.Type) + ":" + r.ID
}

// ProcessedEvent is the append-only record of a coordinator unit that
// committed. Result holds the serialized unit result so a duplicate
// submission can return the original outcome.
type ProcessedEvent struct {
	EventKey    string          `json:"eventKey"`
	EventType   EventType       `json:"eventType"`
	EventID     string          `json:"eventID"`
	Result      json.RawMessage `json:"result"`
	ProcessedAt time.Time       `json:"processedAt"`
}
