package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is one append-only transfer of quantity between two stock states of
// an item. Movements are never updated or deleted; corrections are recorded as
// compensating movements. The movement log is the source of truth for the
// item's bucket quantities.
type Movement struct {
	MovementID string          `json:"movementID"`
	ItemID     string          `json:"itemID"`
	FromState  StockState      `json:"fromState"`
	ToState    StockState      `json:"toState"`
	Quantity   decimal.Decimal `json:"quantity"` // always positive
	EventType  EventType       `json:"eventType"`
	EventID    string          `json:"eventID"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"createdAt"`
	CreatedBy  string          `json:"createdBy"`
}

// EventRef returns the causing-event reference of the movement.
func (m Movement) EventRef() EventRef {
	return EventRef{Type: m.EventType, ID: m.EventID}
}
