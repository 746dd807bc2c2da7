package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GRNState is the workflow state of a goods receipt note.
type GRNState string

const (
	GRNDraft            GRNState = "DRAFT"
	GRNMaterialReceived GRNState = "MATERIAL_RECEIVED"
	GRNInspected        GRNState = "INSPECTED"
	GRNClearingPosted   GRNState = "CLEARING_POSTED"
	GRNFinalized        GRNState = "FINALIZED"
	GRNCancelled        GRNState = "CANCELLED"
)

// grnEdges is the guard table of legal transitions. Once clearing is posted
// the stock and ledger effects are committed, so the only way forward is
// FINALIZED; corrections go through journal reversal, not cancellation.
var grnEdges = map[GRNState][]GRNState{
	GRNDraft:            {GRNMaterialReceived, GRNCancelled},
	GRNMaterialReceived: {GRNInspected, GRNCancelled},
	GRNInspected:        {GRNClearingPosted, GRNCancelled},
	GRNClearingPosted:   {GRNFinalized},
}

// CanTransitionTo reports whether the edge from s to target exists.
func (s GRNState) CanTransitionTo(target GRNState) bool {
	for _, next := range grnEdges[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s GRNState) IsTerminal() bool {
	return len(grnEdges[s]) == 0
}

// GRN records materials physically received back from a job-work vendor or an
// internal process. Inspection splits the received quantity into accepted and
// rejected; clearing posts the accounting entries for the receipt.
type GRN struct {
	GRNID       string          `json:"grnID"`
	Number      string          `json:"number"` // user-facing, unique
	JobWorkID   string          `json:"jobWorkID"`
	ItemID      string          `json:"itemID"`
	State       GRNState        `json:"state"`
	ReceivedQty decimal.Decimal `json:"receivedQty"`
	AcceptedQty decimal.Decimal `json:"acceptedQty"` // set at inspection
	RejectedQty decimal.Decimal `json:"rejectedQty"` // set at inspection, moves to scrap
	// Value of the receipt used for the clearing posting; for outsourced
	// work this is the vendor processing charge.
	ClearingValue decimal.Decimal `json:"clearingValue"`
	TaxAmount     decimal.Decimal `json:"taxAmount"` // GST input, optional
	ClearingJournalID string      `json:"clearingJournalID,omitempty"`
	ReceivedAt        *time.Time  `json:"receivedAt,omitempty"`
	InspectedAt       *time.Time  `json:"inspectedAt,omitempty"`
	AuditFields
}

// InspectionValid reports whether the accepted/rejected split accounts for the
// full received quantity with no negative leg.
func (g *GRN) InspectionValid() bool {
	if g.AcceptedQty.IsNegative() || g.RejectedQty.IsNegative() {
		return false
	}
	return g.AcceptedQty.Add(g.RejectedQty).Equal(g.ReceivedQty)
}
