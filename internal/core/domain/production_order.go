package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionOrderState is the workflow state of an in-house production order.
type ProductionOrderState string

const (
	ProductionPlanned          ProductionOrderState = "PLANNED"
	ProductionMaterialReserved ProductionOrderState = "MATERIAL_RESERVED"
	ProductionInProgress       ProductionOrderState = "IN_PROGRESS"
	ProductionCompleted        ProductionOrderState = "COMPLETED"
	ProductionPartial          ProductionOrderState = "PARTIALLY_COMPLETED"
	ProductionCancelled        ProductionOrderState = "CANCELLED"
)

var productionEdges = map[ProductionOrderState][]ProductionOrderState{
	ProductionPlanned:          {ProductionMaterialReserved, ProductionCancelled},
	ProductionMaterialReserved: {ProductionInProgress, ProductionCancelled},
	ProductionInProgress:       {ProductionCompleted, ProductionPartial, ProductionCancelled},
	ProductionPartial:          {ProductionCompleted, ProductionCancelled},
}

// CanTransitionTo reports whether the edge from s to target exists.
func (s ProductionOrderState) CanTransitionTo(target ProductionOrderState) bool {
	for _, next := range productionEdges[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s ProductionOrderState) IsTerminal() bool {
	return len(productionEdges[s]) == 0
}

// ProductionOrder produces PlannedQty units of an item from its BOM.
// MATERIAL_RESERVED resolves the BOM and moves every component to WIP;
// completion receives the produced item from WIP and posts labor/overhead.
type ProductionOrder struct {
	OrderID      string               `json:"orderID"`
	Number       string               `json:"number"` // user-facing, unique
	ItemID       string               `json:"itemID"`
	BOMID        string               `json:"bomID"`
	State        ProductionOrderState `json:"state"`
	PlannedQty   decimal.Decimal      `json:"plannedQty"`
	ProducedQty  decimal.Decimal      `json:"producedQty"`
	ScrappedQty  decimal.Decimal      `json:"scrappedQty"`
	PlannedCost  decimal.Decimal      `json:"plannedCost"` // from BOM resolution
	LaborCost    decimal.Decimal      `json:"laborCost"`
	// Requirements is the flat component list the order reserved with,
	// captured at MATERIAL_RESERVED. Later BOM edits never alter it.
	Requirements []Requirement `json:"requirements,omitempty"`
	ReservedAt   *time.Time    `json:"reservedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
	AuditFields
}

// Started reports whether material has been reserved; a started order keeps
// the requirements it reserved with even if the BOM is edited afterwards.
func (p *ProductionOrder) Started() bool {
	return p.State != ProductionPlanned && p.State != ProductionCancelled
}
