package domain

import "github.com/shopspring/decimal"

// BOM is the recipe for producing one unit of the parent item. Components may
// themselves carry an active BOM (nested assemblies); the resulting directed
// graph must be acyclic.
type BOM struct {
	BOMID        string          `json:"bomID"`
	ParentItemID string          `json:"parentItemID"`
	Version      int             `json:"version"`
	IsActive     bool            `json:"isActive"`
	LaborCost    decimal.Decimal `json:"laborCost"` // per-unit labor across process steps
	Lines        []BOMLine       `json:"lines"`
	AuditFields
}

// BOMLine is one component requirement of a BOM, in definition order.
// ScrapRate is a fraction (0.10 means 10% expected loss at this step).
type BOMLine struct {
	LineID          string          `json:"lineID"`
	BOMID           string          `json:"bomID"`
	Position        int             `json:"position"`
	ComponentItemID string          `json:"componentItemID"`
	QtyPerUnit      decimal.Decimal `json:"qtyPerUnit"`
	ScrapRate       decimal.Decimal `json:"scrapRate"`
	ProcessStep     string          `json:"processStep"`
}

// Requirement is one flattened raw-material line produced by BOM resolution.
type Requirement struct {
	ItemID   string          `json:"itemID"`
	ItemCode string          `json:"itemCode"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unitCost"`
	Cost     decimal.Decimal `json:"cost"`
}

// ResolvedBOM is the flat requirement list for producing PlannedQty units of
// the target item, plus the total planned cost (component cost + labor).
type ResolvedBOM struct {
	ItemID       string          `json:"itemID"`
	PlannedQty   decimal.Decimal `json:"plannedQty"`
	Requirements []Requirement   `json:"requirements"`
	LaborCost    decimal.Decimal `json:"laborCost"`
	TotalCost    decimal.Decimal `json:"totalCost"`
}
