package dto

import "github.com/shopspring/decimal"

// SaveBOMLine is one component line of a BOM definition. Lines proposed by
// vision/OCR modules arrive with Confirmed=false and are rejected until a
// planner confirms them.
type SaveBOMLine struct {
	ComponentItemID string          `json:"componentItemID" binding:"required"`
	QtyPerUnit      decimal.Decimal `json:"qtyPerUnit" binding:"required"`
	ScrapRate       decimal.Decimal `json:"scrapRate"`
	ProcessStep     string          `json:"processStep"`
	Confirmed       bool            `json:"confirmed"`
}

// SaveBOMRequest stores a new BOM version for a parent item.
type SaveBOMRequest struct {
	ParentItemID string          `json:"parentItemID" binding:"required"`
	LaborCost    decimal.Decimal `json:"laborCost"`
	Lines        []SaveBOMLine   `json:"lines" binding:"required,min=1,dive"`
}

// ResolveBOMRequest asks for a flat requirement list for a planned quantity.
type ResolveBOMRequest struct {
	PlannedQty decimal.Decimal `json:"plannedQty" binding:"required"`
}
