package dto

import "github.com/shopspring/decimal"

// CreateItemRequest creates an item master record. An opening raw quantity, if
// given, is applied through the inventory state machine as a receipt so the
// movement log stays complete.
type CreateItemRequest struct {
	Code          string          `json:"code" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	UnitOfMeasure string          `json:"unitOfMeasure" binding:"required"`
	UnitCost      decimal.Decimal `json:"unitCost"`
	OpeningRawQty decimal.Decimal `json:"openingRawQty"`
}
