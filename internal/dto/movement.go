package dto

import "github.com/shopspring/decimal"

// PostMovementRequest applies one inventory state transition as an atomic
// coordinator unit. The from/to pair selects the state machine operation:
//
//	RAW      -> WIP       moveToWIP
//	WIP      -> FINISHED  receiveFromWIP (ScrapQty may accompany)
//	EXTERNAL -> RAW       receiveRaw
//	FINISHED -> EXTERNAL  consumeFinished
//	*        -> SCRAP     scrapAdjust
type PostMovementRequest struct {
	ItemID    string          `json:"itemID" binding:"required"`
	FromState string          `json:"fromState" binding:"required,oneof=RAW WIP FINISHED SCRAP EXTERNAL"`
	ToState   string          `json:"toState" binding:"required,oneof=RAW WIP FINISHED SCRAP EXTERNAL"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	// ScrapQty is the scrap leg of a WIP receipt.
	ScrapQty decimal.Decimal `json:"scrapQty"`
	// AllowRawSubstitute lets raw stock cover a finished-goods shortfall on
	// consumption.
	AllowRawSubstitute bool   `json:"allowRawSubstitute"`
	EventType          string `json:"eventType" binding:"required"`
	EventID            string `json:"eventID" binding:"required"`
	Notes              string `json:"notes"`
}
