package dto

import "github.com/shopspring/decimal"

// CreateJobWorkRequest opens a job work order in CREATED.
type CreateJobWorkRequest struct {
	Number        string          `json:"number" binding:"required"`
	ItemID        string          `json:"itemID" binding:"required"`
	DispatchedQty decimal.Decimal `json:"dispatchedQty" binding:"required"`
	RatePerUnit   decimal.Decimal `json:"ratePerUnit"`
}

// JobWorkTransitionRequest carries the target state of a job work transition
// plus its context. ASSIGNED requires exactly one of WorkerID /
// VendorPartnerID.
type JobWorkTransitionRequest struct {
	Target          string `json:"target" binding:"required,oneof=CREATED ASSIGNED IN_PROGRESS ON_HOLD COMPLETED CANCELLED"`
	WorkerID        string `json:"workerID"`
	VendorPartnerID string `json:"vendorPartnerID"`
}

// CreateGRNRequest opens a GRN in DRAFT against a job work.
type CreateGRNRequest struct {
	Number    string `json:"number" binding:"required"`
	JobWorkID string `json:"jobWorkID" binding:"required"`
}

// GRNTransitionRequest carries the context of a GRN transition.
// MATERIAL_RECEIVED uses ReceivedQty; INSPECTED uses the accepted/rejected
// split; CLEARING_POSTED uses ClearingValue and TaxAmount.
type GRNTransitionRequest struct {
	Target        string          `json:"target" binding:"required,oneof=DRAFT MATERIAL_RECEIVED INSPECTED CLEARING_POSTED FINALIZED CANCELLED"`
	ReceivedQty   decimal.Decimal `json:"receivedQty"`
	AcceptedQty   decimal.Decimal `json:"acceptedQty"`
	RejectedQty   decimal.Decimal `json:"rejectedQty"`
	ClearingValue decimal.Decimal `json:"clearingValue"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
}

// CreateProductionOrderRequest opens a production order in PLANNED.
type CreateProductionOrderRequest struct {
	Number     string          `json:"number" binding:"required"`
	ItemID     string          `json:"itemID" binding:"required"`
	PlannedQty decimal.Decimal `json:"plannedQty" binding:"required"`
}

// ProductionTransitionRequest carries the context of a production order
// transition. COMPLETED / PARTIALLY_COMPLETED use the produced/scrapped split.
type ProductionTransitionRequest struct {
	Target      string          `json:"target" binding:"required,oneof=PLANNED MATERIAL_RESERVED IN_PROGRESS COMPLETED PARTIALLY_COMPLETED CANCELLED"`
	ProducedQty decimal.Decimal `json:"producedQty"`
	ScrappedQty decimal.Decimal `json:"scrappedQty"`
}
