package domain

import "github.com/shopspring/decimal"

// PostingPayload carries the monetary facts of a business event into the
// posting rule for that event type. Rules are pure functions over this
// payload; fields not used by a given rule are ignored by it.
type PostingPayload struct {
	// Amount is the principal value of the event (receipt value, sale value,
	// scrap value written off).
	Amount decimal.Decimal `json:"amount"`
	// TaxAmount is the GST input component, when applicable.
	TaxAmount decimal.Decimal `json:"taxAmount"`
	// MaterialCost and LaborCost split a production completion into its
	// component and conversion legs.
	MaterialCost decimal.Decimal `json:"materialCost"`
	LaborCost    decimal.Decimal `json:"laborCost"`
	// CostOfGoods is the inventory cost relieved by a sale.
	CostOfGoods decimal.Decimal `json:"costOfGoods"`
	// SourceAccountCode names the inventory account a scrap write-off
	// relieves (RAW-INV, WIP-INV or FG-INV).
	SourceAccountCode string `json:"sourceAccountCode,omitempty"`
	// PartnerAccountCode overrides the control account for the partner leg
	// (vendor payable / customer receivable) when set.
	PartnerAccountCode string `json:"partnerAccountCode,omitempty"`
	// Outsourced distinguishes vendor job work (payable credit) from
	// in-house processing (WIP clearing) on GRN postings.
	Outsourced  bool   `json:"outsourced"`
	Description string `json:"description,omitempty"`
}
