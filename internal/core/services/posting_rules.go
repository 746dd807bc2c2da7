package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
)

// ruleLine is one account leg produced by a posting rule, addressed by
// account code. The ledger service resolves codes to accounts and verifies
// the balance invariant before anything is written.
type ruleLine struct {
	AccountCode string
	Side        domain.LineSide
	Amount      decimal.Decimal
	Notes       string
}

// PostingRule is a pure function mapping an event payload to ledger legs.
// Rules construct balanced line sets; the ledger still verifies and treats a
// mismatch as a fatal rule bug.
type PostingRule func(p domain.PostingPayload) ([]ruleLine, error)

// postingRules keys each business-event type to its rule.
var postingRules = map[domain.EventType]PostingRule{
	domain.EventGRNReceipt:           postGRNReceipt,
	domain.EventGRNClearing:          postGRNClearing,
	domain.EventJobWorkDispatch:      postMaterialToWIP,
	domain.EventProductionReserve:    postMaterialToWIP,
	domain.EventProductionCompletion: postProductionCompletion,
	domain.EventScrapWriteoff:        postScrapWriteoff,
	domain.EventMaterialReturn:       postMaterialReturn,
	domain.EventManualAdjustment:     postScrapWriteoff,
	domain.EventSaleInvoice:          postSaleInvoice,
}

func requirePositive(name string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: %s must be positive, got %s", apperrors.ErrValidation, name, amount.String())
	}
	return nil
}

// postGRNReceipt books a purchase receipt of raw material: inventory (and GST
// input) against the supplier payable.
func postGRNReceipt(p domain.PostingPayload) ([]ruleLine, error) {
	if err := requirePositive("amount", p.Amount); err != nil {
		return nil, err
	}
	payable := p.PartnerAccountCode
	if payable == "" {
		payable = domain.AcctVendorPayable
	}
	lines := []ruleLine{
		{AccountCode: domain.AcctRawInventory, Side: domain.Debit, Amount: p.Amount},
	}
	total := p.Amount
	if p.TaxAmount.IsPositive() {
		lines = append(lines, ruleLine{AccountCode: domain.AcctGSTInput, Side: domain.Debit, Amount: p.TaxAmount})
		total = total.Add(p.TaxAmount)
	}
	lines = append(lines, ruleLine{AccountCode: payable, Side: domain.Credit, Amount: total})
	return lines, nil
}

// postGRNClearing books the value of goods received back from processing.
// Outsourced work credits the vendor payable; in-house work clears WIP.
func postGRNClearing(p domain.PostingPayload) ([]ruleLine, error) {
	if err := requirePositive("amount", p.Amount); err != nil {
		return nil, err
	}
	if !p.Outsourced {
		return []ruleLine{
			{AccountCode: domain.AcctFGInventory, Side: domain.Debit, Amount: p.Amount},
			{AccountCode: domain.AcctWIPInventory, Side: domain.Credit, Amount: p.Amount},
		}, nil
	}
	payable := p.PartnerAccountCode
	if payable == "" {
		payable = domain.AcctVendorPayable
	}
	lines := []ruleLine{
		{AccountCode: domain.AcctGRNClearing, Side: domain.Debit, Amount: p.Amount},
	}
	total := p.Amount
	if p.TaxAmount.IsPositive() {
		lines = append(lines, ruleLine{AccountCode: domain.AcctGSTInput, Side: domain.Debit, Amount: p.TaxAmount})
		total = total.Add(p.TaxAmount)
	}
	lines = append(lines, ruleLine{AccountCode: payable, Side: domain.Credit, Amount: total})
	return lines, nil
}

// postMaterialToWIP books material value moving from raw inventory into WIP,
// for job-work dispatch and production reservation alike.
func postMaterialToWIP(p domain.PostingPayload) ([]ruleLine, error) {
	if err := requirePositive("amount", p.Amount); err != nil {
		return nil, err
	}
	return []ruleLine{
		{AccountCode: domain.AcctWIPInventory, Side: domain.Debit, Amount: p.Amount},
		{AccountCode: domain.AcctRawInventory, Side: domain.Credit, Amount: p.Amount},
	}, nil
}

// postMaterialReturn books material value coming back unprocessed from WIP
// into raw inventory, the inverse of a dispatch or reservation.
func postMaterialReturn(p domain.PostingPayload) ([]ruleLine, error) {
	if err := requirePositive("amount", p.Amount); err != nil {
		return nil, err
	}
	return []ruleLine{
		{AccountCode: domain.AcctRawInventory, Side: domain.Debit, Amount: p.Amount},
		{AccountCode: domain.AcctWIPInventory, Side: domain.Credit, Amount: p.Amount},
	}, nil
}

// postProductionCompletion capitalizes finished goods at material plus labor,
// relieving WIP and absorbing labor/overhead.
func postProductionCompletion(p domain.PostingPayload) ([]ruleLine, error) {
	if err := requirePositive("material cost", p.MaterialCost); err != nil {
		return nil, err
	}
	if p.LaborCost.IsNegative() {
		return nil, fmt.Errorf("%w: labor cost must not be negative", apperrors.ErrValidation)
	}
	lines := []ruleLine{
		{AccountCode: domain.AcctFGInventory, Side: domain.Debit, Amount: p.MaterialCost.Add(p.LaborCost)},
		{AccountCode: domain.AcctWIPInventory, Side: domain.Credit, Amount: p.MaterialCost},
	}
	if p.LaborCost.IsPositive() {
		lines = append(lines, ruleLine{AccountCode: domain.AcctLaborOverhead, Side: domain.Credit, Amount: p.LaborCost})
	}
	return lines, nil
}

// postScrapWriteoff expenses scrapped material out of the named inventory
// account.
func postScrapWriteoff(p domain.PostingPayload) ([]ruleLine, error) {
	if err := requirePositive("amount", p.Amount); err != nil {
		return nil, err
	}
	source := p.SourceAccountCode
	switch source {
	case domain.AcctRawInventory, domain.AcctWIPInventory, domain.AcctFGInventory:
	case "":
		source = domain.AcctWIPInventory
	default:
		return nil, fmt.Errorf("%w: %s is not an inventory account", apperrors.ErrValidation, source)
	}
	return []ruleLine{
		{AccountCode: domain.AcctScrapExpense, Side: domain.Debit, Amount: p.Amount},
		{AccountCode: source, Side: domain.Credit, Amount: p.Amount},
	}, nil
}

// postSaleInvoice books revenue against the customer receivable and relieves
// finished goods at cost.
func postSaleInvoice(p domain.PostingPayload) ([]ruleLine, error) {
	if err := requirePositive("amount", p.Amount); err != nil {
		return nil, err
	}
	receivable := p.PartnerAccountCode
	if receivable == "" {
		receivable = domain.AcctCustomerRecv
	}
	lines := []ruleLine{
		{AccountCode: receivable, Side: domain.Debit, Amount: p.Amount},
		{AccountCode: domain.AcctSales, Side: domain.Credit, Amount: p.Amount},
	}
	if p.CostOfGoods.IsPositive() {
		lines = append(lines,
			ruleLine{AccountCode: domain.AcctCOGS, Side: domain.Debit, Amount: p.CostOfGoods},
			ruleLine{AccountCode: domain.AcctFGInventory, Side: domain.Credit, Amount: p.CostOfGoods},
		)
	}
	return lines, nil
}
