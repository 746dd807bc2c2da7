package domain

import "github.com/shopspring/decimal"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// Well-known account codes seeded by migration. Posting rules address accounts
// by these codes rather than by id.
const (
	AcctRawInventory  = "RAW-INV"
	AcctWIPInventory  = "WIP-INV"
	AcctFGInventory   = "FG-INV"
	AcctGRNClearing   = "GRN-CLR"
	AcctVendorPayable = "AP-VENDOR"
	AcctCustomerRecv  = "AR-CUSTOMER"
	AcctSales         = "SALES"
	AcctCOGS          = "COGS"
	AcctScrapExpense  = "SCRAP-EXP"
	AcctLaborOverhead = "LABOR-OH"
	AcctGSTInput      = "GST-INPUT"
)

// Account is a ledger account in the chart of accounts. Balance is a derived,
// transactionally maintained cache over the journal lines; the journal log is
// authoritative and the cache is recomputable from it.
type Account struct {
	AccountID    string          `json:"accountID"`
	Code         string          `json:"code"` // unique
	Name         string          `json:"name"`
	AccountType  AccountType     `json:"accountType"`
	CurrencyCode string          `json:"currencyCode"`
	Description  string          `json:"description"`
	IsActive     bool            `json:"isActive"`
	Balance      decimal.Decimal `json:"balance"`
	AuditFields
}
