package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineSide indicates whether a journal line is a Debit or a Credit.
type LineSide string

const (
	Debit  LineSide = "DEBIT"
	Credit LineSide = "CREDIT"
)

// JournalStatus indicates the state of a journal batch.
type JournalStatus string

const (
	JournalPosted   JournalStatus = "POSTED"
	JournalReversed JournalStatus = "REVERSED"
)

// Journal represents one balanced batch of ledger lines caused by a single
// business event. A batch is the unit of atomicity for accounting: it is
// created and committed only by the transaction coordinator, never partially.
type Journal struct {
	JournalID    string        `json:"journalID"`
	JournalDate  time.Time     `json:"journalDate"`
	EventType    EventType     `json:"eventType"`
	EventID      string        `json:"eventID"`
	Description  string        `json:"description"`
	CurrencyCode string        `json:"currencyCode"`
	Status       JournalStatus `json:"status"`
	// Reversal linkage: set when this journal reverses, or is reversed by,
	// another batch.
	ReversingJournalID string `json:"reversingJournalID,omitempty"`
	OriginalJournalID  string `json:"originalJournalID,omitempty"`
	AuditFields
}

// JournalLine is a single debit or credit within a journal batch.
// Amount is always positive; Side carries the direction.
type JournalLine struct {
	LineID      string          `json:"lineID"`
	JournalID   string          `json:"journalID"`
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	Amount      decimal.Decimal `json:"amount"`
	Side        LineSide        `json:"side"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"createdAt"`
	CreatedBy   string          `json:"createdBy"`
}

// SignedAmount applies the accounting convention sign for the line against an
// account of the given type: debits increase assets/expenses, credits increase
// liabilities/equity/income.
func (l JournalLine) SignedAmount(accountType AccountType) decimal.Decimal {
	amt := l.Amount
	isDebit := l.Side == Debit
	switch accountType {
	case Asset, Expense:
		if !isDebit {
			amt = amt.Neg()
		}
	case Liability, Equity, Income:
		if isDebit {
			amt = amt.Neg()
		}
	}
	return amt
}

// SumSides totals the debit and credit sides of a set of lines.
func SumSides(lines []JournalLine) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range lines {
		if l.Side == Debit {
			debits = debits.Add(l.Amount)
		} else {
			credits = credits.Add(l.Amount)
		}
	}
	return debits, credits
}
