package apperrors

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientStockError is returned when a stock bucket does not hold enough
// quantity to satisfy a requested movement or consumption.
type InsufficientStockError struct {
	ItemCode  string
	Bucket    string // stock state the quantity was requested from
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %s from %s, available %s",
		e.ItemCode, e.Requested.String(), e.Bucket, e.Available.String())
}

// OverReceiptError is returned when a WIP receipt (finished + scrap) exceeds
// the quantity outstanding in WIP for the item.
type OverReceiptError struct {
	ItemCode       string
	Received       decimal.Decimal
	OutstandingWIP decimal.Decimal
}

func (e *OverReceiptError) Error() string {
	return fmt.Sprintf("over-receipt for item %s: received %s exceeds outstanding WIP %s",
		e.ItemCode, e.Received.String(), e.OutstandingWIP.String())
}

// CyclicBOMReferenceError is returned when BOM resolution revisits an item that
// is already on the current traversal path. It is a configuration defect and is
// never retried.
type CyclicBOMReferenceError struct {
	ItemCode string
	Path     []string // item codes from the root to the repeated node
}

func (e *CyclicBOMReferenceError) Error() string {
	return fmt.Sprintf("cyclic BOM reference at item %s (path: %v)", e.ItemCode, e.Path)
}

// UnbalancedJournalError is returned when the debit and credit sides of a
// journal batch do not match. It indicates a posting-rule bug and is never
// silently corrected.
type UnbalancedJournalError struct {
	EventType  string
	DebitsSum  decimal.Decimal
	CreditsSum decimal.Decimal
}

func (e *UnbalancedJournalError) Error() string {
	return fmt.Sprintf("unbalanced journal for event %s: debits %s, credits %s",
		e.EventType, e.DebitsSum.String(), e.CreditsSum.String())
}

// InvalidStateTransitionError is returned when a workflow entity is asked to
// move to a state its guard table forbids. Reason carries the guard that failed
// when the edge itself exists but a precondition does not hold.
type InvalidStateTransitionError struct {
	Entity    string
	EntityID  string
	FromState string
	ToState   string
	Reason    string
}

func (e *InvalidStateTransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition for %s %s: %s -> %s", e.Entity, e.EntityID, e.FromState, e.ToState)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ConcurrentModificationError is surfaced after a coordinator unit has
// exhausted its retries on serialization failures or lock timeouts.
type ConcurrentModificationError struct {
	EventRef string
	Attempts int
	Last     error
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("concurrent modification for event %s after %d attempts: %v", e.EventRef, e.Attempts, e.Last)
}

func (e *ConcurrentModificationError) Unwrap() error { return e.Last }

// DuplicateTransactionError signals that an event reference has already been
// applied. The coordinator swallows it into an idempotent success; it is
// exported so tests and internal callers can still detect the short-circuit.
type DuplicateTransactionError struct {
	EventRef string
}

func (e *DuplicateTransactionError) Error() string {
	return fmt.Sprintf("event %s already processed", e.EventRef)
}
