package domain

import "github.com/shopspring/decimal"

// StockState identifies one of the conserved quantity buckets of an item.
// An item's state is a vector, not a single enum: stock can sit in several
// buckets at once.
type StockState string

const (
	StateRaw      StockState = "RAW"
	StateWIP      StockState = "WIP"
	StateFinished StockState = "FINISHED"
	StateScrap    StockState = "SCRAP"
	// StateExternal is the boundary pseudo-state used as the source of
	// purchase receipts and the destination of sales consumption, so that
	// every movement row has both endpoints and the log replays without
	// special cases.
	StateExternal StockState = "EXTERNAL"
)

// IsValid reports whether s is one of the known stock states.
func (s StockState) IsValid() bool {
	switch s {
	case StateRaw, StateWIP, StateFinished, StateScrap, StateExternal:
		return true
	}
	return false
}

// IsBucket reports whether s is a physical bucket on the item row
// (StateExternal is not).
func (s StockState) IsBucket() bool {
	return s.IsValid() && s != StateExternal
}

// Item represents a manufacturing material or product tracked by the engine.
// The four quantity columns are a materialized cache over the movement log;
// they are mutated only by the inventory state machine, one movement per
// mutation, in the same transaction.
type Item struct {
	ItemID        string          `json:"itemID"`
	Code          string          `json:"code"` // unique, user-facing
	Name          string          `json:"name"`
	UnitOfMeasure string          `json:"unitOfMeasure"`
	UnitCost      decimal.Decimal `json:"unitCost"`
	QtyRaw        decimal.Decimal `json:"qtyRaw"`
	QtyWIP        decimal.Decimal `json:"qtyWIP"`
	QtyFinished   decimal.Decimal `json:"qtyFinished"`
	QtyScrap      decimal.Decimal `json:"qtyScrap"`
	IsActive      bool            `json:"isActive"`
	AuditFields
}

// QtyIn returns the cached quantity held in the given bucket.
func (i *Item) QtyIn(state StockState) decimal.Decimal {
	switch state {
	case StateRaw:
		return i.QtyRaw
	case StateWIP:
		return i.QtyWIP
	case StateFinished:
		return i.QtyFinished
	case StateScrap:
		return i.QtyScrap
	}
	return decimal.Zero
}

// TotalStock is the sum of all four buckets. It changes only via recorded
// movements whose endpoints include StateExternal.
func (i *Item) TotalStock() decimal.Decimal {
	return i.QtyRaw.Add(i.QtyWIP).Add(i.QtyFinished).Add(i.QtyScrap)
}

// AvailableStock is raw plus finished. WIP is always excluded: material out at
// a vendor or on the shop floor is not free to promise.
func (i *Item) AvailableStock() decimal.Decimal {
	return i.QtyRaw.Add(i.QtyFinished)
}

// StockSnapshot is the read-model view of an item's buckets exposed by the
// snapshot API.
type StockSnapshot struct {
	ItemID    string          `json:"itemID"`
	ItemCode  string          `json:"itemCode"`
	Raw       decimal.Decimal `json:"raw"`
	WIP       decimal.Decimal `json:"wip"`
	Finished  decimal.Decimal `json:"finished"`
	Scrap     decimal.Decimal `json:"scrap"`
	Available decimal.Decimal `json:"available"`
	Total     decimal.Decimal `json:"total"`
}

// SnapshotOf derives a StockSnapshot from the item's cached buckets.
func SnapshotOf(item Item) StockSnapshot {
	return StockSnapshot{
		ItemID:    item.ItemID,
		ItemCode:  item.Code,
		Raw:       item.QtyRaw,
		WIP:       item.QtyWIP,
		Finished:  item.QtyFinished,
		Scrap:     item.QtyScrap,
		Available: item.AvailableStock(),
		Total:     item.TotalStock(),
	}
}
