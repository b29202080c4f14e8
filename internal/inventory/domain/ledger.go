package domain

import "time"

// ChangeType classifies a stock mutation in the ledger.
type ChangeType string

const (
	ChangeSale       ChangeType = "sale"
	ChangeRestock    ChangeType = "restock"
	ChangeWaste      ChangeType = "waste"
	ChangeAdjustment ChangeType = "adjustment"
)

// LedgerEntry is one immutable stock mutation record. NewStock must equal
// PreviousStock + Delta and never go negative; the table enforces both.
type LedgerEntry struct {
	ID            int64      `json:"entry_id"`
	ItemID        int64      `json:"item_id"`
	Type          ChangeType `json:"change_type"`
	Delta         int        `json:"quantity_change"`
	PreviousStock int        `json:"previous_stock"`
	NewStock      int        `json:"new_stock"`
	Reason        string     `json:"reason"`
	ActorID       int64      `json:"-"`
	ActorName     string     `json:"actor_name,omitempty"`
	CreatedAt     time.Time  `json:"timestamp"`
}

// AdjustmentReceipt reports a committed stock mutation back to the caller.
type AdjustmentReceipt struct {
	ItemID        int64      `json:"item_id"`
	ItemName      string     `json:"item_name"`
	Kind          ChangeType `json:"change_type"`
	PreviousStock int        `json:"previous_stock"`
	NewStock      int        `json:"new_stock"`
	Delta         int        `json:"quantity_change"`
}

type AlertLevel string

const (
	AlertOutOfStock AlertLevel = "out_of_stock"
	AlertLowStock   AlertLevel = "low_stock"
)

// Alert is one row of the low-stock view.
type Alert struct {
	ItemID            int64      `json:"item_id"`
	ItemName          string     `json:"item_name"`
	CurrentStock      int        `json:"current_stock"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	RestaurantName    string     `json:"restaurant_name"`
	Level             AlertLevel `json:"alert_level"`
}
