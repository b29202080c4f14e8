package domain

// StockChanged is published through the outbox for every ledger append so
// downstream consumers (the stock-alerts watcher) see each mutation exactly
// once, in commit order per item.
type StockChanged struct {
	ItemID            int64      `json:"item_id"`
	ItemName          string     `json:"item_name"`
	RestaurantID      int64      `json:"restaurant_id"`
	ChangeType        ChangeType `json:"change_type"`
	Delta             int        `json:"quantity_change"`
	PreviousStock     int        `json:"previous_stock"`
	NewStock          int        `json:"new_stock"`
	LowStockThreshold int        `json:"low_stock_threshold"`
}
