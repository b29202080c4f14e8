package domain

import "time"

type Restaurant struct {
	ID         int64
	VendorID   int64
	Name       string
	Location   string
	Rating     float64
	IsOpen     bool
	VendorName string
	CreatedAt  time.Time
}

// MenuItem is the authoritative stock record for one item. is_available and
// current_stock move together: available means stock > 0.
type MenuItem struct {
	ID                int64
	RestaurantID      int64
	Name              string
	Description       string
	PriceCents        int64
	Category          string
	CurrentStock      int
	LowStockThreshold int
	IsAvailable       bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
