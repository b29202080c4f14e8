package domain

import (
	"fmt"
	"strconv"

	"github.com/campuscart/marketplace/pkg/apperr"
)

// RequestedLine is one (item, quantity) pair from the buyer's cart.
type RequestedLine struct {
	ItemID   int64 `json:"item_id" validate:"required"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

// ItemSnapshot is the state of a menu item as read under the commit
// transaction, with its owning restaurant's open flag from the same read.
type ItemSnapshot struct {
	ItemID            int64
	RestaurantID      int64
	Name              string
	PriceCents        int64
	CurrentStock      int
	LowStockThreshold int
	IsAvailable       bool
	RestaurantOpen    bool
}

// ValidatedLine is an admitted line with its captured price and the stock
// level observed at validation time.
type ValidatedLine struct {
	ItemID        int64
	Name          string
	Quantity      int
	PriceCents    int64
	SubtotalCents int64
	StockBefore   int
}

// ValidateLines admits or rejects the whole cart against live snapshots.
// Lines are checked in the order the buyer sent them and the first failure
// rejects the entire order; no partial admission. The snapshots must come
// from reads locked inside the transaction that will decrement stock, or
// the result is advisory only.
func ValidateLines(restaurantID int64, lines []RequestedLine, snaps map[int64]ItemSnapshot) ([]ValidatedLine, error) {
	if len(lines) == 0 {
		return nil, apperr.Admission(apperr.CodeEmptyOrder, "order must contain at least one item")
	}

	validated := make([]ValidatedLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperr.Admission(apperr.CodeInvalidQuantity,
				fmt.Sprintf("quantity for item %d must be greater than 0", line.ItemID))
		}

		snap, ok := snaps[line.ItemID]
		if !ok {
			return nil, apperr.Admission(apperr.CodeItemNotFound,
				fmt.Sprintf("item %d not found", line.ItemID))
		}
		if !snap.RestaurantOpen {
			return nil, apperr.Admission(apperr.CodeOutletClosed,
				fmt.Sprintf("restaurant for item %s is closed", snap.Name))
		}
		if snap.RestaurantID != restaurantID {
			return nil, apperr.Admission(apperr.CodeCrossOutletItem,
				fmt.Sprintf("item %s belongs to a different restaurant", snap.Name))
		}
		if !snap.IsAvailable {
			return nil, apperr.Admission(apperr.CodeItemUnavailable,
				fmt.Sprintf("item %s is not available", snap.Name))
		}
		if snap.CurrentStock < line.Quantity {
			return nil, apperr.Admission(apperr.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", snap.Name)).
				WithDetail("available", strconv.Itoa(snap.CurrentStock)).
				WithDetail("requested", strconv.Itoa(line.Quantity))
		}

		validated = append(validated, ValidatedLine{
			ItemID:        snap.ItemID,
			Name:          snap.Name,
			Quantity:      line.Quantity,
			PriceCents:    snap.PriceCents,
			SubtotalCents: snap.PriceCents * int64(line.Quantity),
			StockBefore:   snap.CurrentStock,
		})
	}
	return validated, nil
}

// Total sums the validated subtotals; this is the only place an order total
// is computed, never trusted from the caller.
func Total(lines []ValidatedLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.SubtotalCents
	}
	return total
}
