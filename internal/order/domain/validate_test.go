package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscart/marketplace/pkg/apperr"
)

func snapshots() map[int64]ItemSnapshot {
	return map[int64]ItemSnapshot{
		1: {ItemID: 1, RestaurantID: 10, Name: "Masala Dosa", PriceCents: 8000, CurrentStock: 5, IsAvailable: true, RestaurantOpen: true},
		2: {ItemID: 2, RestaurantID: 10, Name: "Filter Coffee", PriceCents: 2500, CurrentStock: 2, IsAvailable: true, RestaurantOpen: true},
		3: {ItemID: 3, RestaurantID: 11, Name: "Veg Thali", PriceCents: 12000, CurrentStock: 8, IsAvailable: true, RestaurantOpen: true},
		4: {ItemID: 4, RestaurantID: 10, Name: "Paneer Roll", PriceCents: 6000, CurrentStock: 3, IsAvailable: false, RestaurantOpen: true},
		5: {ItemID: 5, RestaurantID: 12, Name: "Cold Brew", PriceCents: 3000, CurrentStock: 6, IsAvailable: true, RestaurantOpen: false},
	}
}

func rejectionCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	return e.Code
}

func TestValidateLinesAdmitsCart(t *testing.T) {
	lines := []RequestedLine{
		{ItemID: 1, Quantity: 2},
		{ItemID: 2, Quantity: 1},
	}
	validated, err := ValidateLines(10, lines, snapshots())
	require.NoError(t, err)
	require.Len(t, validated, 2)

	assert.Equal(t, int64(16000), validated[0].SubtotalCents)
	assert.Equal(t, 5, validated[0].StockBefore)
	assert.Equal(t, int64(2500), validated[1].PriceCents)
	assert.Equal(t, int64(18500), Total(validated))
}

func TestValidateLinesEmptyCart(t *testing.T) {
	_, err := ValidateLines(10, nil, snapshots())
	assert.Equal(t, apperr.CodeEmptyOrder, rejectionCode(t, err))
}

func TestValidateLinesUnknownItem(t *testing.T) {
	_, err := ValidateLines(10, []RequestedLine{{ItemID: 99, Quantity: 1}}, snapshots())
	assert.Equal(t, apperr.CodeItemNotFound, rejectionCode(t, err))
}

func TestValidateLinesClosedRestaurant(t *testing.T) {
	_, err := ValidateLines(12, []RequestedLine{{ItemID: 5, Quantity: 1}}, snapshots())
	assert.Equal(t, apperr.CodeOutletClosed, rejectionCode(t, err))
}

func TestValidateLinesCrossRestaurantItem(t *testing.T) {
	_, err := ValidateLines(10, []RequestedLine{
		{ItemID: 1, Quantity: 1},
		{ItemID: 3, Quantity: 1},
	}, snapshots())
	assert.Equal(t, apperr.CodeCrossOutletItem, rejectionCode(t, err))
}

func TestValidateLinesUnavailableItem(t *testing.T) {
	_, err := ValidateLines(10, []RequestedLine{{ItemID: 4, Quantity: 1}}, snapshots())
	assert.Equal(t, apperr.CodeItemUnavailable, rejectionCode(t, err))
}

func TestValidateLinesInsufficientStock(t *testing.T) {
	_, err := ValidateLines(10, []RequestedLine{{ItemID: 2, Quantity: 3}}, snapshots())
	assert.Equal(t, apperr.CodeInsufficientStock, rejectionCode(t, err))

	e, _ := apperr.As(err)
	assert.Equal(t, "2", e.Details["available"])
	assert.Equal(t, "3", e.Details["requested"])
}

func TestValidateLinesZeroQuantity(t *testing.T) {
	_, err := ValidateLines(10, []RequestedLine{{ItemID: 1, Quantity: 0}}, snapshots())
	assert.Equal(t, apperr.CodeInvalidQuantity, rejectionCode(t, err))
}

// One bad line rejects the whole cart even when earlier lines are fine.
func TestValidateLinesAllOrNothing(t *testing.T) {
	lines := []RequestedLine{
		{ItemID: 1, Quantity: 1},
		{ItemID: 2, Quantity: 50},
	}
	validated, err := ValidateLines(10, lines, snapshots())
	assert.Nil(t, validated)
	assert.Equal(t, apperr.CodeInsufficientStock, rejectionCode(t, err))
}

func TestValidateLinesExactStockAdmitted(t *testing.T) {
	validated, err := ValidateLines(10, []RequestedLine{{ItemID: 2, Quantity: 2}}, snapshots())
	require.NoError(t, err)
	assert.Equal(t, 2, validated[0].Quantity)
}
