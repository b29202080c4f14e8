package domain

import (
	"fmt"

	"github.com/campuscart/marketplace/pkg/apperr"
)

const defaultRestockReason = "Manual restock"

// ParseAdjustmentKind accepts the vendor-initiated change types. Sales are
// produced only by the order commit protocol, never by this engine.
func ParseAdjustmentKind(s string) (ChangeType, error) {
	switch ChangeType(s) {
	case ChangeRestock, ChangeWaste, ChangeAdjustment:
		return ChangeType(s), nil
	}
	return "", apperr.Admission(apperr.CodeValidation, fmt.Sprintf("invalid adjustment type %q", s))
}

// NormalizeReason enforces the audit requirement: waste and manual
// adjustments must say why, restocks get a default.
func NormalizeReason(kind ChangeType, reason string) (string, error) {
	if reason != "" {
		return reason, nil
	}
	if kind == ChangeRestock {
		return defaultRestockReason, nil
	}
	return "", apperr.Admission(apperr.CodeMissingReason, "reason is required for stock adjustments")
}

// Apply computes the stock movement for a vendor adjustment. It returns the
// new stock level and the signed delta for the ledger, rejecting anything
// that would drive stock negative.
func Apply(kind ChangeType, currentStock, quantity int) (newStock, delta int, err error) {
	if quantity <= 0 {
		return 0, 0, apperr.Admission(apperr.CodeInvalidQuantity, "quantity must be greater than 0")
	}
	switch kind {
	case ChangeRestock:
		return currentStock + quantity, quantity, nil
	case ChangeWaste, ChangeAdjustment:
		if quantity > currentStock {
			return 0, 0, apperr.Admission(apperr.CodeExceedsStock, "adjustment quantity exceeds current stock").
				WithDetail("current_stock", fmt.Sprintf("%d", currentStock)).
				WithDetail("requested", fmt.Sprintf("%d", quantity))
		}
		return currentStock - quantity, -quantity, nil
	}
	return 0, 0, apperr.Admission(apperr.CodeValidation, fmt.Sprintf("invalid adjustment type %q", kind))
}

// Available reports the availability flag implied by a stock level.
func Available(stock int) bool { return stock > 0 }

// AlertFor classifies a stock level against its threshold, returning false
// when the level needs no alert.
func AlertFor(stock, threshold int) (AlertLevel, bool) {
	switch {
	case stock == 0:
		return AlertOutOfStock, true
	case stock <= threshold:
		return AlertLowStock, true
	}
	return "", false
}
