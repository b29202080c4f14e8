package domain

import (
	"fmt"

	"github.com/campuscart/marketplace/pkg/apperr"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

func ParseStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", apperr.Admission(apperr.CodeInvalidStatus, fmt.Sprintf("invalid order status %q", s))
}

// transitions is the forward-only adjacency table. delivered and cancelled
// are terminal; cancellation is reachable only from pending.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusDelivered},
}

// Transition checks that moving from to next is allowed.
func Transition(from, next OrderStatus) error {
	for _, allowed := range transitions[from] {
		if next == allowed {
			return nil
		}
	}
	return apperr.Admission(apperr.CodeInvalidStatus,
		fmt.Sprintf("cannot move order from %s to %s", from, next))
}
