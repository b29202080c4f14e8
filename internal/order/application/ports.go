package application

import (
	"context"

	"github.com/campuscart/marketplace/internal/order/domain"
)

// Repository is the persistence port for orders. The postgres implementation
// runs the whole commit protocol inside Place.
type Repository interface {
	Place(ctx context.Context, p domain.Placement) (domain.Receipt, error)
	UpdateStatus(ctx context.Context, vendorID int64, orderID string, next domain.OrderStatus) error
	CancelByBuyer(ctx context.Context, buyerID int64, orderID string) error
	ListByBuyer(ctx context.Context, buyerID int64) ([]domain.Summary, error)
	ListByVendor(ctx context.Context, vendorID int64) ([]domain.Summary, error)
	Details(ctx context.Context, orderID string, buyerID, vendorID int64) (domain.Details, error)
}

// Idempotency claims client-supplied request keys so a retried placement does
// not commit twice.
type Idempotency interface {
	RequestKey(userID int64, key string) string
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
