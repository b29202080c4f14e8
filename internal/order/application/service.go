package application

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campuscart/marketplace/internal/order/domain"
	"github.com/campuscart/marketplace/pkg/apperr"
	"github.com/campuscart/marketplace/pkg/auth"
	"github.com/campuscart/marketplace/pkg/metrics"
)

// PlaceOrderRequest is the buyer-facing placement payload. Quantities and
// prices in it are requests only; the commit protocol recomputes everything
// from locked rows.
type PlaceOrderRequest struct {
	RestaurantID        int64                  `json:"restaurant_id" validate:"required,gt=0"`
	Items               []domain.RequestedLine `json:"items" validate:"required,min=1,dive"`
	DeliveryLocation    string                 `json:"delivery_location" validate:"required"`
	SpecialInstructions string                 `json:"special_instructions"`
	PaymentMethod       string                 `json:"payment_method" validate:"omitempty,oneof=cash card upi"`
	IdempotencyKey      string                 `json:"-"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type Service struct {
	log      *slog.Logger
	repo     Repository
	idem     Idempotency
	validate *validator.Validate
	metrics  *metrics.Metrics
}

func NewService(log *slog.Logger, repo Repository, idem Idempotency, m *metrics.Metrics) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		idem:     idem,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  m,
	}
}

// PlaceOrder validates the request shape, claims the idempotency key when one
// was sent, and hands the placement to the commit protocol. A rejected or
// failed placement releases the key so the client may retry.
func (s *Service) PlaceOrder(ctx context.Context, buyer auth.Principal, req PlaceOrderRequest) (domain.Receipt, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.Receipt{}, apperr.Admission(apperr.CodeValidation, err.Error())
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}

	var idemKey string
	if req.IdempotencyKey != "" {
		idemKey = s.idem.RequestKey(buyer.UserID, req.IdempotencyKey)
		seen, err := s.idem.Seen(ctx, idemKey)
		if err != nil {
			return domain.Receipt{}, apperr.Internal(err)
		}
		if seen {
			return domain.Receipt{}, apperr.Conflict("duplicate request")
		}
	}

	receipt, err := s.repo.Place(ctx, domain.Placement{
		OrderID:             uuid.NewString(),
		BuyerID:             buyer.UserID,
		RestaurantID:        req.RestaurantID,
		Lines:               req.Items,
		DeliveryLocation:    req.DeliveryLocation,
		SpecialInstructions: req.SpecialInstructions,
		PaymentMethod:       req.PaymentMethod,
	})
	if err != nil {
		if idemKey != "" {
			if relErr := s.idem.Release(ctx, idemKey); relErr != nil {
				s.log.Warn("idempotency key release failed", "error", relErr)
			}
		}
		s.metrics.OrdersRejected.WithLabelValues(apperr.From(err).Code).Inc()
		return domain.Receipt{}, err
	}

	s.metrics.OrdersPlaced.Inc()
	return receipt, nil
}

// UpdateStatus applies a vendor-driven status transition.
func (s *Service) UpdateStatus(ctx context.Context, vendor auth.Principal, orderID string, req UpdateStatusRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperr.Admission(apperr.CodeValidation, err.Error())
	}
	next, err := domain.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, vendor.UserID, orderID, next)
}

// Cancel lets a buyer back out of their own order while it is still pending.
func (s *Service) Cancel(ctx context.Context, buyer auth.Principal, orderID string) error {
	return s.repo.CancelByBuyer(ctx, buyer.UserID, orderID)
}

func (s *Service) BuyerOrders(ctx context.Context, buyer auth.Principal) ([]domain.Summary, error) {
	return s.repo.ListByBuyer(ctx, buyer.UserID)
}

func (s *Service) VendorOrders(ctx context.Context, vendor auth.Principal) ([]domain.Summary, error) {
	return s.repo.ListByVendor(ctx, vendor.UserID)
}

// Details scopes the read to the caller's side of the marketplace.
func (s *Service) Details(ctx context.Context, p auth.Principal, orderID string) (domain.Details, error) {
	var buyerID, vendorID int64
	switch p.Role {
	case auth.RoleBuyer:
		buyerID = p.UserID
	case auth.RoleVendor:
		vendorID = p.UserID
	default:
		return domain.Details{}, apperr.Forbidden("")
	}
	return s.repo.Details(ctx, orderID, buyerID, vendorID)
}
