package application

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	catalogdomain "github.com/campuscart/marketplace/internal/catalog/domain"
	"github.com/campuscart/marketplace/internal/inventory/domain"
	"github.com/campuscart/marketplace/pkg/apperr"
	"github.com/campuscart/marketplace/pkg/auth"
	"github.com/campuscart/marketplace/pkg/metrics"
)

const ledgerPageSize = 50

// Repository is the persistence port for stock adjustments and audit views.
type Repository interface {
	Adjust(ctx context.Context, vendorID, itemID int64, kind domain.ChangeType, quantity int, reason string) (domain.AdjustmentReceipt, error)
	Alerts(ctx context.Context, vendorID int64) ([]domain.Alert, error)
	Ledger(ctx context.Context, vendorID, itemID int64, limit int) ([]domain.LedgerEntry, error)
	VendorInventory(ctx context.Context, vendorID int64) ([]catalogdomain.MenuItem, error)
}

// AdjustRequest is a vendor's stock change payload.
type AdjustRequest struct {
	Type     string `json:"adjustment_type" validate:"required"`
	Quantity int    `json:"quantity" validate:"required"`
	Reason   string `json:"reason"`
}

type Service struct {
	log      *slog.Logger
	repo     Repository
	validate *validator.Validate
	metrics  *metrics.Metrics
}

func NewService(log *slog.Logger, repo Repository, m *metrics.Metrics) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  m,
	}
}

// Adjust parses and normalizes the request, then runs the locked mutation.
// Quantity and non-negativity checks happen inside the transaction against
// the locked row, not here.
func (s *Service) Adjust(ctx context.Context, vendor auth.Principal, itemID int64, req AdjustRequest) (domain.AdjustmentReceipt, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.AdjustmentReceipt{}, apperr.Admission(apperr.CodeValidation, err.Error())
	}
	kind, err := domain.ParseAdjustmentKind(req.Type)
	if err != nil {
		return domain.AdjustmentReceipt{}, err
	}
	reason, err := domain.NormalizeReason(kind, req.Reason)
	if err != nil {
		return domain.AdjustmentReceipt{}, err
	}

	res, err := s.repo.Adjust(ctx, vendor.UserID, itemID, kind, req.Quantity, reason)
	if err != nil {
		return domain.AdjustmentReceipt{}, err
	}
	s.metrics.StockAdjustments.WithLabelValues(string(kind)).Inc()
	return res, nil
}

func (s *Service) Alerts(ctx context.Context, vendor auth.Principal) ([]domain.Alert, error) {
	return s.repo.Alerts(ctx, vendor.UserID)
}

func (s *Service) Ledger(ctx context.Context, vendor auth.Principal, itemID int64) ([]domain.LedgerEntry, error) {
	return s.repo.Ledger(ctx, vendor.UserID, itemID, ledgerPageSize)
}

func (s *Service) Inventory(ctx context.Context, vendor auth.Principal) ([]catalogdomain.MenuItem, error) {
	return s.repo.VendorInventory(ctx, vendor.UserID)
}
