package application

import (
	"context"
	"log/slog"

	"github.com/campuscart/marketplace/internal/catalog/domain"
	"github.com/campuscart/marketplace/pkg/auth"
)

// Repository is the persistence port for the browse and vendor catalog
// views.
type Repository interface {
	OpenRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	Restaurant(ctx context.Context, restaurantID int64) (domain.Restaurant, error)
	Menu(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error)
	VendorRestaurants(ctx context.Context, vendorID int64) ([]domain.Restaurant, error)
	VendorMenu(ctx context.Context, vendorID, restaurantID int64) ([]domain.MenuItem, error)
	SetOpen(ctx context.Context, vendorID, restaurantID int64, open bool) error
}

type Service struct {
	log  *slog.Logger
	repo Repository
}

func NewService(log *slog.Logger, repo Repository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) OpenRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	return s.repo.OpenRestaurants(ctx)
}

func (s *Service) Restaurant(ctx context.Context, restaurantID int64) (domain.Restaurant, error) {
	return s.repo.Restaurant(ctx, restaurantID)
}

func (s *Service) Menu(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error) {
	return s.repo.Menu(ctx, restaurantID)
}

func (s *Service) VendorRestaurants(ctx context.Context, vendor auth.Principal) ([]domain.Restaurant, error) {
	return s.repo.VendorRestaurants(ctx, vendor.UserID)
}

func (s *Service) VendorMenu(ctx context.Context, vendor auth.Principal, restaurantID int64) ([]domain.MenuItem, error) {
	return s.repo.VendorMenu(ctx, vendor.UserID, restaurantID)
}

func (s *Service) SetOpen(ctx context.Context, vendor auth.Principal, restaurantID int64, open bool) error {
	return s.repo.SetOpen(ctx, vendor.UserID, restaurantID, open)
}
