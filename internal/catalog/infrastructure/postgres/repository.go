package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscart/marketplace/internal/catalog/domain"
	"github.com/campuscart/marketplace/pkg/apperr"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// OpenRestaurants lists outlets currently accepting orders, best rated
// first.
func (r *Repository) OpenRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rest.restaurant_id, rest.vendor_id, rest.restaurant_name, rest.location,
		       rest.rating, rest.is_open, COALESCE(u.full_name, ''), rest.created_at
		FROM restaurants rest
		LEFT JOIN users u ON rest.vendor_id = u.user_id
		WHERE rest.is_open
		ORDER BY rest.rating DESC, rest.restaurant_name`)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()
	return scanRestaurants(rows)
}

func (r *Repository) Restaurant(ctx context.Context, restaurantID int64) (domain.Restaurant, error) {
	var rest domain.Restaurant
	err := r.pool.QueryRow(ctx, `
		SELECT rest.restaurant_id, rest.vendor_id, rest.restaurant_name, rest.location,
		       rest.rating, rest.is_open, COALESCE(u.full_name, ''), rest.created_at
		FROM restaurants rest
		LEFT JOIN users u ON rest.vendor_id = u.user_id
		WHERE rest.restaurant_id = $1`, restaurantID).
		Scan(&rest.ID, &rest.VendorID, &rest.Name, &rest.Location, &rest.Rating, &rest.IsOpen, &rest.VendorName, &rest.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Restaurant{}, apperr.NotFound("restaurant not found")
	}
	if err != nil {
		return domain.Restaurant{}, apperr.Internal(err)
	}
	return rest, nil
}

// Menu returns what a buyer can actually order from an outlet: available
// items with stock on hand, grouped by category.
func (r *Repository) Menu(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error) {
	if _, err := r.Restaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT item_id, restaurant_id, item_name, description, price_cents, category,
		       current_stock, low_stock_threshold, is_available, created_at, updated_at
		FROM menu_items
		WHERE restaurant_id = $1 AND is_available AND current_stock > 0
		ORDER BY category, item_name`, restaurantID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()
	return scanMenuItems(rows)
}

// VendorRestaurants lists the outlets a vendor owns regardless of open
// state.
func (r *Repository) VendorRestaurants(ctx context.Context, vendorID int64) ([]domain.Restaurant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rest.restaurant_id, rest.vendor_id, rest.restaurant_name, rest.location,
		       rest.rating, rest.is_open, COALESCE(u.full_name, ''), rest.created_at
		FROM restaurants rest
		LEFT JOIN users u ON rest.vendor_id = u.user_id
		WHERE rest.vendor_id = $1
		ORDER BY rest.restaurant_name`, vendorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()
	return scanRestaurants(rows)
}

// VendorMenu returns every item of one of the vendor's outlets, including
// unavailable and out-of-stock rows.
func (r *Repository) VendorMenu(ctx context.Context, vendorID, restaurantID int64) ([]domain.MenuItem, error) {
	if err := r.checkOwnership(ctx, vendorID, restaurantID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT item_id, restaurant_id, item_name, description, price_cents, category,
		       current_stock, low_stock_threshold, is_available, created_at, updated_at
		FROM menu_items
		WHERE restaurant_id = $1
		ORDER BY category, item_name`, restaurantID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()
	return scanMenuItems(rows)
}

// SetOpen flips the accepting-orders flag on an outlet the vendor owns.
func (r *Repository) SetOpen(ctx context.Context, vendorID, restaurantID int64, open bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE restaurants SET is_open = $1
		WHERE restaurant_id = $2 AND vendor_id = $3`, open, restaurantID, vendorID)
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("restaurant not found or access denied")
	}
	r.log.Info("restaurant open state changed", "restaurant_id", restaurantID, "is_open", open)
	return nil
}

func (r *Repository) checkOwnership(ctx context.Context, vendorID, restaurantID int64) error {
	var owned bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM restaurants WHERE restaurant_id = $1 AND vendor_id = $2
		)`, restaurantID, vendorID).Scan(&owned)
	if err != nil {
		return apperr.Internal(err)
	}
	if !owned {
		return apperr.NotFound("restaurant not found or access denied")
	}
	return nil
}

func scanRestaurants(rows pgx.Rows) ([]domain.Restaurant, error) {
	var out []domain.Restaurant
	for rows.Next() {
		var rest domain.Restaurant
		if err := rows.Scan(&rest.ID, &rest.VendorID, &rest.Name, &rest.Location, &rest.Rating, &rest.IsOpen, &rest.VendorName, &rest.CreatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

func scanMenuItems(rows pgx.Rows) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.PriceCents, &m.Category,
			&m.CurrentStock, &m.LowStockThreshold, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
