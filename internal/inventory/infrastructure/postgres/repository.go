package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalogdomain "github.com/campuscart/marketplace/internal/catalog/domain"
	"github.com/campuscart/marketplace/internal/inventory/domain"
	"github.com/campuscart/marketplace/pkg/apperr"
	"github.com/campuscart/marketplace/pkg/tracing"
)

type Repository struct {
	log    *slog.Logger
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool, tracer: otel.Tracer("inventory-postgres")}
}

// Adjust applies one vendor stock change in its own transaction: lock the
// item row, verify ownership, compute the movement, then write the stock
// update, ledger entry and outbox event together. This is the same
// read-lock-decide-write-log sequence the order commit protocol uses, so a
// restock racing a sale on the same item serializes on the row lock.
func (r *Repository) Adjust(ctx context.Context, vendorID, itemID int64, kind domain.ChangeType, quantity int, reason string) (domain.AdjustmentReceipt, error) {
	ctx, span := r.tracer.Start(ctx, "AdjustStockTx")
	defer span.End()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.AdjustmentReceipt{}, apperr.Internal(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var (
		itemName     string
		restaurantID int64
		currentStock int
		threshold    int
	)
	err = tx.QueryRow(ctx, `
		SELECT mi.item_name, mi.restaurant_id, mi.current_stock, mi.low_stock_threshold
		FROM menu_items mi
		JOIN restaurants rest ON mi.restaurant_id = rest.restaurant_id
		WHERE mi.item_id = $1 AND rest.vendor_id = $2
		FOR UPDATE OF mi`, itemID, vendorID).
		Scan(&itemName, &restaurantID, &currentStock, &threshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AdjustmentReceipt{}, apperr.NotFound("item not found or access denied")
	}
	if err != nil {
		return domain.AdjustmentReceipt{}, apperr.Internal(err)
	}

	newStock, delta, err := domain.Apply(kind, currentStock, quantity)
	if err != nil {
		return domain.AdjustmentReceipt{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE menu_items
		SET current_stock = $1, is_available = $2, updated_at = now()
		WHERE item_id = $3`,
		newStock, domain.Available(newStock), itemID)
	if err != nil {
		return domain.AdjustmentReceipt{}, apperr.Internal(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO inventory_ledger (item_id, change_type, quantity_change, previous_stock, new_stock, reason, changed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		itemID, kind, delta, currentStock, newStock, reason, vendorID)
	if err != nil {
		return domain.AdjustmentReceipt{}, apperr.Internal(err)
	}

	event := domain.StockChanged{
		ItemID:            itemID,
		ItemName:          itemName,
		RestaurantID:      restaurantID,
		ChangeType:        kind,
		Delta:             delta,
		PreviousStock:     currentStock,
		NewStock:          newStock,
		LowStockThreshold: threshold,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return domain.AdjustmentReceipt{}, apperr.Internal(err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ('inventory', $1, 'StockChanged', $2, $3, $4, 'pending')`,
		strconv.FormatInt(itemID, 10), payload, map[string]string{"source": "marketplace"}, tracing.Traceparent(ctx))
	if err != nil {
		return domain.AdjustmentReceipt{}, apperr.Internal(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.AdjustmentReceipt{}, apperr.Internal(err)
	}

	r.log.Info("stock adjusted", "item_id", itemID, "kind", kind, "previous", currentStock, "new", newStock)
	return domain.AdjustmentReceipt{
		ItemID:        itemID,
		ItemName:      itemName,
		Kind:          kind,
		PreviousStock: currentStock,
		NewStock:      newStock,
		Delta:         delta,
	}, nil
}

// Alerts lists a vendor's items at or below their threshold, most urgent
// first.
func (r *Repository) Alerts(ctx context.Context, vendorID int64) ([]domain.Alert, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT mi.item_id, mi.item_name, mi.current_stock, mi.low_stock_threshold, rest.restaurant_name
		FROM menu_items mi
		JOIN restaurants rest ON mi.restaurant_id = rest.restaurant_id
		WHERE rest.vendor_id = $1
		  AND (mi.current_stock = 0 OR mi.current_stock <= mi.low_stock_threshold)
		ORDER BY mi.current_stock ASC`, vendorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ItemID, &a.ItemName, &a.CurrentStock, &a.LowStockThreshold, &a.RestaurantName); err != nil {
			return nil, apperr.Internal(err)
		}
		if level, ok := domain.AlertFor(a.CurrentStock, a.LowStockThreshold); ok {
			a.Level = level
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Ledger returns the most recent entries for an item the vendor owns,
// newest first, with the acting user's display name when known.
func (r *Repository) Ledger(ctx context.Context, vendorID, itemID int64, limit int) ([]domain.LedgerEntry, error) {
	var owned bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM menu_items mi
			JOIN restaurants rest ON mi.restaurant_id = rest.restaurant_id
			WHERE mi.item_id = $1 AND rest.vendor_id = $2
		)`, itemID, vendorID).Scan(&owned)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !owned {
		return nil, apperr.NotFound("item not found or access denied")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT il.entry_id, il.item_id, il.change_type, il.quantity_change, il.previous_stock,
		       il.new_stock, il.reason, il.changed_by, COALESCE(u.full_name, ''), il.created_at
		FROM inventory_ledger il
		LEFT JOIN users u ON il.changed_by = u.user_id
		WHERE il.item_id = $1
		ORDER BY il.created_at DESC, il.entry_id DESC
		LIMIT $2`, itemID, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Type, &e.Delta, &e.PreviousStock, &e.NewStock, &e.Reason, &e.ActorID, &e.ActorName, &e.CreatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// VendorInventory lists every item across a vendor's restaurants with its
// stock state.
func (r *Repository) VendorInventory(ctx context.Context, vendorID int64) ([]catalogdomain.MenuItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT mi.item_id, mi.restaurant_id, mi.item_name, mi.description, mi.price_cents, mi.category,
		       mi.current_stock, mi.low_stock_threshold, mi.is_available, mi.created_at, mi.updated_at
		FROM menu_items mi
		JOIN restaurants rest ON mi.restaurant_id = rest.restaurant_id
		WHERE rest.vendor_id = $1
		ORDER BY rest.restaurant_name, mi.category, mi.item_name`, vendorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var items []catalogdomain.MenuItem
	for rows.Next() {
		var m catalogdomain.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.PriceCents, &m.Category,
			&m.CurrentStock, &m.LowStockThreshold, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
