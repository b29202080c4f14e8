package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	invdomain "github.com/campuscart/marketplace/internal/inventory/domain"
	"github.com/campuscart/marketplace/internal/order/domain"
	paydomain "github.com/campuscart/marketplace/internal/payment/domain"
	"github.com/campuscart/marketplace/pkg/apperr"
	"github.com/campuscart/marketplace/pkg/tracing"
)

type Repository struct {
	log    *slog.Logger
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool, tracer: otel.Tracer("order-postgres")}
}

// Place runs the commit protocol as one transaction: lock and read the
// requested items, validate, then write the order header, lines, stock
// decrements, sale ledger entries, payment placeholder and outbox event.
// Any rejection or failure rolls the whole unit back.
func (r *Repository) Place(ctx context.Context, p domain.Placement) (domain.Receipt, error) {
	ctx, span := r.tracer.Start(ctx, "PlaceOrderTx")
	defer span.End()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Receipt{}, apperr.Internal(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	snaps, err := r.lockItems(ctx, tx, p.Lines)
	if err != nil {
		return domain.Receipt{}, apperr.Internal(err)
	}

	validated, err := domain.ValidateLines(p.RestaurantID, p.Lines, snaps)
	if err != nil {
		// Admission rejection: surface it untouched, nothing was written.
		return domain.Receipt{}, err
	}
	total := domain.Total(validated)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (order_id, buyer_id, restaurant_id, total_cents, delivery_location, special_instructions, order_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.OrderID, p.BuyerID, p.RestaurantID, total, p.DeliveryLocation, p.SpecialInstructions, domain.StatusPending)
	if err != nil {
		return domain.Receipt{}, apperr.Internal(err)
	}

	batch := &pgx.Batch{}
	for _, line := range validated {
		newStock := line.StockBefore - line.Quantity
		batch.Queue(`
			INSERT INTO order_items (order_id, item_id, quantity, price_cents_at_order, subtotal_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			p.OrderID, line.ItemID, line.Quantity, line.PriceCents, line.SubtotalCents)
		batch.Queue(`
			UPDATE menu_items
			SET current_stock = $1, is_available = $2, updated_at = now()
			WHERE item_id = $3`,
			newStock, invdomain.Available(newStock), line.ItemID)
		batch.Queue(`
			INSERT INTO inventory_ledger (item_id, change_type, quantity_change, previous_stock, new_stock, reason, changed_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ItemID, invdomain.ChangeSale, -line.Quantity, line.StockBefore, newStock,
			fmt.Sprintf("Order %s", p.OrderID), p.BuyerID)

		// Every ledger append travels through the outbox, sales included,
		// so the stock-alerts consumer sees the decrement that crosses the
		// threshold.
		stockEvent := invdomain.StockChanged{
			ItemID:            line.ItemID,
			ItemName:          line.Name,
			RestaurantID:      p.RestaurantID,
			ChangeType:        invdomain.ChangeSale,
			Delta:             -line.Quantity,
			PreviousStock:     line.StockBefore,
			NewStock:          newStock,
			LowStockThreshold: snaps[line.ItemID].LowStockThreshold,
		}
		stockPayload, err := json.Marshal(stockEvent)
		if err != nil {
			return domain.Receipt{}, apperr.Internal(err)
		}
		batch.Queue(`
			INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
			VALUES ('inventory', $1, 'StockChanged', $2, $3, $4, 'pending')`,
			strconv.FormatInt(line.ItemID, 10), stockPayload,
			map[string]string{"source": "marketplace"}, tracing.Traceparent(ctx))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Receipt{}, apperr.Internal(err)
	}

	pay := paydomain.Payment{
		OrderID:     p.OrderID,
		AmountCents: total,
		Method:      p.PaymentMethod,
		Status:      paydomain.StatusPending,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO payments (order_id, amount_cents, payment_method, payment_status)
		VALUES ($1, $2, $3, $4)`,
		pay.OrderID, pay.AmountCents, pay.Method, pay.Status)
	if err != nil {
		return domain.Receipt{}, apperr.Internal(err)
	}

	receipt := domain.Receipt{OrderID: p.OrderID, TotalCents: total}
	for _, line := range validated {
		receipt.Lines = append(receipt.Lines, domain.OrderLine{
			OrderID:       p.OrderID,
			ItemID:        line.ItemID,
			ItemName:      line.Name,
			Quantity:      line.Quantity,
			PriceCents:    line.PriceCents,
			SubtotalCents: line.SubtotalCents,
		})
	}

	event := domain.OrderPlaced{
		OrderID:      p.OrderID,
		BuyerID:      p.BuyerID,
		RestaurantID: p.RestaurantID,
		TotalCents:   total,
		Lines:        receipt.Lines,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return domain.Receipt{}, apperr.Internal(err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')`,
		"order", p.OrderID, "OrderPlaced", payload,
		map[string]string{"source": "marketplace"}, tracing.Traceparent(ctx))
	if err != nil {
		return domain.Receipt{}, apperr.Internal(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Receipt{}, apperr.Internal(err)
	}

	r.log.Info("order committed", "order_id", p.OrderID, "total_cents", total, "lines", len(receipt.Lines))
	return receipt, nil
}

// lockItems reads the requested items with their restaurant's open flag in
// one locked select. Row locks are taken in item-id order so two concurrent
// carts touching the same items cannot deadlock.
func (r *Repository) lockItems(ctx context.Context, tx pgx.Tx, lines []domain.RequestedLine) (map[int64]domain.ItemSnapshot, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows, err := tx.Query(ctx, `
		SELECT mi.item_id, mi.restaurant_id, mi.item_name, mi.price_cents, mi.current_stock, mi.low_stock_threshold, mi.is_available, r.is_open
		FROM menu_items mi
		JOIN restaurants r ON mi.restaurant_id = r.restaurant_id
		WHERE mi.item_id = ANY($1)
		ORDER BY mi.item_id
		FOR UPDATE OF mi`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps := make(map[int64]domain.ItemSnapshot, len(ids))
	for rows.Next() {
		var s domain.ItemSnapshot
		if err := rows.Scan(&s.ItemID, &s.RestaurantID, &s.Name, &s.PriceCents, &s.CurrentStock, &s.LowStockThreshold, &s.IsAvailable, &s.RestaurantOpen); err != nil {
			return nil, err
		}
		snaps[s.ItemID] = s
	}
	return snaps, rows.Err()
}

// UpdateStatus moves an order along the status machine on behalf of the
// restaurant's vendor. Ownership and the current status are read under the
// same lock that guards the write.
func (r *Repository) UpdateStatus(ctx context.Context, vendorID int64, orderID string, next domain.OrderStatus) error {
	return r.transition(ctx, orderID, next, `
		SELECT o.order_status
		FROM orders o
		JOIN restaurants rest ON o.restaurant_id = rest.restaurant_id
		WHERE o.order_id = $1 AND rest.vendor_id = $2
		FOR UPDATE OF o`, vendorID)
}

// CancelByBuyer lets the buyer cancel their own order while it is still
// pending; the same adjacency table rejects anything later.
func (r *Repository) CancelByBuyer(ctx context.Context, buyerID int64, orderID string) error {
	return r.transition(ctx, orderID, domain.StatusCancelled, `
		SELECT order_status
		FROM orders
		WHERE order_id = $1 AND buyer_id = $2
		FOR UPDATE`, buyerID)
}

func (r *Repository) transition(ctx context.Context, orderID string, next domain.OrderStatus, lookup string, actorID int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperr.Internal(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current domain.OrderStatus
	err = tx.QueryRow(ctx, lookup, orderID, actorID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("order not found or access denied")
	}
	if err != nil {
		return apperr.Internal(err)
	}

	if err := domain.Transition(current, next); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `UPDATE orders SET order_status = $1, updated_at = now() WHERE order_id = $2`, next, orderID)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}

	r.log.Info("order status updated", "order_id", orderID, "status", next)
	return nil
}

func (r *Repository) ListByBuyer(ctx context.Context, buyerID int64) ([]domain.Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.order_id, o.restaurant_id, rest.restaurant_name, o.total_cents, o.order_status, o.created_at
		FROM orders o
		JOIN restaurants rest ON o.restaurant_id = rest.restaurant_id
		WHERE o.buyer_id = $1
		ORDER BY o.created_at DESC`, buyerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var out []domain.Summary
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.OrderID, &s.RestaurantID, &s.RestaurantName, &s.TotalCents, &s.Status, &s.CreatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) ListByVendor(ctx context.Context, vendorID int64) ([]domain.Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.order_id, o.restaurant_id, rest.restaurant_name, u.full_name, o.total_cents, o.order_status, o.created_at
		FROM orders o
		JOIN restaurants rest ON o.restaurant_id = rest.restaurant_id
		JOIN users u ON o.buyer_id = u.user_id
		WHERE rest.vendor_id = $1
		ORDER BY o.created_at DESC
		LIMIT 50`, vendorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var out []domain.Summary
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.OrderID, &s.RestaurantID, &s.RestaurantName, &s.BuyerName, &s.TotalCents, &s.Status, &s.CreatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Details returns an order with its lines, scoped to the caller: buyers see
// their own orders, vendors the orders of their restaurants. Anything else
// reads as not found.
func (r *Repository) Details(ctx context.Context, orderID string, buyerID, vendorID int64) (domain.Details, error) {
	var d domain.Details
	err := r.pool.QueryRow(ctx, `
		SELECT o.order_id, rest.restaurant_name, u.full_name, o.total_cents, o.order_status,
		       o.delivery_location, o.special_instructions, o.created_at
		FROM orders o
		JOIN restaurants rest ON o.restaurant_id = rest.restaurant_id
		JOIN users u ON o.buyer_id = u.user_id
		WHERE o.order_id = $1
		  AND (($2::bigint <> 0 AND o.buyer_id = $2) OR ($3::bigint <> 0 AND rest.vendor_id = $3))`,
		orderID, buyerID, vendorID).
		Scan(&d.OrderID, &d.RestaurantName, &d.BuyerName, &d.TotalCents, &d.Status, &d.Location, &d.Instructions, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Details{}, apperr.NotFound("order not found or access denied")
	}
	if err != nil {
		return domain.Details{}, apperr.Internal(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT oi.item_id, mi.item_name, oi.quantity, oi.price_cents_at_order, oi.subtotal_cents
		FROM order_items oi
		JOIN menu_items mi ON oi.item_id = mi.item_id
		WHERE oi.order_id = $1`, orderID)
	if err != nil {
		return domain.Details{}, apperr.Internal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		l.OrderID = orderID
		if err := rows.Scan(&l.ItemID, &l.ItemName, &l.Quantity, &l.PriceCents, &l.SubtotalCents); err != nil {
			return domain.Details{}, apperr.Internal(err)
		}
		d.Lines = append(d.Lines, l)
	}
	return d, rows.Err()
}
