package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/campuscart/marketplace/internal/catalog/domain"
	"github.com/campuscart/marketplace/internal/inventory/application"
	"github.com/campuscart/marketplace/internal/inventory/domain"
	"github.com/campuscart/marketplace/pkg/apperr"
	"github.com/campuscart/marketplace/pkg/auth"
	"github.com/campuscart/marketplace/pkg/logging"
	"github.com/campuscart/marketplace/pkg/metrics"
)

type fakeRepo struct{}

func (fakeRepo) Adjust(_ context.Context, _, itemID int64, kind domain.ChangeType, quantity int, _ string) (domain.AdjustmentReceipt, error) {
	if itemID == 404 {
		return domain.AdjustmentReceipt{}, apperr.NotFound("item not found or access denied")
	}
	return domain.AdjustmentReceipt{
		ItemID:        itemID,
		ItemName:      "Masala Dosa",
		Kind:          kind,
		PreviousStock: 5,
		NewStock:      5 + quantity,
		Delta:         quantity,
	}, nil
}

func (fakeRepo) Alerts(context.Context, int64) ([]domain.Alert, error) {
	return []domain.Alert{
		{ItemID: 2, ItemName: "Filter Coffee", CurrentStock: 0, LowStockThreshold: 10, RestaurantName: "Dosa Corner", Level: domain.AlertOutOfStock},
		{ItemID: 1, ItemName: "Masala Dosa", CurrentStock: 4, LowStockThreshold: 10, RestaurantName: "Dosa Corner", Level: domain.AlertLowStock},
	}, nil
}

func (fakeRepo) Ledger(context.Context, int64, int64, int) ([]domain.LedgerEntry, error) {
	return []domain.LedgerEntry{
		{ID: 2, ItemID: 1, Type: domain.ChangeRestock, Delta: 10, PreviousStock: 5, NewStock: 15, Reason: "Manual restock"},
		{ID: 1, ItemID: 1, Type: domain.ChangeSale, Delta: -2, PreviousStock: 7, NewStock: 5, Reason: "Order ord-1"},
	}, nil
}

func (fakeRepo) VendorInventory(context.Context, int64) ([]catalogdomain.MenuItem, error) {
	return nil, nil
}

var vendor = auth.Principal{UserID: 3, Name: "Ravi", Role: auth.RoleVendor}

func newTestRouter(p auth.Principal) http.Handler {
	log := logging.New()
	service := application.NewService(log, fakeRepo{}, metrics.New("test"))
	handler := NewHandler(log, service)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithPrincipal(req.Context(), p)))
		})
	})
	r.Mount("/inventory", handler.Routes())
	return r
}

func TestAdjustEndpoint(t *testing.T) {
	router := newTestRouter(vendor)

	body := bytes.NewBufferString(`{"adjustment_type":"restock","quantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/inventory/items/1/adjust", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(5), resp["previous_stock"])
	assert.Equal(t, float64(15), resp["new_stock"])
	assert.Equal(t, float64(10), resp["quantity_change"])
}

func TestRestockEndpoint(t *testing.T) {
	router := newTestRouter(vendor)

	body := bytes.NewBufferString(`{"quantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/inventory/items/1/restock", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(15), resp["new_stock"])
	assert.Equal(t, float64(10), resp["quantity_added"])
}

func TestAdjustMissingReason(t *testing.T) {
	router := newTestRouter(vendor)

	body := bytes.NewBufferString(`{"adjustment_type":"waste","quantity":2}`)
	req := httptest.NewRequest(http.MethodPost, "/inventory/items/1/adjust", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var e apperr.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, apperr.CodeMissingReason, e.Code)
}

func TestAdjustUnknownItem(t *testing.T) {
	router := newTestRouter(vendor)

	body := bytes.NewBufferString(`{"adjustment_type":"restock","quantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/inventory/items/404/adjust", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdjustRequiresVendorRole(t *testing.T) {
	router := newTestRouter(auth.Principal{UserID: 7, Role: auth.RoleBuyer})

	body := bytes.NewBufferString(`{"adjustment_type":"restock","quantity":10}`)
	req := httptest.NewRequest(http.MethodPost, "/inventory/items/1/adjust", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAlertsEndpoint(t *testing.T) {
	router := newTestRouter(vendor)

	req := httptest.NewRequest(http.MethodGet, "/inventory/alerts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []domain.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Len(t, alerts, 2)
	assert.Equal(t, domain.AlertOutOfStock, alerts[0].Level)
}

func TestLedgerEndpoint(t *testing.T) {
	router := newTestRouter(vendor)

	req := httptest.NewRequest(http.MethodGet, "/inventory/items/1/ledger", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []domain.LedgerEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ChangeRestock, entries[0].Type)
	assert.Equal(t, -2, entries[1].Delta)
}
