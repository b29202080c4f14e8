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

	"github.com/campuscart/marketplace/internal/order/application"
	"github.com/campuscart/marketplace/internal/order/domain"
	"github.com/campuscart/marketplace/pkg/apperr"
	"github.com/campuscart/marketplace/pkg/auth"
	"github.com/campuscart/marketplace/pkg/logging"
	"github.com/campuscart/marketplace/pkg/metrics"
)

type fakeRepo struct {
	placeErr error
	placed   []domain.Placement
}

func (f *fakeRepo) Place(_ context.Context, p domain.Placement) (domain.Receipt, error) {
	if f.placeErr != nil {
		return domain.Receipt{}, f.placeErr
	}
	f.placed = append(f.placed, p)
	return domain.Receipt{
		OrderID:    p.OrderID,
		TotalCents: 18500,
		Lines: []domain.OrderLine{
			{ItemID: 1, ItemName: "Masala Dosa", Quantity: 2, PriceCents: 8000, SubtotalCents: 16000},
			{ItemID: 2, ItemName: "Filter Coffee", Quantity: 1, PriceCents: 2500, SubtotalCents: 2500},
		},
	}, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, _ int64, _ string, next domain.OrderStatus) error {
	if next == domain.StatusDelivered {
		return apperr.Admission(apperr.CodeInvalidStatus, "cannot move order from pending to delivered")
	}
	return nil
}

func (f *fakeRepo) CancelByBuyer(context.Context, int64, string) error { return nil }

func (f *fakeRepo) ListByBuyer(context.Context, int64) ([]domain.Summary, error) {
	return []domain.Summary{{OrderID: "ord-1", RestaurantName: "Dosa Corner", TotalCents: 18500, Status: domain.StatusPending}}, nil
}

func (f *fakeRepo) ListByVendor(context.Context, int64) ([]domain.Summary, error) { return nil, nil }

func (f *fakeRepo) Details(context.Context, string, int64, int64) (domain.Details, error) {
	return domain.Details{}, apperr.NotFound("order not found or access denied")
}

type noopIdem struct{}

func (noopIdem) RequestKey(_ int64, key string) string      { return key }
func (noopIdem) Seen(context.Context, string) (bool, error) { return false, nil }
func (noopIdem) Release(context.Context, string) error      { return nil }

func newTestRouter(repo *fakeRepo, p auth.Principal) http.Handler {
	log := logging.New()
	service := application.NewService(log, repo, noopIdem{}, metrics.New("test"))
	handler := NewHandler(log, service)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithPrincipal(req.Context(), p)))
		})
	})
	r.Mount("/orders", handler.Routes())
	return r
}

var buyer = auth.Principal{UserID: 7, Name: "Asha", Role: auth.RoleBuyer}

func placeBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"restaurant_id":     10,
		"items":             []map[string]any{{"item_id": 1, "quantity": 2}, {"item_id": 2, "quantity": 1}},
		"delivery_location": "Hostel B, Room 214",
		"payment_method":    "upi",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestPlaceOrderReturnsReceipt(t *testing.T) {
	repo := &fakeRepo{}
	router := newTestRouter(repo, buyer)

	req := httptest.NewRequest(http.MethodPost, "/orders/", placeBody(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var receipt domain.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, int64(18500), receipt.TotalCents)
	assert.Len(t, receipt.Lines, 2)
	require.Len(t, repo.placed, 1)
	assert.Equal(t, int64(7), repo.placed[0].BuyerID)
}

func TestPlaceOrderRejectionWire(t *testing.T) {
	repo := &fakeRepo{
		placeErr: apperr.Admission(apperr.CodeInsufficientStock, "insufficient stock for Filter Coffee").
			WithDetail("available", "2").WithDetail("requested", "5"),
	}
	router := newTestRouter(repo, buyer)

	req := httptest.NewRequest(http.MethodPost, "/orders/", placeBody(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var e apperr.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, apperr.CodeInsufficientStock, e.Code)
	assert.Equal(t, "2", e.Details["available"])
}

func TestPlaceOrderRequiresBuyerRole(t *testing.T) {
	router := newTestRouter(&fakeRepo{}, auth.Principal{UserID: 3, Role: auth.RoleVendor})

	req := httptest.NewRequest(http.MethodPost, "/orders/", placeBody(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPlaceOrderMalformedBody(t *testing.T) {
	router := newTestRouter(&fakeRepo{}, buyer)

	req := httptest.NewRequest(http.MethodPost, "/orders/", bytes.NewBufferString(`{"restaurant_id":`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuyerOrdersList(t *testing.T) {
	router := newTestRouter(&fakeRepo{}, buyer)

	req := httptest.NewRequest(http.MethodGet, "/orders/mine", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var orders []domain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "Dosa Corner", orders[0].RestaurantName)
}

func TestUpdateStatusVendorOnly(t *testing.T) {
	body := `{"status":"confirmed"}`

	router := newTestRouter(&fakeRepo{}, buyer)
	req := httptest.NewRequest(http.MethodPatch, "/orders/ord-1/status", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	router = newTestRouter(&fakeRepo{}, auth.Principal{UserID: 3, Role: auth.RoleVendor})
	req = httptest.NewRequest(http.MethodPatch, "/orders/ord-1/status", bytes.NewBufferString(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp["order_status"])
	assert.Equal(t, "ord-1", resp["order_id"])
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	router := newTestRouter(&fakeRepo{}, auth.Principal{UserID: 3, Role: auth.RoleVendor})

	req := httptest.NewRequest(http.MethodPatch, "/orders/ord-1/status", bytes.NewBufferString(`{"status":"delivered"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var e apperr.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, apperr.CodeInvalidStatus, e.Code)
}

func TestDetailsNotFoundIsOpaque(t *testing.T) {
	router := newTestRouter(&fakeRepo{}, buyer)

	req := httptest.NewRequest(http.MethodGet, "/orders/ord-unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var e apperr.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "order not found or access denied", e.Message)
}
