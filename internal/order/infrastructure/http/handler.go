package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/campuscart/marketplace/internal/order/application"
	"github.com/campuscart/marketplace/pkg/auth"
	"github.com/campuscart/marketplace/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service, tracer: otel.Tracer("order-http")}
}

// Routes mounts the order endpoints. Placement and cancellation are buyer
// actions; status updates belong to vendors; the detail view accepts either
// side and scopes the read.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleBuyer))
		r.Post("/", h.placeOrder)
		r.Get("/mine", h.buyerOrders)
		r.Post("/{orderID}/cancel", h.cancelOrder)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleVendor))
		r.Get("/incoming", h.vendorOrders)
		r.Patch("/{orderID}/status", h.updateStatus)
	})

	r.Get("/{orderID}", h.orderDetails)
	return r
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	buyer, _ := auth.FromContext(ctx)

	var req application.PlaceOrderRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	receipt, err := h.service.PlaceOrder(ctx, buyer, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) buyerOrders(w http.ResponseWriter, r *http.Request) {
	buyer, _ := auth.FromContext(r.Context())
	orders, err := h.service.BuyerOrders(r.Context(), buyer)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) vendorOrders(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())
	orders, err := h.service.VendorOrders(r.Context(), vendor)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) orderDetails(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusUnauthorized, map[string]string{"code": "UNAUTHORIZED", "message": "authentication required"})
		return
	}
	details, err := h.service.Details(r.Context(), p, chi.URLParam(r, "orderID"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())

	var req application.UpdateStatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.service.UpdateStatus(r.Context(), vendor, chi.URLParam(r, "orderID"), req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"order_id": chi.URLParam(r, "orderID"), "order_status": req.Status})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	buyer, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")
	if err := h.service.Cancel(r.Context(), buyer, orderID); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"order_id": orderID, "status": "cancelled"})
}
