package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campuscart/marketplace/internal/inventory/application"
	"github.com/campuscart/marketplace/pkg/apperr"
	"github.com/campuscart/marketplace/pkg/auth"
	"github.com/campuscart/marketplace/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

// Routes mounts the vendor inventory endpoints. Everything here requires the
// vendor role; ownership of the individual item is checked in the store.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(auth.RoleVendor))

	r.Get("/", h.inventory)
	r.Get("/alerts", h.alerts)
	r.Post("/items/{itemID}/restock", h.restock)
	r.Post("/items/{itemID}/adjust", h.adjust)
	r.Get("/items/{itemID}/ledger", h.ledger)
	return r
}

func (h *Handler) inventory(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())
	items, err := h.service.Inventory(r.Context(), vendor)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())
	alerts, err := h.service.Alerts(r.Context(), vendor)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alerts)
}

type restockRequest struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// restock is the common-path shorthand for an adjust with type restock.
func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())
	itemID, err := itemParam(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	var req restockRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	res, err := h.service.Adjust(r.Context(), vendor, itemID, application.AdjustRequest{
		Type:     "restock",
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"item_id":        res.ItemID,
		"item_name":      res.ItemName,
		"quantity_added": res.Delta,
		"previous_stock": res.PreviousStock,
		"new_stock":      res.NewStock,
	})
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())
	itemID, err := itemParam(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	var req application.AdjustRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	res, err := h.service.Adjust(r.Context(), vendor, itemID, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"item_id":         res.ItemID,
		"item_name":       res.ItemName,
		"change_type":     res.Kind,
		"quantity_change": res.Delta,
		"previous_stock":  res.PreviousStock,
		"new_stock":       res.NewStock,
	})
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())
	itemID, err := itemParam(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	entries, err := h.service.Ledger(r.Context(), vendor, itemID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func itemParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Admission(apperr.CodeValidation, "invalid item id")
	}
	return id, nil
}
