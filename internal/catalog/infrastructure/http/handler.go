package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campuscart/marketplace/internal/catalog/application"
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

// Routes mounts the browse endpoints (any authenticated caller) and the
// vendor-only outlet management under /mine.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.openRestaurants)
	r.Get("/{restaurantID}", h.restaurant)
	r.Get("/{restaurantID}/menu", h.menu)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleVendor))
		r.Get("/mine/list", h.vendorRestaurants)
		r.Get("/mine/{restaurantID}/menu", h.vendorMenu)
		r.Patch("/mine/{restaurantID}/open", h.setOpen)
	})
	return r
}

func (h *Handler) openRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.service.OpenRestaurants(r.Context())
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, restaurants)
}

func (h *Handler) restaurant(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantParam(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	rest, err := h.service.Restaurant(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rest)
}

func (h *Handler) menu(w http.ResponseWriter, r *http.Request) {
	id, err := restaurantParam(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	items, err := h.service.Menu(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) vendorRestaurants(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())
	restaurants, err := h.service.VendorRestaurants(r.Context(), vendor)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, restaurants)
}

func (h *Handler) vendorMenu(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())
	id, err := restaurantParam(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	items, err := h.service.VendorMenu(r.Context(), vendor, id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

type setOpenRequest struct {
	IsOpen bool `json:"is_open"`
}

func (h *Handler) setOpen(w http.ResponseWriter, r *http.Request) {
	vendor, _ := auth.FromContext(r.Context())
	id, err := restaurantParam(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	var req setOpenRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.service.SetOpen(r.Context(), vendor, id, req.IsOpen); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"restaurant_id": id, "is_open": req.IsOpen})
}

func restaurantParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "restaurantID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Admission(apperr.CodeValidation, "invalid restaurant id")
	}
	return id, nil
}
