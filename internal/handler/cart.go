package handler

import (
	"log/slog"
	"net/http"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
)

// CartHandler serves the cart endpoints. The caller's identity comes from
// the middleware chain; every response is the cart priced at current
// catalog prices.
type CartHandler struct {
	carts  service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new CartHandler instance
func NewCartHandler(carts service.CartService, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{carts: carts, logger: logger}
}

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int32  `json:"quantity" validate:"required,gt=0"`
}

type updateCartItemRequest struct {
	Quantity int32 `json:"quantity" validate:"required,gt=0"`
}

type virtualCartRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,dive,uuid"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), userID(r), req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, cart)
}

// UpdateItem handles PATCH /cart/items/{productID}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.UpdateItem(r.Context(), userID(r), r.PathValue("productID"), req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.RemoveItem(r.Context(), userID(r), r.PathValue("productID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), userID(r), nil); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VirtualCart handles POST /cart/virtual: the priced projection over a
// selected subset of the cart, discounts applied.
func (h *CartHandler) VirtualCart(w http.ResponseWriter, r *http.Request) {
	var req virtualCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.VirtualCart(r.Context(), userID(r), req.ProductIDs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}
