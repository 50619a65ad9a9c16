package handler

import (
	"log/slog"
	"net/http"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
)

// OrderHandler serves order retrieval and lifecycle endpoints.
type OrderHandler struct {
	orders service.OrderService
	logger *slog.Logger
}

// NewOrderHandler creates a new OrderHandler instance
func NewOrderHandler(orders service.OrderService, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{orders: orders, logger: logger}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// List handles GET /orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// Get handles GET /orders/{id}, scoped to the caller.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), domain.OrderStatus(req.Status))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Delete handles DELETE /orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
