package handler

import (
	"log/slog"
	"net/http"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/payment"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
)

// CheckoutHandler serves the payment flow: starting a checkout and the
// gateway's browser callbacks. Callbacks are reached by the buyer's browser
// following a gateway redirect, so they answer with redirects, never JSON
// errors.
type CheckoutHandler struct {
	checkout service.CheckoutService
	orders   service.OrderService
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler instance
func NewCheckoutHandler(checkout service.CheckoutService, orders service.OrderService, logger *slog.Logger) *CheckoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutHandler{checkout: checkout, orders: orders, logger: logger}
}

type startCheckoutRequest struct {
	// ProductIDs selects a subset of the cart. Empty means everything.
	ProductIDs []string `json:"productIds" validate:"omitempty,dive,uuid"`
}

type paymentWebhookRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	Status  string `json:"status" validate:"required,oneof=approved rejected pending"`
}

// Start handles POST /checkout
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startCheckoutRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
	}

	session, err := h.checkout.StartCheckout(r.Context(), service.StartCheckoutParams{
		UserID:     userID(r),
		ProductIDs: req.ProductIDs,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// Success handles GET /checkout/success?payment_id=...&reference=...
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result := h.checkout.ConfirmPayment(r.Context(), service.ConfirmPaymentParams{
		PaymentID: query.Get("payment_id"),
		Reference: query.Get("reference"),
	})
	http.Redirect(w, r, result.URL, http.StatusFound)
}

// Failure handles GET /checkout/failure
func (h *CheckoutHandler) Failure(w http.ResponseWriter, r *http.Request) {
	result := h.checkout.PaymentFailure(r.Context())
	http.Redirect(w, r, result.URL, http.StatusFound)
}

// Pending handles GET /checkout/pending?payment_id=...
func (h *CheckoutHandler) Pending(w http.ResponseWriter, r *http.Request) {
	result := h.checkout.PaymentPending(r.Context(), r.URL.Query().Get("payment_id"))
	http.Redirect(w, r, result.URL, http.StatusFound)
}

// Webhook handles POST /webhooks/payments: the gateway's server-to-server
// status notification, mapped onto the order lifecycle.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req paymentWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.ApplyPaymentStatus(r.Context(), req.OrderID, payment.Status(req.Status))
	if err != nil {
		// Unknown orders are acknowledged so the gateway stops retrying.
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			h.logger.Warn("payment webhook for unknown order",
				slog.String("order_id", req.OrderID),
				slog.String("status", req.Status))
			w.WriteHeader(http.StatusOK)
			return
		}
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
