package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
)

// PromotionHandler serves promotion management endpoints.
type PromotionHandler struct {
	promotions service.PromotionService
	logger     *slog.Logger
}

// NewPromotionHandler creates a new PromotionHandler instance
func NewPromotionHandler(promotions service.PromotionService, logger *slog.Logger) *PromotionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PromotionHandler{promotions: promotions, logger: logger}
}

type promotionRequest struct {
	Title              string    `json:"title" validate:"required"`
	Scheme             string    `json:"scheme" validate:"required,oneof=NXN PERCENT_SECOND PERCENTAGE FIXED BUNDLE"`
	DiscountPercentage *float64  `json:"discountPercentage"`
	DiscountAmount     *float64  `json:"discountAmount"`
	BuyQuantity        *int32    `json:"buyQuantity"`
	GetQuantity        *int32    `json:"getQuantity"`
	StartsAt           time.Time `json:"startsAt" validate:"required"`
	EndsAt             time.Time `json:"endsAt" validate:"required"`
	ProductIDs         []string  `json:"productIds" validate:"required,min=1,dive,uuid"`
	IsActive           bool      `json:"isActive"`
}

func (req *promotionRequest) params() service.PromotionParams {
	return service.PromotionParams{
		Title:              req.Title,
		Scheme:             domain.PromotionScheme(req.Scheme),
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
		BuyQuantity:        req.BuyQuantity,
		GetQuantity:        req.GetQuantity,
		StartsAt:           req.StartsAt,
		EndsAt:             req.EndsAt,
		ProductIDs:         req.ProductIDs,
		IsActive:           req.IsActive,
	}
}

// List handles GET /promotions with optional scheme, productId, and active
// query filters.
func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := service.PromotionFilter{
		Scheme:     domain.PromotionScheme(query.Get("scheme")),
		ProductID:  query.Get("productId"),
		ActiveOnly: query.Get("active") == "true",
	}

	promotions, err := h.promotions.ListPromotions(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, promotions)
}

// Get handles GET /promotions/{id}
func (h *PromotionHandler) Get(w http.ResponseWriter, r *http.Request) {
	promotion, err := h.promotions.GetPromotion(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, promotion)
}

// Create handles POST /promotions
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req promotionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	promotion, err := h.promotions.CreatePromotion(r.Context(), req.params())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, promotion)
}

// Update handles PUT /promotions/{id}
func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req promotionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	promotion, err := h.promotions.UpdatePromotion(r.Context(), r.PathValue("id"), req.params())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, promotion)
}

// Delete handles DELETE /promotions/{id}
func (h *PromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.promotions.DeletePromotion(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Purge handles POST /promotions/purge: removes switched-off and expired
// promotions.
func (h *PromotionHandler) Purge(w http.ResponseWriter, r *http.Request) {
	removed, err := h.promotions.PurgeInactive(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
