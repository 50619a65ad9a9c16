package handler

import (
	"log/slog"
	"net/http"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
)

// ProductHandler serves the catalog CRUD endpoints.
type ProductHandler struct {
	products service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new ProductHandler instance
func NewProductHandler(products service.ProductService, logger *slog.Logger) *ProductHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductHandler{products: products, logger: logger}
}

type productRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int32   `json:"stock" validate:"gte=0"`
}

// List handles GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// Get handles GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Create handles POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), service.ProductParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), r.PathValue("id"), service.ProductParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.products.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
