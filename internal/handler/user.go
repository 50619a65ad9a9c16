package handler

import (
	"log/slog"
	"net/http"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
)

// UserHandler serves the caller's shipping profile.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

type profileRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	FirstName  string  `json:"firstName" validate:"required"`
	LastName   string  `json:"lastName" validate:"required"`
	Street     *string `json:"street"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
	Phone      *string `json:"phone"`
}

// GetProfile handles GET /users/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetProfile(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpsertProfile handles PUT /users/me
func (h *UserHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.users.UpsertProfile(r.Context(), userID(r), service.ProfileParams{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
