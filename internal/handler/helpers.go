// Package handler implements the JSON HTTP surface: request decoding and
// validation, service dispatch, and domain-error to status mapping.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/middleware"
)

// validate is the shared request validator. Handlers declare constraints on
// their DTOs with `validate` tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// respondError maps a domain error onto an HTTP status and writes the
// structured error body. Validation errors carry per-field detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsValidationError(err) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"code":    domain.EINVALID,
				"message": "Request validation failed",
				"fields":  domain.GetValidationFields(err),
			},
		})
		return
	}

	code := domain.ErrorCode(err)
	status := middleware.ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"status", status,
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	respondJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": domain.ErrorMessage(err),
		},
	})
}

// decodeJSON decodes the request body into dst and runs its validate tags.
func decodeJSON(r *http.Request, dst any) error {
	const op = "handler.decode"

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid(op, "request body is required")
		}
		return domain.Invalid(op, "malformed JSON body")
	}

	if err := validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			return domain.Internal(err, op, "request validation failed")
		}
		var ve error
		for _, fe := range invalid {
			ve = domain.AddFieldError(ve, fieldName(fe), validationMessage(fe))
		}
		return ve
	}
	return nil
}

// fieldName lowercases the leading struct-field letter so error detail
// matches the JSON casing clients sent.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// userID pulls the caller's identity injected by the middleware chain.
func userID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
