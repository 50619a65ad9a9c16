package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

type contextKey string

// ============================================================================
// MIDDLEWARE ERROR RESPONSE HELPERS
// ============================================================================
//
// These helpers provide consistent JSON error responses for middleware.
// They mirror the handler.Error patterns but are self-contained to avoid
// circular imports (handler imports middleware for GetLogger, etc.)

// respondWithError writes a structured JSON error response to the client.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := GetLogger(r.Context())
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}
	if reqID := GetRequestID(r.Context()); reqID != "" {
		attrs = append(attrs, "request_id", reqID)
	}

	if status >= 500 {
		logger.Error("middleware error", attrs...)
	} else {
		logger.Info("middleware error", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// respondUnauthorized is a convenience wrapper for 401 errors.
func respondUnauthorized(w http.ResponseWriter, r *http.Request) {
	err := domain.Errorf(domain.EUNAUTHORIZED, "", "Authentication required")
	respondWithError(w, r, err)
}

// respondTooManyRequests is a convenience wrapper for 429 errors.
func respondTooManyRequests(w http.ResponseWriter, r *http.Request) {
	err := domain.Errorf(domain.ERATELIMIT, "", "Too many requests")
	respondWithError(w, r, err)
}

// respondBadRequest is a convenience wrapper for 400 errors.
func respondBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	err := domain.Errorf(domain.EINVALID, "", "%s", message)
	respondWithError(w, r, err)
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EPAYMENT:
		return http.StatusPaymentRequired // 402
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
