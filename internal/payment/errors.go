package payment

import "errors"

var (
	// ErrInvalidAPIKey is returned when the gateway API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("payment: invalid or missing API key")

	// ErrPaymentNotFound is returned when the gateway does not know the payment ID.
	ErrPaymentNotFound = errors.New("payment: payment not found")

	// ErrPreferenceFailed is returned when the gateway rejects preference creation.
	ErrPreferenceFailed = errors.New("payment: failed to create preference")

	// ErrMissingRedirectURL is returned when the gateway accepted the
	// preference but did not hand back a redirect URL to send the buyer to.
	ErrMissingRedirectURL = errors.New("payment: gateway returned no redirect URL")
)
