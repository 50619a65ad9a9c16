package payment

import (
	"context"
)

// Status is the gateway's tri-state view of a payment.
type Status string

const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPending  Status = "pending"
)

// Provider defines the interface for the redirect-based payment flow.
// Implementations can use Stripe Checkout, MercadoPago, etc.
type Provider interface {
	// CreatePreference registers a payable preference with the gateway and
	// returns the URL the buyer's browser is redirected to. The reference
	// travels through the gateway untouched and comes back on the
	// confirmation callback.
	CreatePreference(ctx context.Context, params CreatePreferenceParams) (*Preference, error)

	// GetPaymentStatus queries the gateway for the outcome of a payment.
	// Returns ErrPaymentNotFound when the gateway does not know the ID.
	GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentInfo, error)
}

// PreferenceItem is one payable line sent to the gateway. UnitPrice is the
// amount actually charged per unit, discounts already applied.
type PreferenceItem struct {
	ProductID string
	Title     string
	Quantity  int32
	UnitPrice float64
}

// CreatePreferenceParams contains parameters for creating a preference.
type CreatePreferenceParams struct {
	Items    []PreferenceItem
	Total    float64
	Currency string

	// Reference is the opaque checkout reference echoed back on callbacks.
	Reference string

	// Browser destinations the gateway redirects to after payment.
	SuccessURL string
	FailureURL string
	PendingURL string
}

// Preference is the gateway's handle for a payable checkout.
type Preference struct {
	ID string

	// RedirectURL is where the buyer completes the payment.
	RedirectURL string
}

// PaymentInfo reports the outcome of a payment.
type PaymentInfo struct {
	ID     string
	Status Status

	// Reference is the checkout reference attached at preference time,
	// when the gateway returns it.
	Reference string

	// Amount is the charged total, when the gateway reports it.
	Amount float64
}
