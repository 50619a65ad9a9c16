package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeProvider implements Provider using Stripe Checkout Sessions: the
// session URL is the redirect destination and the attached PaymentIntent
// carries the payment outcome.
type StripeProvider struct {
	currency string
}

// NewStripeProvider creates a Stripe-backed provider. currency is the
// three-letter ISO code used when a preference does not set one.
func NewStripeProvider(apiKey, currency string) (*StripeProvider, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	stripe.Key = apiKey
	if currency == "" {
		currency = "usd"
	}
	return &StripeProvider{currency: currency}, nil
}

// CreatePreference opens a Checkout Session for the priced items. The
// checkout reference rides in ClientReferenceID and is copied onto the
// PaymentIntent metadata so a later status query can recover it.
func (p *StripeProvider) CreatePreference(ctx context.Context, params CreatePreferenceParams) (*Preference, error) {
	if len(params.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrPreferenceFailed)
	}

	currency := params.Currency
	if currency == "" {
		currency = p.currency
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.Items))
	for _, item := range params.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(toMinorUnits(item.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Title),
				},
			},
		})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(params.Reference),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.FailureURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"checkout_reference": params.Reference,
			},
		},
	}
	sessionParams.Context = ctx

	s, err := session.New(sessionParams)
	if err != nil {
		return nil, wrapStripeErr(err)
	}
	if s.URL == "" {
		return nil, ErrMissingRedirectURL
	}

	return &Preference{
		ID:          s.ID,
		RedirectURL: s.URL,
	}, nil
}

// GetPaymentStatus maps the PaymentIntent state onto the tri-state outcome:
// succeeded is approved, canceled is rejected, everything in flight is
// pending.
func (p *StripeProvider) GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(paymentID, params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	var status Status
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = StatusApproved
	case stripe.PaymentIntentStatusCanceled:
		status = StatusRejected
	default:
		status = StatusPending
	}

	return &PaymentInfo{
		ID:        pi.ID,
		Status:    status,
		Reference: pi.Metadata["checkout_reference"],
		Amount:    fromMinorUnits(pi.Amount),
	}, nil
}

// toMinorUnits converts a decimal amount to integer minor units (cents).
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

func wrapStripeErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripe.ErrorCodeResourceMissing:
			return fmt.Errorf("%w: %s", ErrPaymentNotFound, stripeErr.Msg)
		case stripeErr.HTTPStatusCode == 401:
			return fmt.Errorf("%w: %s", ErrInvalidAPIKey, stripeErr.Msg)
		}
	}
	return err
}
