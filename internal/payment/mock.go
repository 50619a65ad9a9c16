package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider is a mock payment provider for testing.
// Simulates the redirect flow without calling a real gateway.
type MockProvider struct {
	// CreatePreferenceFunc allows customizing preference creation behavior
	CreatePreferenceFunc func(ctx context.Context, params CreatePreferenceParams) (*Preference, error)

	// GetPaymentStatusFunc allows customizing status query behavior
	GetPaymentStatusFunc func(ctx context.Context, paymentID string) (*PaymentInfo, error)

	// Preferences stores created preferences keyed by ID
	Preferences map[string]*Preference

	// Payments stores payment outcomes keyed by payment ID; tests seed this
	// to script approved/rejected/pending responses
	Payments map[string]*PaymentInfo

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock payment provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Preferences: make(map[string]*Preference),
		Payments:    make(map[string]*PaymentInfo),
		CallLog:     []string{},
	}
}

// CreatePreference records the call and returns a fake redirect URL.
func (m *MockProvider) CreatePreference(ctx context.Context, params CreatePreferenceParams) (*Preference, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreatePreference(%d items, %.2f)", len(params.Items), params.Total))

	if m.CreatePreferenceFunc != nil {
		return m.CreatePreferenceFunc(ctx, params)
	}

	pref := &Preference{
		ID:          "pref_" + uuid.New().String(),
		RedirectURL: "https://pay.example.test/checkout/" + uuid.New().String(),
	}
	m.Preferences[pref.ID] = pref
	return pref, nil
}

// GetPaymentStatus returns a seeded payment, or approved by default.
func (m *MockProvider) GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetPaymentStatus(%s)", paymentID))

	if m.GetPaymentStatusFunc != nil {
		return m.GetPaymentStatusFunc(ctx, paymentID)
	}

	if info, ok := m.Payments[paymentID]; ok {
		return info, nil
	}

	return &PaymentInfo{
		ID:     paymentID,
		Status: StatusApproved,
	}, nil
}
