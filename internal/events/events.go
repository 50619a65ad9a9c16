// Package events publishes domain events for downstream consumers
// (fulfillment, notifications, analytics). Publishing is best-effort:
// checkout never fails because an event could not be delivered.
package events

import (
	"context"
	"time"
)

// Subjects.
const (
	SubjectOrderCreated    = "orders.created"
	SubjectPaymentApproved = "payments.approved"
	SubjectPaymentRejected = "payments.rejected"
)

// OrderCreated is emitted after checkout confirmation persists an order.
type OrderCreated struct {
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Total      float64   `json:"total"`
	ItemCount  int       `json:"itemCount"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PaymentResult is emitted for each gateway callback outcome.
type PaymentResult struct {
	PaymentID  string    `json:"paymentId"`
	UserID     string    `json:"userId,omitempty"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close()
}

// NoopPublisher discards events. Used in tests and when no bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, event any) error { return nil }
func (NoopPublisher) Close()                                                       {}
