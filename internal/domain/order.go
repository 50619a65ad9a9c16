package domain

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// ORDER DOMAIN TYPES
// =============================================================================

var (
	ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Order not found"}
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a snapshot of a purchased line at confirmation time.
// Price is the per-unit amount actually charged (discounts applied),
// sourced from the catalog price current at confirmation.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int32   `json:"quantity"`
	Price     float64 `json:"price"`
}

// ShippingAddress is the destination snapshot copied from the user's
// profile when the order is created.
type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// Order is created only at checkout confirmation. Items and the shipping
// address are immutable snapshots; only the status changes afterwards.
type Order struct {
	ID              pgtype.UUID
	UserID          pgtype.UUID
	Items           []OrderItem
	Total           float64
	Status          OrderStatus
	ShippingAddress ShippingAddress
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}
