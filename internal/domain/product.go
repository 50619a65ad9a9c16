package domain

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}

	// ErrInsufficientStock is returned when a requested quantity exceeds the
	// units currently available, at write time or at checkout confirmation.
	ErrInsufficientStock = &Error{Code: ECONFLICT, Message: "Insufficient stock"}
)

// Product represents a catalog record: the authoritative source for
// name, price and stock. Cart line items cache its price but never
// own it.
type Product struct {
	ID          pgtype.UUID
	Name        string
	Description pgtype.Text
	Price       float64
	Stock       int32
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// InStock reports whether the product can satisfy the requested quantity.
func (p *Product) InStock(quantity int32) bool {
	return p.Stock >= quantity
}
