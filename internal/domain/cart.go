package domain

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// CART DOMAIN TYPES
// =============================================================================

var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrEmptySelection   = &Error{Code: EINVALID, Message: "None of the selected products are in the cart"}
)

// Cart is the per-user mutable collection of line items awaiting checkout.
// At most one cart exists per user; it is created lazily on first add and
// emptied rather than deleted.
type Cart struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	Total     float64
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// CartItem is a stored cart line. UnitPrice is a cache of the catalog price
// at last sync, refreshed on every read; it is never authoritative.
type CartItem struct {
	ID        pgtype.UUID
	CartID    pgtype.UUID
	ProductID pgtype.UUID
	Quantity  int32
	UnitPrice float64
}

// StockIssue reports that a cart line's requested quantity exceeds the
// units currently available. Informational: it never fails a cart read.
type StockIssue struct {
	ProductID pgtype.UUID `json:"productId"`
	Name      string      `json:"name"`
	Available int32       `json:"available"`
	Requested int32       `json:"requested"`
}

// PricedLineItem is a cart line priced against the live catalog and the
// promotion snapshot at computation time. Computed fresh on every read,
// never persisted.
type PricedLineItem struct {
	ProductID          pgtype.UUID `json:"productId"`
	Name               string      `json:"name"`
	Quantity           int32       `json:"quantity"`
	UnitPrice          float64     `json:"unitPrice"`
	Subtotal           float64     `json:"subtotal"`
	Discount           float64     `json:"discount"`
	DiscountedSubtotal float64     `json:"discountedSubtotal"`
	AppliedPromotionID *string     `json:"appliedPromotionId,omitempty"`
}

// PricedCart is the read model returned by cart reads: all surviving items
// priced at current catalog prices, with informational stock issues.
type PricedCart struct {
	Cart        Cart             `json:"cart"`
	Items       []PricedLineItem `json:"items"`
	TotalItems  int32            `json:"totalItems"`
	TotalPrice  float64          `json:"totalPrice"`
	StockIssues []StockIssue     `json:"stockIssues,omitempty"`
}

// VirtualCart is a priced projection over a subset of a cart's items, used
// for partial checkout. It exists only for the duration of a request.
type VirtualCart struct {
	UserID               pgtype.UUID      `json:"userId"`
	Items                []PricedLineItem `json:"items"`
	TotalItems           int32            `json:"totalItems"`
	TotalPrice           float64          `json:"totalPrice"`
	TotalDiscount        float64          `json:"totalDiscount"`
	DiscountedTotalPrice float64          `json:"discountedTotalPrice"`
}

// PayableTotal is the amount actually charged at checkout: the discounted
// total when a discount applied, otherwise the undiscounted total.
func (v *VirtualCart) PayableTotal() float64 {
	if v.TotalDiscount > 0 {
		return v.DiscountedTotalPrice
	}
	return v.TotalPrice
}
