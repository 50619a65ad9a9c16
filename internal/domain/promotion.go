package domain

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// PROMOTION DOMAIN TYPES
// =============================================================================

var (
	ErrPromotionNotFound = &Error{Code: ENOTFOUND, Message: "Promotion not found"}

	// ErrPromotionOverlap is returned when another active promotion of the
	// same scheme already targets one of the requested products.
	ErrPromotionOverlap = &Error{Code: ECONFLICT, Message: "An active promotion of the same type already covers one of these products"}
)

// PromotionScheme identifies the discount formula a promotion applies.
type PromotionScheme string

const (
	// SchemeNXN is "buy N get M free", parameterized by BuyQuantity and
	// GetQuantity.
	SchemeNXN PromotionScheme = "NXN"

	// SchemePercentSecond discounts every second unit by a percentage.
	SchemePercentSecond PromotionScheme = "PERCENT_SECOND"

	// SchemePercentage discounts every unit by a percentage.
	SchemePercentage PromotionScheme = "PERCENTAGE"

	// SchemeFixed subtracts a fixed amount per unit.
	SchemeFixed PromotionScheme = "FIXED"

	// SchemeBundle is reserved; it currently yields no discount.
	SchemeBundle PromotionScheme = "BUNDLE"
)

// Valid reports whether s is a known scheme.
func (s PromotionScheme) Valid() bool {
	switch s {
	case SchemeNXN, SchemePercentSecond, SchemePercentage, SchemeFixed, SchemeBundle:
		return true
	}
	return false
}

// Promotion is a time-bounded discount rule applicable to a set of products
// under one scheme. For a given scheme, concurrently-active promotions must
// not share an eligible product.
type Promotion struct {
	ID                 pgtype.UUID
	Title              string
	Scheme             PromotionScheme
	DiscountPercentage pgtype.Float8 // PERCENTAGE, PERCENT_SECOND
	DiscountAmount     pgtype.Float8 // FIXED
	BuyQuantity        pgtype.Int4   // NXN
	GetQuantity        pgtype.Int4   // NXN
	StartsAt           pgtype.Timestamptz
	EndsAt             pgtype.Timestamptz
	ProductIDs         []pgtype.UUID
	IsActive           bool
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

// ActiveAt reports whether the promotion is switched on and now falls
// within its validity window.
func (p *Promotion) ActiveAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	return !now.Before(p.StartsAt.Time) && !now.After(p.EndsAt.Time)
}

// Targets reports whether productID is in the promotion's eligible set.
func (p *Promotion) Targets(productID pgtype.UUID) bool {
	for _, id := range p.ProductIDs {
		if id.Bytes == productID.Bytes {
			return true
		}
	}
	return false
}
