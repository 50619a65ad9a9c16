package domain

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// USER DOMAIN TYPES
// =============================================================================

var (
	ErrUserNotFound = &Error{Code: ENOTFOUND, Message: "User not found"}

	// ErrIncompleteShippingInfo is returned at order creation when the
	// user's profile is missing required shipping fields.
	ErrIncompleteShippingInfo = &Error{Code: EINVALID, Message: "Shipping information is incomplete"}
)

// User is the profile record consulted at checkout confirmation for the
// shipping snapshot. Authentication is handled elsewhere; this store only
// carries identity and shipping fields.
type User struct {
	ID         pgtype.UUID
	Email      string
	FirstName  string
	LastName   string
	Street     pgtype.Text
	City       pgtype.Text
	State      pgtype.Text
	PostalCode pgtype.Text
	Country    pgtype.Text
	Phone      pgtype.Text
	CreatedAt  pgtype.Timestamptz
	UpdatedAt  pgtype.Timestamptz
}

// ShippingAddress builds the order snapshot from the profile.
func (u *User) ShippingAddress() ShippingAddress {
	return ShippingAddress{
		Street:     u.Street.String,
		City:       u.City.String,
		State:      u.State.String,
		PostalCode: u.PostalCode.String,
		Country:    u.Country.String,
		Phone:      u.Phone.String,
	}
}

// MissingShippingFields lists required shipping fields that are empty.
// An order cannot be created while any are missing.
func (u *User) MissingShippingFields() []string {
	var missing []string
	check := func(name string, v pgtype.Text) {
		if !v.Valid || v.String == "" {
			missing = append(missing, name)
		}
	}
	check("street", u.Street)
	check("city", u.City)
	check("state", u.State)
	check("postalCode", u.PostalCode)
	check("country", u.Country)
	check("phone", u.Phone)
	return missing
}
