// Package validate holds the shared input validation helpers used by every
// service: identifier, quantity and date-window checks. Services call these
// before any storage lookup so malformed input fails fast with EINVALID
// instead of surfacing as a miss.
package validate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

// UUID parses id as a canonical UUID. The field name is used in the error
// message ("user ID", "product ID", ...).
func UUID(op, field, id string) (pgtype.UUID, error) {
	var pgID pgtype.UUID
	if id == "" {
		return pgID, domain.Invalid(op, fmt.Sprintf("%s is required", field))
	}
	if _, err := uuid.Parse(id); err != nil {
		return pgID, domain.Invalid(op, fmt.Sprintf("%s is not a valid identifier: %s", field, id))
	}
	if err := pgID.Scan(id); err != nil {
		return pgID, domain.Invalid(op, fmt.Sprintf("%s is not a valid identifier: %s", field, id))
	}
	return pgID, nil
}

// UUIDs parses each element of ids, preserving order.
func UUIDs(op, field string, ids []string) ([]pgtype.UUID, error) {
	if len(ids) == 0 {
		return nil, domain.Invalid(op, fmt.Sprintf("%s must not be empty", field))
	}
	out := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		pgID, err := UUID(op, field, id)
		if err != nil {
			return nil, err
		}
		out = append(out, pgID)
	}
	return out, nil
}

// PositiveQuantity rejects zero and negative quantities.
func PositiveQuantity(op string, quantity int32) error {
	if quantity <= 0 {
		return domain.Invalid(op, "quantity must be greater than 0")
	}
	return nil
}

// Percentage checks a discount percentage is within [0, 100].
func Percentage(op, field string, pct float64) error {
	if pct < 0 || pct > 100 {
		return domain.Invalid(op, fmt.Sprintf("%s must be between 0 and 100", field))
	}
	return nil
}

// NonNegativeAmount rejects negative monetary amounts.
func NonNegativeAmount(op, field string, amount float64) error {
	if amount < 0 {
		return domain.Invalid(op, fmt.Sprintf("%s must not be negative", field))
	}
	return nil
}

// DateWindow checks a validity window is well-formed: both ends set and
// start strictly before end.
func DateWindow(op string, start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return domain.Invalid(op, "start and end dates are required")
	}
	if !start.Before(end) {
		return domain.Invalid(op, "start date must be before end date")
	}
	return nil
}
