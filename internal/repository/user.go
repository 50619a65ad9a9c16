package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

const userColumns = `id, email, first_name, last_name, street, city, state,
	postal_code, country, phone, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Street,
		&u.City, &u.State, &u.PostalCode, &u.Country, &u.Phone,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetUser(ctx context.Context, id pgtype.UUID) (domain.User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

type UpsertUserParams struct {
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
}

// UpsertUser creates or refreshes a profile record keyed by identity.
func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (domain.User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (id, email, first_name, last_name, street, city, state,
			postal_code, country, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name, street = EXCLUDED.street,
		    city = EXCLUDED.city, state = EXCLUDED.state,
		    postal_code = EXCLUDED.postal_code, country = EXCLUDED.country,
		    phone = EXCLUDED.phone, updated_at = now()
		RETURNING `+userColumns,
		arg.ID, arg.Email, arg.FirstName, arg.LastName, arg.Street, arg.City,
		arg.State, arg.PostalCode, arg.Country, arg.Phone,
	)
	return scanUser(row)
}
