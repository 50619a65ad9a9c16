package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

const orderColumns = `id, user_id, items, total, status, shipping_address, created_at, updated_at`

// Items and shipping_address are jsonb; pgx marshals the domain structs
// through encoding/json on both directions.
func scanOrder(row interface{ Scan(dest ...any) error }) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Items, &o.Total, &o.Status,
		&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

type CreateOrderParams struct {
	UserID          pgtype.UUID
	Items           []domain.OrderItem
	Total           float64
	Status          domain.OrderStatus
	ShippingAddress domain.ShippingAddress
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (domain.Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, items, total, status, shipping_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns,
		arg.UserID, arg.Items, arg.Total, arg.Status, arg.ShippingAddress,
	)
	return scanOrder(row)
}

type GetOrderParams struct {
	ID pgtype.UUID

	// UserID scopes the lookup to the owning user when valid.
	UserID pgtype.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (domain.Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND ($2::uuid IS NULL OR user_id = $2)`,
		arg.ID, arg.UserID)
	return scanOrder(row)
}

func (q *Queries) ListOrdersByUser(ctx context.Context, userID pgtype.UUID) ([]domain.Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID     pgtype.UUID
	Status domain.OrderStatus
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (domain.Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.Status)
	return scanOrder(row)
}

func (q *Queries) DeleteOrder(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
