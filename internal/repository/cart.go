package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

func (q *Queries) GetCartByUserID(ctx context.Context, userID pgtype.UUID) (domain.Cart, error) {
	var c domain.Cart
	err := q.db.QueryRow(ctx, `
		SELECT id, user_id, total, created_at, updated_at
		FROM carts WHERE user_id = $1`, userID,
	).Scan(&c.ID, &c.UserID, &c.Total, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCart inserts the user's cart row. The unique index on user_id makes
// creation idempotent under concurrent first adds: on conflict the existing
// row is returned untouched.
func (q *Queries) CreateCart(ctx context.Context, userID pgtype.UUID) (domain.Cart, error) {
	var c domain.Cart
	err := q.db.QueryRow(ctx, `
		INSERT INTO carts (user_id, total)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, total, created_at, updated_at`, userID,
	).Scan(&c.ID, &c.UserID, &c.Total, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type UpdateCartTotalParams struct {
	CartID pgtype.UUID
	Total  float64
}

func (q *Queries) UpdateCartTotal(ctx context.Context, arg UpdateCartTotalParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE carts SET total = $2, updated_at = now() WHERE id = $1`,
		arg.CartID, arg.Total,
	)
	return err
}

const cartItemColumns = `id, cart_id, product_id, quantity, unit_price`

func scanCartItem(row interface{ Scan(dest ...any) error }) (domain.CartItem, error) {
	var it domain.CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.UnitPrice)
	return it, err
}

func (q *Queries) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]domain.CartItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE cart_id = $1 ORDER BY id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CartItemKey identifies one line within a cart.
type CartItemKey struct {
	CartID    pgtype.UUID
	ProductID pgtype.UUID
}

func (q *Queries) GetCartItem(ctx context.Context, arg CartItemKey) (domain.CartItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE cart_id = $1 AND product_id = $2`,
		arg.CartID, arg.ProductID)
	return scanCartItem(row)
}

type AddCartItemParams struct {
	CartID    pgtype.UUID
	ProductID pgtype.UUID
	Quantity  int32
	UnitPrice float64
}

// AddCartItem appends a line or atomically sums quantities when the product
// is already in the cart. The single-statement upsert avoids the lost-update
// window a read-then-save cycle would have under concurrent adds.
func (q *Queries) AddCartItem(ctx context.Context, arg AddCartItemParams) (domain.CartItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity,
		    unit_price = EXCLUDED.unit_price
		RETURNING `+cartItemColumns,
		arg.CartID, arg.ProductID, arg.Quantity, arg.UnitPrice,
	)
	return scanCartItem(row)
}

type SetCartItemParams struct {
	CartID    pgtype.UUID
	ProductID pgtype.UUID
	Quantity  int32
	UnitPrice float64
}

// SetCartItem overwrites a line's quantity and refreshes its cached price.
// Affects no rows when the line does not exist.
func (q *Queries) SetCartItem(ctx context.Context, arg SetCartItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE cart_items
		SET quantity = $3, unit_price = $4
		WHERE cart_id = $1 AND product_id = $2`,
		arg.CartID, arg.ProductID, arg.Quantity, arg.UnitPrice,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type UpdateCartItemPriceParams struct {
	CartID    pgtype.UUID
	ProductID pgtype.UUID
	UnitPrice float64
}

// UpdateCartItemPrice persists a catalog price refresh onto the cached line.
func (q *Queries) UpdateCartItemPrice(ctx context.Context, arg UpdateCartItemPriceParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE cart_items SET unit_price = $3
		WHERE cart_id = $1 AND product_id = $2`,
		arg.CartID, arg.ProductID, arg.UnitPrice,
	)
	return err
}

func (q *Queries) DeleteCartItem(ctx context.Context, arg CartItemKey) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		arg.CartID, arg.ProductID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type DeleteCartItemsParams struct {
	CartID     pgtype.UUID
	ProductIDs []pgtype.UUID
}

// DeleteCartItems removes only the named product lines, leaving the rest of
// the cart intact. Used post-payment to drop exactly the paid items.
func (q *Queries) DeleteCartItems(ctx context.Context, arg DeleteCartItemsParams) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1 AND product_id = ANY($2)`,
		arg.CartID, arg.ProductIDs,
	)
	return err
}

func (q *Queries) ClearCartItems(ctx context.Context, cartID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
