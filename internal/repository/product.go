package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

const productColumns = `id, name, description, price, stock, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type CreateProductParams struct {
	Name        string
	Description pgtype.Text
	Price       float64
	Stock       int32
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (domain.Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING `+productColumns,
		arg.Name, arg.Description, arg.Price, arg.Stock,
	)
	return scanProduct(row)
}

func (q *Queries) GetProduct(ctx context.Context, id pgtype.UUID) (domain.Product, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (q *Queries) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type UpdateProductParams struct {
	ID          pgtype.UUID
	Name        string
	Description pgtype.Text
	Price       float64
	Stock       int32
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (domain.Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.Stock,
	)
	return scanProduct(row)
}

func (q *Queries) DeleteProduct(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type DecrementProductStockParams struct {
	ID       pgtype.UUID
	Quantity int32
}

// DecrementProductStock conditionally decrements stock in a single
// statement. It affects no rows when the product is missing or the
// decrement would drive stock negative; callers treat 0 as insufficient
// stock. This is the only write that guards against overselling under
// concurrent confirmations.
func (q *Queries) DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`,
		arg.ID, arg.Quantity,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
