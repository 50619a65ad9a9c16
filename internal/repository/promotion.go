package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

const promotionColumns = `id, title, scheme, discount_percentage, discount_amount,
	buy_quantity, get_quantity, starts_at, ends_at, product_ids, is_active,
	created_at, updated_at`

func scanPromotion(row interface{ Scan(dest ...any) error }) (domain.Promotion, error) {
	var p domain.Promotion
	err := row.Scan(
		&p.ID, &p.Title, &p.Scheme, &p.DiscountPercentage, &p.DiscountAmount,
		&p.BuyQuantity, &p.GetQuantity, &p.StartsAt, &p.EndsAt, &p.ProductIDs,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (q *Queries) collectPromotions(ctx context.Context, sql string, args ...any) ([]domain.Promotion, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promos []domain.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

type CreatePromotionParams struct {
	Title              string
	Scheme             domain.PromotionScheme
	DiscountPercentage pgtype.Float8
	DiscountAmount     pgtype.Float8
	BuyQuantity        pgtype.Int4
	GetQuantity        pgtype.Int4
	StartsAt           time.Time
	EndsAt             time.Time
	ProductIDs         []pgtype.UUID
	IsActive           bool
}

func (q *Queries) CreatePromotion(ctx context.Context, arg CreatePromotionParams) (domain.Promotion, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO promotions (title, scheme, discount_percentage, discount_amount,
			buy_quantity, get_quantity, starts_at, ends_at, product_ids, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+promotionColumns,
		arg.Title, arg.Scheme, arg.DiscountPercentage, arg.DiscountAmount,
		arg.BuyQuantity, arg.GetQuantity, arg.StartsAt, arg.EndsAt,
		arg.ProductIDs, arg.IsActive,
	)
	return scanPromotion(row)
}

func (q *Queries) GetPromotion(ctx context.Context, id pgtype.UUID) (domain.Promotion, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	return scanPromotion(row)
}

type ListPromotionsParams struct {
	// Scheme filters by discount scheme when non-empty.
	Scheme domain.PromotionScheme

	// ProductID filters to promotions targeting the product when valid.
	ProductID pgtype.UUID

	// ActiveOnly restricts to switched-on promotions whose window contains Now.
	ActiveOnly bool
	Now        time.Time
}

func (q *Queries) ListPromotions(ctx context.Context, arg ListPromotionsParams) ([]domain.Promotion, error) {
	return q.collectPromotions(ctx, `
		SELECT `+promotionColumns+` FROM promotions
		WHERE ($1 = '' OR scheme = $1)
		  AND (NOT $2::bool OR $3 = ANY(product_ids))
		  AND (NOT $4::bool OR (is_active AND starts_at <= $5 AND ends_at >= $5))
		ORDER BY created_at DESC`,
		string(arg.Scheme), arg.ProductID.Valid, arg.ProductID, arg.ActiveOnly, arg.Now,
	)
}

type UpdatePromotionParams struct {
	ID                 pgtype.UUID
	Title              string
	Scheme             domain.PromotionScheme
	DiscountPercentage pgtype.Float8
	DiscountAmount     pgtype.Float8
	BuyQuantity        pgtype.Int4
	GetQuantity        pgtype.Int4
	StartsAt           time.Time
	EndsAt             time.Time
	ProductIDs         []pgtype.UUID
	IsActive           bool
}

func (q *Queries) UpdatePromotion(ctx context.Context, arg UpdatePromotionParams) (domain.Promotion, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE promotions
		SET title = $2, scheme = $3, discount_percentage = $4, discount_amount = $5,
		    buy_quantity = $6, get_quantity = $7, starts_at = $8, ends_at = $9,
		    product_ids = $10, is_active = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+promotionColumns,
		arg.ID, arg.Title, arg.Scheme, arg.DiscountPercentage, arg.DiscountAmount,
		arg.BuyQuantity, arg.GetQuantity, arg.StartsAt, arg.EndsAt,
		arg.ProductIDs, arg.IsActive,
	)
	return scanPromotion(row)
}

func (q *Queries) DeletePromotion(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type ActivePromotionsForProductParams struct {
	ProductID pgtype.UUID
	Now       time.Time
}

// ActivePromotionsForProduct returns promotions targeting the product that
// are switched on with Now inside their validity window, oldest first so
// callers see a deterministic evaluation order.
func (q *Queries) ActivePromotionsForProduct(ctx context.Context, arg ActivePromotionsForProductParams) ([]domain.Promotion, error) {
	return q.collectPromotions(ctx, `
		SELECT `+promotionColumns+` FROM promotions
		WHERE $1 = ANY(product_ids)
		  AND is_active
		  AND starts_at <= $2 AND ends_at >= $2
		ORDER BY created_at ASC`,
		arg.ProductID, arg.Now,
	)
}

type CountOverlappingPromotionsParams struct {
	Scheme     domain.PromotionScheme
	ProductIDs []pgtype.UUID
	Now        time.Time

	// ExcludeID skips one promotion (the one being updated) when valid.
	ExcludeID pgtype.UUID
}

// CountOverlappingPromotions counts active promotions of the same scheme
// whose eligible set intersects ProductIDs. A non-zero count is a conflict.
func (q *Queries) CountOverlappingPromotions(ctx context.Context, arg CountOverlappingPromotionsParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM promotions
		WHERE scheme = $1
		  AND product_ids && $2
		  AND is_active
		  AND starts_at <= $3 AND ends_at >= $3
		  AND ($4::uuid IS NULL OR id <> $4)`,
		arg.Scheme, arg.ProductIDs, arg.Now, arg.ExcludeID,
	).Scan(&count)
	return count, err
}

// DeleteExpiredPromotions removes promotions that are switched off or whose
// window has closed. Returns the number deleted.
func (q *Queries) DeleteExpiredPromotions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM promotions WHERE NOT is_active OR ends_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
