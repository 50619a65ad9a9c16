package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/repository"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/validate"
)

// PromotionService provides promotion management and the discount engine:
// per-item discount computation and best-promotion selection.
type PromotionService interface {
	CreatePromotion(ctx context.Context, params PromotionParams) (*domain.Promotion, error)
	UpdatePromotion(ctx context.Context, promotionID string, params PromotionParams) (*domain.Promotion, error)
	GetPromotion(ctx context.Context, promotionID string) (*domain.Promotion, error)
	ListPromotions(ctx context.Context, filter PromotionFilter) ([]domain.Promotion, error)
	DeletePromotion(ctx context.Context, promotionID string) error

	// PurgeInactive deletes promotions that are switched off or expired.
	// Returns the number removed.
	PurgeInactive(ctx context.Context) (int64, error)

	// ActivePromotionsForProduct returns the promotions currently applicable
	// to a product: eligible, switched on, and inside their validity window.
	ActivePromotionsForProduct(ctx context.Context, productID pgtype.UUID) ([]domain.Promotion, error)

	// PriceCartItems runs the discount engine over cart lines: for each line
	// it computes every applicable promotion's discount and applies the best
	// one. Pure read; performs no writes.
	PriceCartItems(ctx context.Context, items []PricingInput) (*PricingResult, error)
}

// PromotionParams carries the full promotion definition for create/update.
type PromotionParams struct {
	Title              string
	Scheme             domain.PromotionScheme
	DiscountPercentage *float64
	DiscountAmount     *float64
	BuyQuantity        *int32
	GetQuantity        *int32
	StartsAt           time.Time
	EndsAt             time.Time
	ProductIDs         []string
	IsActive           bool
}

// PromotionFilter narrows ListPromotions.
type PromotionFilter struct {
	Scheme     domain.PromotionScheme
	ProductID  string
	ActiveOnly bool
}

// PricingInput is one cart line fed to the discount engine, priced at the
// current catalog price.
type PricingInput struct {
	ProductID pgtype.UUID
	Name      string
	Quantity  int32
	UnitPrice float64
}

// PricingResult is the engine's output: a priced line per input plus the
// summed discount.
type PricingResult struct {
	Items         []domain.PricedLineItem
	TotalDiscount float64
}

type promotionService struct {
	repo repository.Querier
	now  func() time.Time
}

// NewPromotionService creates a new PromotionService instance
func NewPromotionService(repo repository.Querier) (PromotionService, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &promotionService{repo: repo, now: time.Now}, nil
}

// =============================================================================
// Discount formulas
// =============================================================================

// CalculateDiscount computes the discount one promotion yields for a line of
// quantity units at unitPrice each. The result is clamped so the discounted
// subtotal never goes negative.
func CalculateDiscount(p *domain.Promotion, quantity int32, unitPrice float64) float64 {
	if quantity <= 0 || unitPrice < 0 {
		return 0
	}

	subtotal := float64(quantity) * unitPrice
	var discount float64

	switch p.Scheme {
	case domain.SchemePercentage:
		discount = subtotal * p.DiscountPercentage.Float64 / 100

	case domain.SchemeNXN:
		// Buy B, get G free: each full group of B+G units includes G free
		// units; a partial group past its first B units is free as well.
		buy := p.BuyQuantity.Int32
		get := p.GetQuantity.Int32
		if buy <= 0 || get <= 0 {
			return 0
		}
		group := buy + get
		free := (quantity/group)*get + max32(0, quantity%group-buy)
		discount = float64(free) * unitPrice

	case domain.SchemePercentSecond:
		// Every second unit is discounted by the percentage.
		if quantity < 2 {
			return 0
		}
		discountedUnits := quantity / 2
		discount = float64(discountedUnits) * unitPrice * p.DiscountPercentage.Float64 / 100

	case domain.SchemeFixed:
		discount = p.DiscountAmount.Float64 * float64(quantity)

	case domain.SchemeBundle:
		// Reserved scheme, yields nothing yet.
		return 0

	default:
		return 0
	}

	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// bestPromotion selects the winning promotion for a line: highest discount,
// ties broken by most recently created promotion. Returns nil when nothing
// yields a positive discount.
func bestPromotion(promos []domain.Promotion, quantity int32, unitPrice float64) (*domain.Promotion, float64) {
	var best *domain.Promotion
	var bestDiscount float64

	for i := range promos {
		p := &promos[i]
		discount := CalculateDiscount(p, quantity, unitPrice)
		if discount <= 0 {
			continue
		}
		switch {
		case best == nil || discount > bestDiscount:
			best, bestDiscount = p, discount
		case discount == bestDiscount && p.CreatedAt.Time.After(best.CreatedAt.Time):
			best = p
		}
	}
	return best, bestDiscount
}

func (s *promotionService) PriceCartItems(ctx context.Context, items []PricingInput) (*PricingResult, error) {
	result := &PricingResult{Items: make([]domain.PricedLineItem, 0, len(items))}

	for _, item := range items {
		subtotal := float64(item.Quantity) * item.UnitPrice
		line := domain.PricedLineItem{
			ProductID:          item.ProductID,
			Name:               item.Name,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			Subtotal:           subtotal,
			DiscountedSubtotal: subtotal,
		}

		promos, err := s.ActivePromotionsForProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		if best, discount := bestPromotion(promos, item.Quantity, item.UnitPrice); best != nil {
			id := uuidString(best.ID)
			line.Discount = discount
			line.DiscountedSubtotal = subtotal - discount
			line.AppliedPromotionID = &id
			result.TotalDiscount += discount
		}

		result.Items = append(result.Items, line)
	}

	return result, nil
}

func (s *promotionService) ActivePromotionsForProduct(ctx context.Context, productID pgtype.UUID) ([]domain.Promotion, error) {
	promos, err := s.repo.ActivePromotionsForProduct(ctx, repository.ActivePromotionsForProductParams{
		ProductID: productID,
		Now:       s.now(),
	})
	if err != nil {
		return nil, domain.Internal(err, "promotion.active", "failed to load active promotions")
	}
	return promos, nil
}

// =============================================================================
// Promotion management
// =============================================================================

func (s *promotionService) CreatePromotion(ctx context.Context, params PromotionParams) (*domain.Promotion, error) {
	const op = "promotion.create"

	arg, err := s.validateParams(op, params)
	if err != nil {
		return nil, err
	}

	if err := s.checkOverlap(ctx, op, params.Scheme, arg.ProductIDs, params, pgtype.UUID{}); err != nil {
		return nil, err
	}

	promo, err := s.repo.CreatePromotion(ctx, repository.CreatePromotionParams{
		Title:              params.Title,
		Scheme:             params.Scheme,
		DiscountPercentage: arg.DiscountPercentage,
		DiscountAmount:     arg.DiscountAmount,
		BuyQuantity:        arg.BuyQuantity,
		GetQuantity:        arg.GetQuantity,
		StartsAt:           params.StartsAt,
		EndsAt:             params.EndsAt,
		ProductIDs:         arg.ProductIDs,
		IsActive:           params.IsActive,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create promotion")
	}
	return &promo, nil
}

func (s *promotionService) UpdatePromotion(ctx context.Context, promotionID string, params PromotionParams) (*domain.Promotion, error) {
	const op = "promotion.update"

	id, err := validate.UUID(op, "promotion ID", promotionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetPromotion(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromotionNotFound
		}
		return nil, domain.Internal(err, op, "failed to load promotion")
	}

	arg, err := s.validateParams(op, params)
	if err != nil {
		return nil, err
	}

	// The promotion being updated must not conflict with itself.
	if err := s.checkOverlap(ctx, op, params.Scheme, arg.ProductIDs, params, id); err != nil {
		return nil, err
	}

	promo, err := s.repo.UpdatePromotion(ctx, repository.UpdatePromotionParams{
		ID:                 id,
		Title:              params.Title,
		Scheme:             params.Scheme,
		DiscountPercentage: arg.DiscountPercentage,
		DiscountAmount:     arg.DiscountAmount,
		BuyQuantity:        arg.BuyQuantity,
		GetQuantity:        arg.GetQuantity,
		StartsAt:           params.StartsAt,
		EndsAt:             params.EndsAt,
		ProductIDs:         arg.ProductIDs,
		IsActive:           params.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromotionNotFound
		}
		return nil, domain.Internal(err, op, "failed to update promotion")
	}
	return &promo, nil
}

func (s *promotionService) GetPromotion(ctx context.Context, promotionID string) (*domain.Promotion, error) {
	const op = "promotion.get"

	id, err := validate.UUID(op, "promotion ID", promotionID)
	if err != nil {
		return nil, err
	}

	promo, err := s.repo.GetPromotion(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromotionNotFound
		}
		return nil, domain.Internal(err, op, "failed to load promotion")
	}
	return &promo, nil
}

func (s *promotionService) ListPromotions(ctx context.Context, filter PromotionFilter) ([]domain.Promotion, error) {
	const op = "promotion.list"

	if filter.Scheme != "" && !filter.Scheme.Valid() {
		return nil, domain.Errorf(domain.EINVALID, op, "invalid scheme: %s", filter.Scheme)
	}

	arg := repository.ListPromotionsParams{
		Scheme:     filter.Scheme,
		ActiveOnly: filter.ActiveOnly,
		Now:        s.now(),
	}
	if filter.ProductID != "" {
		id, err := validate.UUID(op, "product ID", filter.ProductID)
		if err != nil {
			return nil, err
		}
		arg.ProductID = id
	}

	promos, err := s.repo.ListPromotions(ctx, arg)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list promotions")
	}
	return promos, nil
}

func (s *promotionService) DeletePromotion(ctx context.Context, promotionID string) error {
	const op = "promotion.delete"

	id, err := validate.UUID(op, "promotion ID", promotionID)
	if err != nil {
		return err
	}

	n, err := s.repo.DeletePromotion(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete promotion")
	}
	if n == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

func (s *promotionService) PurgeInactive(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredPromotions(ctx, s.now())
	if err != nil {
		return 0, domain.Internal(err, "promotion.purge", "failed to purge inactive promotions")
	}
	return n, nil
}

// validatedParams carries the scheme fields converted to storage types.
type validatedParams struct {
	DiscountPercentage pgtype.Float8
	DiscountAmount     pgtype.Float8
	BuyQuantity        pgtype.Int4
	GetQuantity        pgtype.Int4
	ProductIDs         []pgtype.UUID
}

func (s *promotionService) validateParams(op string, params PromotionParams) (validatedParams, error) {
	var out validatedParams

	if params.Title == "" {
		return out, domain.Invalid(op, "title is required")
	}
	if !params.Scheme.Valid() {
		return out, domain.Errorf(domain.EINVALID, op, "invalid scheme: %s", params.Scheme)
	}
	if err := validate.DateWindow(op, params.StartsAt, params.EndsAt); err != nil {
		return out, err
	}

	ids, err := validate.UUIDs(op, "product IDs", params.ProductIDs)
	if err != nil {
		return out, err
	}
	out.ProductIDs = ids

	switch params.Scheme {
	case domain.SchemePercentage, domain.SchemePercentSecond:
		if params.DiscountPercentage == nil {
			return out, domain.Invalid(op, "discountPercentage is required for this scheme")
		}
		if err := validate.Percentage(op, "discountPercentage", *params.DiscountPercentage); err != nil {
			return out, err
		}
		out.DiscountPercentage = pgtype.Float8{Float64: *params.DiscountPercentage, Valid: true}

	case domain.SchemeFixed:
		if params.DiscountAmount == nil {
			return out, domain.Invalid(op, "discountAmount is required for this scheme")
		}
		if err := validate.NonNegativeAmount(op, "discountAmount", *params.DiscountAmount); err != nil {
			return out, err
		}
		out.DiscountAmount = pgtype.Float8{Float64: *params.DiscountAmount, Valid: true}

	case domain.SchemeNXN:
		if params.BuyQuantity == nil || params.GetQuantity == nil {
			return out, domain.Invalid(op, "buyQuantity and getQuantity are required for this scheme")
		}
		if *params.BuyQuantity <= 0 {
			return out, domain.Invalid(op, "buyQuantity must be greater than 0")
		}
		if *params.GetQuantity < 0 {
			return out, domain.Invalid(op, "getQuantity must not be negative")
		}
		out.BuyQuantity = pgtype.Int4{Int32: *params.BuyQuantity, Valid: true}
		out.GetQuantity = pgtype.Int4{Int32: *params.GetQuantity, Valid: true}
	}

	return out, nil
}

// checkOverlap enforces the same-scheme exclusivity rule: among promotions
// that are active right now, no two of the same scheme may share an eligible
// product. Different schemes may coexist on one product.
func (s *promotionService) checkOverlap(ctx context.Context, op string, scheme domain.PromotionScheme, productIDs []pgtype.UUID, params PromotionParams, excludeID pgtype.UUID) error {
	// A promotion that is off or whose window does not contain now cannot
	// conflict with anything.
	if !params.IsActive {
		return nil
	}
	now := s.now()
	if now.Before(params.StartsAt) || now.After(params.EndsAt) {
		return nil
	}

	count, err := s.repo.CountOverlappingPromotions(ctx, repository.CountOverlappingPromotionsParams{
		Scheme:     scheme,
		ProductIDs: productIDs,
		Now:        now,
		ExcludeID:  excludeID,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to check promotion overlap")
	}
	if count > 0 {
		return ErrPromotionOverlap
	}
	return nil
}

func uuidString(id pgtype.UUID) string {
	v, err := id.Value()
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
