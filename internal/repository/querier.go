package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

// Querier is the query surface consumed by services. *Queries implements it;
// tests substitute hand-rolled fakes.
type Querier interface {
	// Products
	CreateProduct(ctx context.Context, arg CreateProductParams) (domain.Product, error)
	GetProduct(ctx context.Context, id pgtype.UUID) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, arg UpdateProductParams) (domain.Product, error)
	DeleteProduct(ctx context.Context, id pgtype.UUID) (int64, error)
	DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) (int64, error)

	// Carts
	GetCartByUserID(ctx context.Context, userID pgtype.UUID) (domain.Cart, error)
	CreateCart(ctx context.Context, userID pgtype.UUID) (domain.Cart, error)
	UpdateCartTotal(ctx context.Context, arg UpdateCartTotalParams) error
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]domain.CartItem, error)
	GetCartItem(ctx context.Context, arg CartItemKey) (domain.CartItem, error)
	AddCartItem(ctx context.Context, arg AddCartItemParams) (domain.CartItem, error)
	SetCartItem(ctx context.Context, arg SetCartItemParams) (int64, error)
	UpdateCartItemPrice(ctx context.Context, arg UpdateCartItemPriceParams) error
	DeleteCartItem(ctx context.Context, arg CartItemKey) (int64, error)
	DeleteCartItems(ctx context.Context, arg DeleteCartItemsParams) error
	ClearCartItems(ctx context.Context, cartID pgtype.UUID) error

	// Promotions
	CreatePromotion(ctx context.Context, arg CreatePromotionParams) (domain.Promotion, error)
	GetPromotion(ctx context.Context, id pgtype.UUID) (domain.Promotion, error)
	ListPromotions(ctx context.Context, arg ListPromotionsParams) ([]domain.Promotion, error)
	UpdatePromotion(ctx context.Context, arg UpdatePromotionParams) (domain.Promotion, error)
	DeletePromotion(ctx context.Context, id pgtype.UUID) (int64, error)
	ActivePromotionsForProduct(ctx context.Context, arg ActivePromotionsForProductParams) ([]domain.Promotion, error)
	CountOverlappingPromotions(ctx context.Context, arg CountOverlappingPromotionsParams) (int64, error)
	DeleteExpiredPromotions(ctx context.Context, now time.Time) (int64, error)

	// Orders
	CreateOrder(ctx context.Context, arg CreateOrderParams) (domain.Order, error)
	GetOrder(ctx context.Context, arg GetOrderParams) (domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID pgtype.UUID) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (domain.Order, error)
	DeleteOrder(ctx context.Context, id pgtype.UUID) (int64, error)

	// Users
	GetUser(ctx context.Context, id pgtype.UUID) (domain.User, error)
	UpsertUser(ctx context.Context, arg UpsertUserParams) (domain.User, error)
}

var _ Querier = (*Queries)(nil)
