package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/repository"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/validate"
)

// ProductService provides catalog access: thin CRUD plus the conditional
// stock decrement used at checkout confirmation.
type ProductService interface {
	CreateProduct(ctx context.Context, params ProductParams) (*domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, params ProductParams) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error

	// DecrementStock atomically reduces stock, failing with a conflict when
	// the product cannot cover the quantity.
	DecrementStock(ctx context.Context, productID string, quantity int32) error
}

// ProductParams carries the writable catalog fields.
type ProductParams struct {
	Name        string
	Description *string
	Price       float64
	Stock       int32
}

type productService struct {
	repo repository.Querier
}

// NewProductService creates a new ProductService instance
func NewProductService(repo repository.Querier) (ProductService, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &productService{repo: repo}, nil
}

func (s *productService) CreateProduct(ctx context.Context, params ProductParams) (*domain.Product, error) {
	const op = "product.create"

	if err := validateProductParams(op, params); err != nil {
		return nil, err
	}

	product, err := s.repo.CreateProduct(ctx, repository.CreateProductParams{
		Name:        params.Name,
		Description: pgTextFromPtr(params.Description),
		Price:       params.Price,
		Stock:       params.Stock,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create product")
	}
	return &product, nil
}

func (s *productService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	const op = "product.get"

	id, err := validate.UUID(op, "product ID", productID)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}
	return &product, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, domain.Internal(err, "product.list", "failed to list products")
	}
	return products, nil
}

func (s *productService) UpdateProduct(ctx context.Context, productID string, params ProductParams) (*domain.Product, error) {
	const op = "product.update"

	id, err := validate.UUID(op, "product ID", productID)
	if err != nil {
		return nil, err
	}
	if err := validateProductParams(op, params); err != nil {
		return nil, err
	}

	product, err := s.repo.UpdateProduct(ctx, repository.UpdateProductParams{
		ID:          id,
		Name:        params.Name,
		Description: pgTextFromPtr(params.Description),
		Price:       params.Price,
		Stock:       params.Stock,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to update product")
	}
	return &product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, productID string) error {
	const op = "product.delete"

	id, err := validate.UUID(op, "product ID", productID)
	if err != nil {
		return err
	}

	n, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete product")
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *productService) DecrementStock(ctx context.Context, productID string, quantity int32) error {
	const op = "product.decrementStock"

	id, err := validate.UUID(op, "product ID", productID)
	if err != nil {
		return err
	}
	if err := validate.PositiveQuantity(op, quantity); err != nil {
		return err
	}

	n, err := s.repo.DecrementProductStock(ctx, repository.DecrementProductStockParams{ID: id, Quantity: quantity})
	if err != nil {
		return domain.Internal(err, op, "failed to decrement stock")
	}
	if n == 0 {
		return domain.Conflict(op, "insufficient stock or product not found")
	}
	return nil
}

func validateProductParams(op string, params ProductParams) error {
	if params.Name == "" {
		return domain.Invalid(op, "name is required")
	}
	if err := validate.NonNegativeAmount(op, "price", params.Price); err != nil {
		return err
	}
	if params.Stock < 0 {
		return domain.Invalid(op, "stock must not be negative")
	}
	return nil
}

func pgTextFromPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
