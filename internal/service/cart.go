package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/repository"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/validate"
)

// CartService provides business logic for shopping cart operations.
// Every read reprices the cart against the live catalog; stored unit prices
// are caches, never authoritative.
type CartService interface {
	// GetCart loads the user's cart priced at current catalog prices.
	// Items whose product no longer exists are dropped from the computation
	// (not from storage). Stock shortfalls are reported, not errors.
	GetCart(ctx context.Context, userID string) (*domain.PricedCart, error)

	// AddItem appends a line or sums quantities for an existing one, at the
	// current catalog price. Creates the cart on first add.
	AddItem(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error)

	// UpdateItem overwrites a line's quantity and refreshes its cached price.
	UpdateItem(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error)

	// RemoveItem deletes a line.
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)

	// ClearCart empties the cart, or removes only the named products when
	// productIDs is non-empty (used post-payment to keep unpaid items).
	ClearCart(ctx context.Context, userID string, productIDs []string) error

	// VirtualCart builds the priced projection over a subset of the cart's
	// items used for checkout. Discounting is advisory: if the engine fails,
	// the undiscounted projection is returned.
	VirtualCart(ctx context.Context, userID string, productIDs []string) (*domain.VirtualCart, error)
}

// CartPricer is the slice of the discount engine the cart needs.
type CartPricer interface {
	PriceCartItems(ctx context.Context, items []PricingInput) (*PricingResult, error)
}

type cartService struct {
	repo   repository.Querier
	pricer CartPricer
	logger *slog.Logger
}

// NewCartService creates a new CartService instance
func NewCartService(repo repository.Querier, pricer CartPricer, logger *slog.Logger) (CartService, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &cartService{repo: repo, pricer: pricer, logger: logger}, nil
}

func (s *cartService) GetCart(ctx context.Context, userID string) (*domain.PricedCart, error) {
	const op = "cart.get"

	userUUID, err := validate.UUID(op, "user ID", userID)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.GetCartByUserID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	items, err := s.repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load cart items")
	}

	priced := &domain.PricedCart{Cart: cart, Items: []domain.PricedLineItem{}}
	for _, item := range items {
		product, err := s.repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Product deleted from the catalog since the item was added.
				continue
			}
			return nil, domain.Internal(err, op, "failed to load product")
		}

		if err := s.refreshCachedPrice(ctx, item, product.Price); err != nil {
			return nil, domain.Internal(err, op, "failed to refresh item price")
		}

		if !product.InStock(item.Quantity) {
			priced.StockIssues = append(priced.StockIssues, domain.StockIssue{
				ProductID: item.ProductID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: item.Quantity,
			})
		}

		subtotal := float64(item.Quantity) * product.Price
		priced.Items = append(priced.Items, domain.PricedLineItem{
			ProductID:          item.ProductID,
			Name:               product.Name,
			Quantity:           item.Quantity,
			UnitPrice:          product.Price,
			Subtotal:           subtotal,
			DiscountedSubtotal: subtotal,
		})
		priced.TotalItems += item.Quantity
		priced.TotalPrice += subtotal
	}

	if cart.Total != priced.TotalPrice {
		if err := s.repo.UpdateCartTotal(ctx, repository.UpdateCartTotalParams{CartID: cart.ID, Total: priced.TotalPrice}); err != nil {
			return nil, domain.Internal(err, op, "failed to persist cart total")
		}
		priced.Cart.Total = priced.TotalPrice
	}

	return priced, nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error) {
	const op = "cart.addItem"

	userUUID, err := validate.UUID(op, "user ID", userID)
	if err != nil {
		return nil, err
	}
	productUUID, err := validate.UUID(op, "product ID", productID)
	if err != nil {
		return nil, err
	}
	if err := validate.PositiveQuantity(op, quantity); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, productUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}

	// Point-in-time check only; stock can still change before checkout.
	if !product.InStock(quantity) {
		return nil, insufficientStock(op, product.Name, product.Stock, quantity)
	}

	cart, err := s.repo.GetCartByUserID(ctx, userUUID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Internal(err, op, "failed to load cart")
		}
		cart, err = s.repo.CreateCart(ctx, userUUID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to create cart")
		}
	}

	if _, err := s.repo.AddCartItem(ctx, repository.AddCartItemParams{
		CartID:    cart.ID,
		ProductID: productUUID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to add cart item")
	}

	return s.recomputeTotal(ctx, op, cart)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, productID string, quantity int32) (*domain.Cart, error) {
	const op = "cart.updateItem"

	userUUID, err := validate.UUID(op, "user ID", userID)
	if err != nil {
		return nil, err
	}
	productUUID, err := validate.UUID(op, "product ID", productID)
	if err != nil {
		return nil, err
	}
	if err := validate.PositiveQuantity(op, quantity); err != nil {
		return nil, err
	}

	cart, err := s.repo.GetCartByUserID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	if _, err := s.repo.GetCartItem(ctx, repository.CartItemKey{CartID: cart.ID, ProductID: productUUID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, domain.Internal(err, op, "failed to load cart item")
	}

	product, err := s.repo.GetProduct(ctx, productUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}

	if !product.InStock(quantity) {
		return nil, insufficientStock(op, product.Name, product.Stock, quantity)
	}

	n, err := s.repo.SetCartItem(ctx, repository.SetCartItemParams{
		CartID:    cart.ID,
		ProductID: productUUID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to update cart item")
	}
	if n == 0 {
		return nil, ErrCartItemNotFound
	}

	return s.recomputeTotal(ctx, op, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	const op = "cart.removeItem"

	userUUID, err := validate.UUID(op, "user ID", userID)
	if err != nil {
		return nil, err
	}
	productUUID, err := validate.UUID(op, "product ID", productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.GetCartByUserID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	n, err := s.repo.DeleteCartItem(ctx, repository.CartItemKey{CartID: cart.ID, ProductID: productUUID})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to remove cart item")
	}
	if n == 0 {
		return nil, ErrCartItemNotFound
	}

	return s.recomputeTotal(ctx, op, cart)
}

func (s *cartService) ClearCart(ctx context.Context, userID string, productIDs []string) error {
	const op = "cart.clear"

	userUUID, err := validate.UUID(op, "user ID", userID)
	if err != nil {
		return err
	}

	cart, err := s.repo.GetCartByUserID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartNotFound
		}
		return domain.Internal(err, op, "failed to load cart")
	}

	if len(productIDs) == 0 {
		if err := s.repo.ClearCartItems(ctx, cart.ID); err != nil {
			return domain.Internal(err, op, "failed to clear cart")
		}
	} else {
		ids, err := validate.UUIDs(op, "product IDs", productIDs)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteCartItems(ctx, repository.DeleteCartItemsParams{CartID: cart.ID, ProductIDs: ids}); err != nil {
			return domain.Internal(err, op, "failed to remove cart items")
		}
	}

	_, err = s.recomputeTotal(ctx, op, cart)
	return err
}

func (s *cartService) VirtualCart(ctx context.Context, userID string, productIDs []string) (*domain.VirtualCart, error) {
	const op = "cart.virtual"

	userUUID, err := validate.UUID(op, "user ID", userID)
	if err != nil {
		return nil, err
	}
	selected, err := validate.UUIDs(op, "product IDs", productIDs)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.GetCartByUserID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	items, err := s.repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load cart items")
	}

	wanted := make(map[[16]byte]bool, len(selected))
	for _, id := range selected {
		wanted[id.Bytes] = true
	}

	var inputs []PricingInput
	vc := &domain.VirtualCart{UserID: userUUID, Items: []domain.PricedLineItem{}}
	for _, item := range items {
		if !wanted[item.ProductID.Bytes] {
			continue
		}

		product, err := s.repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Unlike a plain cart read, a checkout projection over a
				// vanished product cannot silently shrink what the caller
				// asked to pay for.
				return nil, domain.NotFound(op, "product", uuidString(item.ProductID))
			}
			return nil, domain.Internal(err, op, "failed to load product")
		}

		if err := s.refreshCachedPrice(ctx, item, product.Price); err != nil {
			return nil, domain.Internal(err, op, "failed to refresh item price")
		}

		inputs = append(inputs, PricingInput{
			ProductID: item.ProductID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
		vc.TotalItems += item.Quantity
		vc.TotalPrice += float64(item.Quantity) * product.Price
	}

	if len(inputs) == 0 {
		return nil, ErrEmptySelection
	}

	result, err := s.pricer.PriceCartItems(ctx, inputs)
	if err != nil {
		// Discounting is advisory; fall back to the undiscounted projection.
		s.logger.Warn("discount computation failed, returning undiscounted projection",
			slog.String("op", op),
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		for _, in := range inputs {
			subtotal := float64(in.Quantity) * in.UnitPrice
			vc.Items = append(vc.Items, domain.PricedLineItem{
				ProductID:          in.ProductID,
				Name:               in.Name,
				Quantity:           in.Quantity,
				UnitPrice:          in.UnitPrice,
				Subtotal:           subtotal,
				DiscountedSubtotal: subtotal,
			})
		}
		vc.DiscountedTotalPrice = vc.TotalPrice
		return vc, nil
	}

	vc.Items = result.Items
	vc.TotalDiscount = result.TotalDiscount
	vc.DiscountedTotalPrice = vc.TotalPrice - result.TotalDiscount
	return vc, nil
}

// refreshCachedPrice persists a catalog price onto the stored line when the
// cache has drifted.
func (s *cartService) refreshCachedPrice(ctx context.Context, item domain.CartItem, currentPrice float64) error {
	if item.UnitPrice == currentPrice {
		return nil
	}
	return s.repo.UpdateCartItemPrice(ctx, repository.UpdateCartItemPriceParams{
		CartID:    item.CartID,
		ProductID: item.ProductID,
		UnitPrice: currentPrice,
	})
}

// recomputeTotal re-derives the stored undiscounted total from the remaining
// lines and returns the cart with the fresh total.
func (s *cartService) recomputeTotal(ctx context.Context, op string, cart domain.Cart) (*domain.Cart, error) {
	items, err := s.repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load cart items")
	}

	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * item.UnitPrice
	}

	if err := s.repo.UpdateCartTotal(ctx, repository.UpdateCartTotalParams{CartID: cart.ID, Total: total}); err != nil {
		return nil, domain.Internal(err, op, "failed to persist cart total")
	}
	cart.Total = total
	return &cart, nil
}

func insufficientStock(op, name string, available, requested int32) error {
	return domain.Errorf(domain.ECONFLICT, op,
		"insufficient stock for %s: %d available, %d requested", name, available, requested)
}
