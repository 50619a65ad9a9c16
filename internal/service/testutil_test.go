package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/repository"
)

// Fixture IDs shared across the service tests.
const (
	testUserID    = "a3bb189e-8bf9-3888-9912-ace4e6543002"
	testProductID = "b4cc289e-8bf9-3888-9912-ace4e6543003"
	testProduct2  = "c5dd389e-8bf9-3888-9912-ace4e6543004"
	testPromoID   = "d6ee489e-8bf9-3888-9912-ace4e6543005"
)

func mustUUID(t *testing.T, s string) pgtype.UUID {
	t.Helper()
	parsed, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("bad uuid fixture %q: %v", s, err)
	}
	var id pgtype.UUID
	if err := id.Scan(parsed.String()); err != nil {
		t.Fatalf("scan uuid %q: %v", s, err)
	}
	return id
}

func newUUID(t *testing.T) pgtype.UUID {
	t.Helper()
	return mustUUID(t, uuid.New().String())
}

func nowTz(ts time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: ts, Valid: true}
}

// =============================================================================
// In-memory store
// =============================================================================

// fakeStore is an in-memory repository.Querier plus ExecTx, with snapshot
// rollback so transactional behavior can be asserted without a database.
type fakeStore struct {
	products   map[[16]byte]domain.Product
	carts      map[[16]byte]domain.Cart // keyed by user ID
	cartItems  map[[16]byte][]domain.CartItem
	promotions []domain.Promotion
	orders     []domain.Order
	users      map[[16]byte]domain.User

	// forcedErr, when set for a method name, is returned by that method.
	forcedErr map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[[16]byte]domain.Product),
		carts:     make(map[[16]byte]domain.Cart),
		cartItems: make(map[[16]byte][]domain.CartItem),
		users:     make(map[[16]byte]domain.User),
		forcedErr: make(map[string]error),
	}
}

func (f *fakeStore) fail(method string, err error) { f.forcedErr[method] = err }

func (f *fakeStore) errFor(method string) error { return f.forcedErr[method] }

func (f *fakeStore) addProduct(id pgtype.UUID, name string, price float64, stock int32) domain.Product {
	p := domain.Product{ID: id, Name: name, Price: price, Stock: stock}
	f.products[id.Bytes] = p
	return p
}

func (f *fakeStore) addUser(id pgtype.UUID, withShipping bool) domain.User {
	u := domain.User{ID: id, Email: "buyer@example.com", FirstName: "Ana", LastName: "Marquez"}
	if withShipping {
		text := func(s string) pgtype.Text { return pgtype.Text{String: s, Valid: true} }
		u.Street = text("Av. Siempre Viva 742")
		u.City = text("Buenos Aires")
		u.State = text("CABA")
		u.PostalCode = text("C1000")
		u.Country = text("AR")
		u.Phone = text("+54 11 5555-5555")
	}
	f.users[id.Bytes] = u
	return u
}

func (f *fakeStore) seedCart(t *testing.T, userID pgtype.UUID, items ...domain.CartItem) domain.Cart {
	t.Helper()
	cart := domain.Cart{ID: newUUID(t), UserID: userID}
	for i := range items {
		items[i].CartID = cart.ID
		cart.Total += float64(items[i].Quantity) * items[i].UnitPrice
	}
	f.carts[userID.Bytes] = cart
	f.cartItems[cart.ID.Bytes] = items
	return cart
}

// snapshot/restore give ExecTx rollback semantics.
func (f *fakeStore) snapshot() *fakeStore {
	s := newFakeStore()
	for k, v := range f.products {
		s.products[k] = v
	}
	for k, v := range f.carts {
		s.carts[k] = v
	}
	for k, v := range f.cartItems {
		s.cartItems[k] = append([]domain.CartItem(nil), v...)
	}
	for k, v := range f.users {
		s.users[k] = v
	}
	s.promotions = append([]domain.Promotion(nil), f.promotions...)
	s.orders = append([]domain.Order(nil), f.orders...)
	return s
}

func (f *fakeStore) restore(s *fakeStore) {
	f.products = s.products
	f.carts = s.carts
	f.cartItems = s.cartItems
	f.users = s.users
	f.promotions = s.promotions
	f.orders = s.orders
}

func (f *fakeStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	saved := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(saved)
		return err
	}
	return nil
}

// =============================================================================
// Products
// =============================================================================

func (f *fakeStore) CreateProduct(ctx context.Context, arg repository.CreateProductParams) (domain.Product, error) {
	if err := f.errFor("CreateProduct"); err != nil {
		return domain.Product{}, err
	}
	var id pgtype.UUID
	_ = id.Scan(uuid.New().String())
	p := domain.Product{ID: id, Name: arg.Name, Description: arg.Description, Price: arg.Price, Stock: arg.Stock}
	f.products[id.Bytes] = p
	return p, nil
}

func (f *fakeStore) GetProduct(ctx context.Context, id pgtype.UUID) (domain.Product, error) {
	if err := f.errFor("GetProduct"); err != nil {
		return domain.Product{}, err
	}
	p, ok := f.products[id.Bytes]
	if !ok {
		return domain.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := f.errFor("ListProducts"); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, arg repository.UpdateProductParams) (domain.Product, error) {
	p, ok := f.products[arg.ID.Bytes]
	if !ok {
		return domain.Product{}, pgx.ErrNoRows
	}
	p.Name = arg.Name
	p.Description = arg.Description
	p.Price = arg.Price
	p.Stock = arg.Stock
	f.products[arg.ID.Bytes] = p
	return p, nil
}

func (f *fakeStore) DeleteProduct(ctx context.Context, id pgtype.UUID) (int64, error) {
	if _, ok := f.products[id.Bytes]; !ok {
		return 0, nil
	}
	delete(f.products, id.Bytes)
	return 1, nil
}

func (f *fakeStore) DecrementProductStock(ctx context.Context, arg repository.DecrementProductStockParams) (int64, error) {
	if err := f.errFor("DecrementProductStock"); err != nil {
		return 0, err
	}
	p, ok := f.products[arg.ID.Bytes]
	if !ok || p.Stock < arg.Quantity {
		return 0, nil
	}
	p.Stock -= arg.Quantity
	f.products[arg.ID.Bytes] = p
	return 1, nil
}

// =============================================================================
// Carts
// =============================================================================

func (f *fakeStore) GetCartByUserID(ctx context.Context, userID pgtype.UUID) (domain.Cart, error) {
	if err := f.errFor("GetCartByUserID"); err != nil {
		return domain.Cart{}, err
	}
	cart, ok := f.carts[userID.Bytes]
	if !ok {
		return domain.Cart{}, pgx.ErrNoRows
	}
	return cart, nil
}

func (f *fakeStore) CreateCart(ctx context.Context, userID pgtype.UUID) (domain.Cart, error) {
	if err := f.errFor("CreateCart"); err != nil {
		return domain.Cart{}, err
	}
	if cart, ok := f.carts[userID.Bytes]; ok {
		return cart, nil
	}
	var id pgtype.UUID
	_ = id.Scan(uuid.New().String())
	cart := domain.Cart{ID: id, UserID: userID}
	f.carts[userID.Bytes] = cart
	return cart, nil
}

func (f *fakeStore) UpdateCartTotal(ctx context.Context, arg repository.UpdateCartTotalParams) error {
	if err := f.errFor("UpdateCartTotal"); err != nil {
		return err
	}
	for k, cart := range f.carts {
		if cart.ID.Bytes == arg.CartID.Bytes {
			cart.Total = arg.Total
			f.carts[k] = cart
		}
	}
	return nil
}

func (f *fakeStore) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]domain.CartItem, error) {
	if err := f.errFor("ListCartItems"); err != nil {
		return nil, err
	}
	return append([]domain.CartItem(nil), f.cartItems[cartID.Bytes]...), nil
}

func (f *fakeStore) GetCartItem(ctx context.Context, arg repository.CartItemKey) (domain.CartItem, error) {
	for _, item := range f.cartItems[arg.CartID.Bytes] {
		if item.ProductID.Bytes == arg.ProductID.Bytes {
			return item, nil
		}
	}
	return domain.CartItem{}, pgx.ErrNoRows
}

func (f *fakeStore) AddCartItem(ctx context.Context, arg repository.AddCartItemParams) (domain.CartItem, error) {
	if err := f.errFor("AddCartItem"); err != nil {
		return domain.CartItem{}, err
	}
	items := f.cartItems[arg.CartID.Bytes]
	for i, item := range items {
		if item.ProductID.Bytes == arg.ProductID.Bytes {
			items[i].Quantity += arg.Quantity
			items[i].UnitPrice = arg.UnitPrice
			f.cartItems[arg.CartID.Bytes] = items
			return items[i], nil
		}
	}
	var id pgtype.UUID
	_ = id.Scan(uuid.New().String())
	item := domain.CartItem{ID: id, CartID: arg.CartID, ProductID: arg.ProductID, Quantity: arg.Quantity, UnitPrice: arg.UnitPrice}
	f.cartItems[arg.CartID.Bytes] = append(items, item)
	return item, nil
}

func (f *fakeStore) SetCartItem(ctx context.Context, arg repository.SetCartItemParams) (int64, error) {
	items := f.cartItems[arg.CartID.Bytes]
	for i, item := range items {
		if item.ProductID.Bytes == arg.ProductID.Bytes {
			items[i].Quantity = arg.Quantity
			items[i].UnitPrice = arg.UnitPrice
			f.cartItems[arg.CartID.Bytes] = items
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) UpdateCartItemPrice(ctx context.Context, arg repository.UpdateCartItemPriceParams) error {
	if err := f.errFor("UpdateCartItemPrice"); err != nil {
		return err
	}
	items := f.cartItems[arg.CartID.Bytes]
	for i, item := range items {
		if item.ProductID.Bytes == arg.ProductID.Bytes {
			items[i].UnitPrice = arg.UnitPrice
		}
	}
	f.cartItems[arg.CartID.Bytes] = items
	return nil
}

func (f *fakeStore) DeleteCartItem(ctx context.Context, arg repository.CartItemKey) (int64, error) {
	items := f.cartItems[arg.CartID.Bytes]
	for i, item := range items {
		if item.ProductID.Bytes == arg.ProductID.Bytes {
			f.cartItems[arg.CartID.Bytes] = append(items[:i], items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) DeleteCartItems(ctx context.Context, arg repository.DeleteCartItemsParams) error {
	if err := f.errFor("DeleteCartItems"); err != nil {
		return err
	}
	drop := make(map[[16]byte]bool, len(arg.ProductIDs))
	for _, id := range arg.ProductIDs {
		drop[id.Bytes] = true
	}
	var kept []domain.CartItem
	for _, item := range f.cartItems[arg.CartID.Bytes] {
		if !drop[item.ProductID.Bytes] {
			kept = append(kept, item)
		}
	}
	f.cartItems[arg.CartID.Bytes] = kept
	return nil
}

func (f *fakeStore) ClearCartItems(ctx context.Context, cartID pgtype.UUID) error {
	f.cartItems[cartID.Bytes] = nil
	return nil
}

// =============================================================================
// Promotions
// =============================================================================

func (f *fakeStore) CreatePromotion(ctx context.Context, arg repository.CreatePromotionParams) (domain.Promotion, error) {
	if err := f.errFor("CreatePromotion"); err != nil {
		return domain.Promotion{}, err
	}
	var id pgtype.UUID
	_ = id.Scan(uuid.New().String())
	p := domain.Promotion{
		ID:                 id,
		Title:              arg.Title,
		Scheme:             arg.Scheme,
		DiscountPercentage: arg.DiscountPercentage,
		DiscountAmount:     arg.DiscountAmount,
		BuyQuantity:        arg.BuyQuantity,
		GetQuantity:        arg.GetQuantity,
		StartsAt:           nowTz(arg.StartsAt),
		EndsAt:             nowTz(arg.EndsAt),
		ProductIDs:         arg.ProductIDs,
		IsActive:           arg.IsActive,
		CreatedAt:          nowTz(time.Now()),
	}
	f.promotions = append(f.promotions, p)
	return p, nil
}

func (f *fakeStore) GetPromotion(ctx context.Context, id pgtype.UUID) (domain.Promotion, error) {
	for _, p := range f.promotions {
		if p.ID.Bytes == id.Bytes {
			return p, nil
		}
	}
	return domain.Promotion{}, pgx.ErrNoRows
}

func (f *fakeStore) ListPromotions(ctx context.Context, arg repository.ListPromotionsParams) ([]domain.Promotion, error) {
	var out []domain.Promotion
	for _, p := range f.promotions {
		if arg.Scheme != "" && p.Scheme != arg.Scheme {
			continue
		}
		if arg.ProductID.Valid && !p.Targets(arg.ProductID) {
			continue
		}
		if arg.ActiveOnly && !p.ActiveAt(arg.Now) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdatePromotion(ctx context.Context, arg repository.UpdatePromotionParams) (domain.Promotion, error) {
	for i, p := range f.promotions {
		if p.ID.Bytes == arg.ID.Bytes {
			p.Title = arg.Title
			p.Scheme = arg.Scheme
			p.DiscountPercentage = arg.DiscountPercentage
			p.DiscountAmount = arg.DiscountAmount
			p.BuyQuantity = arg.BuyQuantity
			p.GetQuantity = arg.GetQuantity
			p.StartsAt = nowTz(arg.StartsAt)
			p.EndsAt = nowTz(arg.EndsAt)
			p.ProductIDs = arg.ProductIDs
			p.IsActive = arg.IsActive
			f.promotions[i] = p
			return p, nil
		}
	}
	return domain.Promotion{}, pgx.ErrNoRows
}

func (f *fakeStore) DeletePromotion(ctx context.Context, id pgtype.UUID) (int64, error) {
	for i, p := range f.promotions {
		if p.ID.Bytes == id.Bytes {
			f.promotions = append(f.promotions[:i], f.promotions[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) ActivePromotionsForProduct(ctx context.Context, arg repository.ActivePromotionsForProductParams) ([]domain.Promotion, error) {
	if err := f.errFor("ActivePromotionsForProduct"); err != nil {
		return nil, err
	}
	var out []domain.Promotion
	for _, p := range f.promotions {
		if p.Targets(arg.ProductID) && p.ActiveAt(arg.Now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) CountOverlappingPromotions(ctx context.Context, arg repository.CountOverlappingPromotionsParams) (int64, error) {
	if err := f.errFor("CountOverlappingPromotions"); err != nil {
		return 0, err
	}
	targets := make(map[[16]byte]bool, len(arg.ProductIDs))
	for _, id := range arg.ProductIDs {
		targets[id.Bytes] = true
	}
	var count int64
	for _, p := range f.promotions {
		if arg.ExcludeID.Valid && p.ID.Bytes == arg.ExcludeID.Bytes {
			continue
		}
		if p.Scheme != arg.Scheme || !p.ActiveAt(arg.Now) {
			continue
		}
		for _, id := range p.ProductIDs {
			if targets[id.Bytes] {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f *fakeStore) DeleteExpiredPromotions(ctx context.Context, now time.Time) (int64, error) {
	var kept []domain.Promotion
	var removed int64
	for _, p := range f.promotions {
		if !p.IsActive || p.EndsAt.Time.Before(now) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	f.promotions = kept
	return removed, nil
}

// =============================================================================
// Orders
// =============================================================================

func (f *fakeStore) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (domain.Order, error) {
	if err := f.errFor("CreateOrder"); err != nil {
		return domain.Order{}, err
	}
	var id pgtype.UUID
	_ = id.Scan(uuid.New().String())
	order := domain.Order{
		ID:              id,
		UserID:          arg.UserID,
		Items:           arg.Items,
		Total:           arg.Total,
		Status:          arg.Status,
		ShippingAddress: arg.ShippingAddress,
		CreatedAt:       nowTz(time.Now()),
	}
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeStore) GetOrder(ctx context.Context, arg repository.GetOrderParams) (domain.Order, error) {
	for _, o := range f.orders {
		if o.ID.Bytes != arg.ID.Bytes {
			continue
		}
		if arg.UserID.Valid && o.UserID.Bytes != arg.UserID.Bytes {
			continue
		}
		return o, nil
	}
	return domain.Order{}, pgx.ErrNoRows
}

func (f *fakeStore) ListOrdersByUser(ctx context.Context, userID pgtype.UUID) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID.Bytes == userID.Bytes {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, arg repository.UpdateOrderStatusParams) (domain.Order, error) {
	for i, o := range f.orders {
		if o.ID.Bytes == arg.ID.Bytes {
			o.Status = arg.Status
			f.orders[i] = o
			return o, nil
		}
	}
	return domain.Order{}, pgx.ErrNoRows
}

func (f *fakeStore) DeleteOrder(ctx context.Context, id pgtype.UUID) (int64, error) {
	for i, o := range f.orders {
		if o.ID.Bytes == id.Bytes {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// =============================================================================
// Users
// =============================================================================

func (f *fakeStore) GetUser(ctx context.Context, id pgtype.UUID) (domain.User, error) {
	if err := f.errFor("GetUser"); err != nil {
		return domain.User{}, err
	}
	u, ok := f.users[id.Bytes]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeStore) UpsertUser(ctx context.Context, arg repository.UpsertUserParams) (domain.User, error) {
	u := domain.User{
		ID:         arg.ID,
		Email:      arg.Email,
		FirstName:  arg.FirstName,
		LastName:   arg.LastName,
		Street:     arg.Street,
		City:       arg.City,
		State:      arg.State,
		PostalCode: arg.PostalCode,
		Country:    arg.Country,
		Phone:      arg.Phone,
	}
	f.users[arg.ID.Bytes] = u
	return u, nil
}

var _ repository.Querier = (*fakeStore)(nil)
var _ CheckoutStore = (*fakeStore)(nil)
