package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/checkout"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/events"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/payment"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/repository"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/telemetry"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/validate"
)

// CheckoutService orchestrates the payment flow: it validates stock over a
// priced cart projection, obtains a gateway redirect, and on the
// asynchronous confirmation callback finalizes the order, decrements stock
// and clears the paid items from the cart.
type CheckoutService interface {
	// StartCheckout builds the priced projection (all items or a caller
	// selected subset), re-checks stock, and creates a payment preference.
	StartCheckout(ctx context.Context, params StartCheckoutParams) (*CheckoutSession, error)

	// ConfirmPayment handles the gateway's success callback. There is no
	// synchronous caller at this point, only the buyer's browser following
	// the gateway redirect, so it never returns an error: every outcome is
	// a redirect destination.
	ConfirmPayment(ctx context.Context, params ConfirmPaymentParams) *RedirectResult

	// PaymentFailure handles the gateway's failure callback: redirect only,
	// no side effects.
	PaymentFailure(ctx context.Context) *RedirectResult

	// PaymentPending handles the gateway's pending callback: redirect only,
	// no side effects.
	PaymentPending(ctx context.Context, paymentID string) *RedirectResult
}

// CheckoutStore is the persistence surface the orchestrator needs: plain
// queries plus the transaction the confirmation flow runs in.
type CheckoutStore interface {
	repository.Querier
	ExecTx(ctx context.Context, fn func(repository.Querier) error) error
}

// StartCheckoutParams identifies the user and, optionally, the subset of
// cart items to pay for. An empty ProductIDs means the whole cart.
type StartCheckoutParams struct {
	UserID     string
	ProductIDs []string
}

// CheckoutSession is returned to the caller starting a checkout: the priced
// cart alongside the gateway redirect.
type CheckoutSession struct {
	Cart         *domain.VirtualCart `json:"cart"`
	RedirectURL  string              `json:"redirectUrl"`
	PreferenceID string              `json:"preferenceId"`
	Reference    string              `json:"reference"`
}

// ConfirmPaymentParams carries the gateway callback data.
type ConfirmPaymentParams struct {
	PaymentID string
	Reference string
}

// RedirectResult is where the buyer's browser is sent after a callback.
type RedirectResult struct {
	URL string
}

// CheckoutURLs holds the redirect destinations of the flow.
type CheckoutURLs struct {
	// CallbackBase is this server's origin; the gateway sends the buyer
	// back to CallbackBase + "/checkout/success" etc.
	CallbackBase string

	// Orders is the frontend destination after a confirmed payment.
	Orders string

	// Failure is the frontend destination after a failed payment; an error
	// code is appended as a query parameter.
	Failure string
}

type checkoutService struct {
	store     CheckoutStore
	carts     CartService
	provider  payment.Provider
	codec     *checkout.Codec
	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	logger    *slog.Logger
	urls      CheckoutURLs
}

// NewCheckoutService creates a new CheckoutService instance
func NewCheckoutService(
	store CheckoutStore,
	carts CartService,
	provider payment.Provider,
	codec *checkout.Codec,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
	urls CheckoutURLs,
) (CheckoutService, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("payment provider is required")
	}
	if codec == nil {
		return nil, fmt.Errorf("reference codec is required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &checkoutService{
		store:     store,
		carts:     carts,
		provider:  provider,
		codec:     codec,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		urls:      urls,
	}, nil
}

func (s *checkoutService) StartCheckout(ctx context.Context, params StartCheckoutParams) (*CheckoutSession, error) {
	const op = "checkout.start"

	userUUID, err := validate.UUID(op, "user ID", params.UserID)
	if err != nil {
		return nil, err
	}

	productIDs := params.ProductIDs
	if len(productIDs) == 0 {
		productIDs, err = s.allCartProductIDs(ctx, op, userUUID)
		if err != nil {
			return nil, err
		}
	}

	cart, err := s.carts.VirtualCart(ctx, params.UserID, productIDs)
	if err != nil {
		return nil, err
	}

	// Live stock re-check; the first shortfall aborts the whole attempt.
	for _, item := range cart.Items {
		product, err := s.store.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.NotFound(op, "product", uuidString(item.ProductID))
			}
			return nil, domain.Internal(err, op, "failed to load product")
		}
		if !product.InStock(item.Quantity) {
			return nil, insufficientStock(op, product.Name, product.Stock, item.Quantity)
		}
	}

	includedIDs := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		includedIDs = append(includedIDs, uuidString(item.ProductID))
	}

	reference, err := s.codec.Encode(checkout.Reference{
		UserID:     params.UserID,
		ProductIDs: includedIDs,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode checkout reference")
	}

	pref, err := s.provider.CreatePreference(ctx, payment.CreatePreferenceParams{
		Items:      preferenceItems(cart.Items),
		Total:      cart.PayableTotal(),
		Reference:  reference,
		SuccessURL: s.callbackURL("/checkout/success", reference),
		FailureURL: s.callbackURL("/checkout/failure", reference),
		PendingURL: s.callbackURL("/checkout/pending", reference),
	})
	if err != nil {
		return nil, domain.PaymentError(err, op, "failed to create payment preference")
	}

	if s.metrics != nil {
		s.metrics.CheckoutStarted.Inc()
	}

	return &CheckoutSession{
		Cart:         cart,
		RedirectURL:  pref.RedirectURL,
		PreferenceID: pref.ID,
		Reference:    reference,
	}, nil
}

// ConfirmPayment runs the PreferenceCreated -> Confirmed transition. All
// failures are soft: the browser is redirected to the failure page with an
// error code, detail goes to the log.
func (s *checkoutService) ConfirmPayment(ctx context.Context, params ConfirmPaymentParams) *RedirectResult {
	const op = "checkout.confirm"

	if params.PaymentID == "" {
		return s.reject(op, "missing_payment_id", nil)
	}

	info, err := s.provider.GetPaymentStatus(ctx, params.PaymentID)
	if err != nil {
		return s.reject(op, "payment_lookup_failed", err)
	}
	switch info.Status {
	case payment.StatusApproved:
		// proceed
	case payment.StatusPending:
		return s.reject(op, "payment_pending", nil)
	default:
		return s.reject(op, "payment_rejected", nil)
	}

	ref, err := s.codec.Decode(params.Reference)
	if err != nil {
		return s.reject(op, "invalid_reference", err)
	}

	userUUID, err := validate.UUID(op, "user ID", ref.UserID)
	if err != nil {
		return s.reject(op, "invalid_reference", err)
	}

	user, err := s.store.GetUser(ctx, userUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.reject(op, "user_not_found", nil)
		}
		return s.reject(op, "user_lookup_failed", err)
	}
	if missing := user.MissingShippingFields(); len(missing) > 0 {
		return s.reject(op, "incomplete_shipping_info", fmt.Errorf("missing fields: %v", missing))
	}

	// Reprice exactly the paid items at current catalog prices.
	cart, err := s.carts.VirtualCart(ctx, ref.UserID, ref.ProductIDs)
	if err != nil {
		switch domain.ErrorCode(err) {
		case domain.ENOTFOUND:
			return s.reject(op, "cart_not_found", err)
		case domain.EINVALID:
			return s.reject(op, "paid_items_not_in_cart", err)
		default:
			return s.reject(op, "cart_validation_failed", err)
		}
	}

	order, err := s.finalizeOrder(ctx, userUUID, user, cart)
	if err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			return s.reject(op, "insufficient_stock", err)
		}
		return s.reject(op, "order_creation_failed", err)
	}

	if s.metrics != nil {
		s.metrics.CheckoutConfirmed.Inc()
		s.metrics.OrdersCreated.Inc()
		s.metrics.OrderValue.Observe(order.Total)
		s.metrics.OrderItemCount.Observe(float64(len(order.Items)))
	}
	s.publish(ctx, events.SubjectOrderCreated, events.OrderCreated{
		OrderID:    uuidString(order.ID),
		UserID:     ref.UserID,
		Total:      order.Total,
		ItemCount:  len(order.Items),
		OccurredAt: time.Now().UTC(),
	})
	s.publish(ctx, events.SubjectPaymentApproved, events.PaymentResult{
		PaymentID:  params.PaymentID,
		UserID:     ref.UserID,
		Status:     string(payment.StatusApproved),
		OccurredAt: time.Now().UTC(),
	})

	s.logger.Info("checkout confirmed",
		slog.String("order_id", uuidString(order.ID)),
		slog.String("user_id", ref.UserID),
		slog.Float64("total", order.Total))

	return &RedirectResult{URL: s.urls.Orders}
}

func (s *checkoutService) PaymentFailure(ctx context.Context) *RedirectResult {
	return s.reject("checkout.failure", "payment_failed", nil)
}

func (s *checkoutService) PaymentPending(ctx context.Context, paymentID string) *RedirectResult {
	s.publish(ctx, events.SubjectPaymentRejected, events.PaymentResult{
		PaymentID:  paymentID,
		Status:     string(payment.StatusPending),
		OccurredAt: time.Now().UTC(),
	})
	return s.reject("checkout.pending", "payment_pending", nil)
}

// finalizeOrder runs the confirmation writes as one unit: conditional stock
// decrements, the order snapshot, and removal of the paid cart lines. Any
// failure rolls everything back; stock is never partially decremented.
func (s *checkoutService) finalizeOrder(ctx context.Context, userUUID pgtype.UUID, user domain.User, cart *domain.VirtualCart) (*domain.Order, error) {
	const op = "checkout.finalize"

	var order domain.Order
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		paidIDs := make([]pgtype.UUID, 0, len(cart.Items))
		for _, item := range cart.Items {
			n, err := q.DecrementProductStock(ctx, repository.DecrementProductStockParams{
				ID:       item.ProductID,
				Quantity: item.Quantity,
			})
			if err != nil {
				return domain.Internal(err, op, "failed to decrement stock")
			}
			if n == 0 {
				return insufficientStock(op, item.Name, 0, item.Quantity)
			}
			paidIDs = append(paidIDs, item.ProductID)
		}

		created, err := q.CreateOrder(ctx, repository.CreateOrderParams{
			UserID:          userUUID,
			Items:           buildOrderItems(cart.Items),
			Total:           cart.PayableTotal(),
			Status:          domain.OrderStatusPending,
			ShippingAddress: user.ShippingAddress(),
		})
		if err != nil {
			return domain.Internal(err, op, "failed to create order")
		}
		order = created

		storedCart, err := q.GetCartByUserID(ctx, userUUID)
		if err != nil {
			return domain.Internal(err, op, "failed to load cart")
		}
		if err := q.DeleteCartItems(ctx, repository.DeleteCartItemsParams{
			CartID:     storedCart.ID,
			ProductIDs: paidIDs,
		}); err != nil {
			return domain.Internal(err, op, "failed to clear paid items")
		}

		remaining, err := q.ListCartItems(ctx, storedCart.ID)
		if err != nil {
			return domain.Internal(err, op, "failed to load remaining items")
		}
		var total float64
		for _, item := range remaining {
			total += float64(item.Quantity) * item.UnitPrice
		}
		return q.UpdateCartTotal(ctx, repository.UpdateCartTotalParams{CartID: storedCart.ID, Total: total})
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *checkoutService) allCartProductIDs(ctx context.Context, op string, userUUID pgtype.UUID) ([]string, error) {
	cart, err := s.store.GetCartByUserID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	items, err := s.store.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load cart items")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, uuidString(item.ProductID))
	}
	return ids, nil
}

// reject logs the failure and builds the failure-page redirect carrying the
// error code.
func (s *checkoutService) reject(op, code string, err error) *RedirectResult {
	if err != nil {
		s.logger.Warn("checkout callback failed",
			slog.String("op", op),
			slog.String("code", code),
			slog.String("error", err.Error()))
	} else {
		s.logger.Info("checkout callback rejected",
			slog.String("op", op),
			slog.String("code", code))
	}
	if s.metrics != nil {
		s.metrics.CheckoutRejected.WithLabelValues(code).Inc()
	}

	u, parseErr := url.Parse(s.urls.Failure)
	if parseErr != nil {
		return &RedirectResult{URL: s.urls.Failure}
	}
	query := u.Query()
	query.Set("error", code)
	u.RawQuery = query.Encode()
	return &RedirectResult{URL: u.String()}
}

// publish delivers an event best-effort; checkout never fails on the bus.
func (s *checkoutService) publish(ctx context.Context, subject string, event any) {
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn("failed to publish event",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}

func preferenceItems(items []domain.PricedLineItem) []payment.PreferenceItem {
	out := make([]payment.PreferenceItem, 0, len(items))
	for _, item := range items {
		price := item.UnitPrice
		if item.Discount > 0 && item.Quantity > 0 {
			price = item.DiscountedSubtotal / float64(item.Quantity)
		}
		out = append(out, payment.PreferenceItem{
			ProductID: uuidString(item.ProductID),
			Title:     item.Name,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}
	return out
}

func (s *checkoutService) callbackURL(path, reference string) string {
	u, err := url.Parse(s.urls.CallbackBase)
	if err != nil {
		return s.urls.CallbackBase + path
	}
	u.Path = path
	query := u.Query()
	query.Set("reference", reference)
	u.RawQuery = query.Encode()
	return u.String()
}
