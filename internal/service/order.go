package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/payment"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/repository"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/validate"
)

// OrderService provides order retrieval and the status transitions driven by
// payment webhooks. Orders are created by checkout confirmation, never
// directly through this service.
type OrderService interface {
	// GetOrder retrieves one order scoped to its owning user.
	GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error)

	// ListOrders retrieves a user's orders, newest first.
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)

	// UpdateStatus sets an order's status after validating it against the
	// known lifecycle states.
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)

	// ApplyPaymentStatus maps a gateway outcome onto the order lifecycle:
	// approved moves the order to processing, rejected cancels it, pending
	// leaves it untouched.
	ApplyPaymentStatus(ctx context.Context, orderID string, status payment.Status) (*domain.Order, error)

	// DeleteOrder removes an order record.
	DeleteOrder(ctx context.Context, orderID string) error
}

type orderService struct {
	repo repository.Querier
}

// NewOrderService creates a new OrderService instance
func NewOrderService(repo repository.Querier) (OrderService, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &orderService{repo: repo}, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	const op = "order.get"

	id, err := validate.UUID(op, "order ID", orderID)
	if err != nil {
		return nil, err
	}

	arg := repository.GetOrderParams{ID: id}
	if userID != "" {
		userUUID, err := validate.UUID(op, "user ID", userID)
		if err != nil {
			return nil, err
		}
		arg.UserID = userUUID
	}

	order, err := s.repo.GetOrder(ctx, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}
	return &order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	const op = "order.list"

	userUUID, err := validate.UUID(op, "user ID", userID)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListOrdersByUser(ctx, userUUID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	return orders, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	const op = "order.updateStatus"

	id, err := validate.UUID(op, "order ID", orderID)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.Errorf(domain.EINVALID, op, "invalid order status: %s", status)
	}

	order, err := s.repo.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{ID: id, Status: status})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to update order status")
	}
	return &order, nil
}

func (s *orderService) ApplyPaymentStatus(ctx context.Context, orderID string, status payment.Status) (*domain.Order, error) {
	const op = "order.applyPaymentStatus"

	switch status {
	case payment.StatusApproved:
		return s.UpdateStatus(ctx, orderID, domain.OrderStatusProcessing)
	case payment.StatusRejected:
		return s.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled)
	case payment.StatusPending:
		// No transition; the gateway will report again.
		return s.GetOrder(ctx, orderID, "")
	default:
		return nil, domain.Errorf(domain.EINVALID, op, "unknown payment status: %s", status)
	}
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	const op = "order.delete"

	id, err := validate.UUID(op, "order ID", orderID)
	if err != nil {
		return err
	}

	n, err := s.repo.DeleteOrder(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete order")
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// buildOrderItems converts priced checkout lines into order snapshots. The
// per-unit price is the amount actually charged: the discounted subtotal
// spread across the units when a discount applied.
func buildOrderItems(items []domain.PricedLineItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		price := item.UnitPrice
		if item.Discount > 0 && item.Quantity > 0 {
			price = item.DiscountedSubtotal / float64(item.Quantity)
		}
		out = append(out, domain.OrderItem{
			ProductID: uuidString(item.ProductID),
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}
	return out
}
