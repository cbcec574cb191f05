package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyfront-backend/application/ports"
	"storyfront-backend/domain"
	"storyfront-backend/infrastructure/cache"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"
)

// OrderService turns carts into orders and walks them through the
// forward-only lifecycle. Orders are viewer-specific and never cached;
// checkout decrements product stock, which does touch the shared catalog
// cache.
type OrderService struct {
	orders      ports.OrderRepository
	carts       ports.CartRepository
	products    ports.ProductRepository
	users       ports.UserRepository
	invalidator *cache.Invalidator
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orders ports.OrderRepository,
	carts ports.CartRepository,
	products ports.ProductRepository,
	users ports.UserRepository,
	invalidator *cache.Invalidator,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:      orders,
		carts:       carts,
		products:    products,
		users:       users,
		invalidator: invalidator,
		logger:      logger,
	}
}

// OrderPage is one page of a user's order history.
type OrderPage struct {
	Orders []*domain.Order
	Total  int
}

// Checkout snapshots the caller's cart into a pending order shipped to one
// of their saved addresses, decrements stock, and empties the cart.
// Payment capture happens out of band; the order starts as pending.
func (s *OrderService) Checkout(ctx context.Context, actor *Actor, addressID string) (*domain.Order, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	cart, err := s.carts.Get(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewValidationError("cart is empty")
		}
		return nil, apperrors.NewDatabaseError("cart get", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.NewValidationError("cart is empty")
	}

	address, err := s.users.GetAddress(ctx, actor.ID, addressID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("address")
		}
		return nil, apperrors.NewDatabaseError("address get", err)
	}

	// Verify and reserve stock line by line against the live catalog,
	// not the cart snapshot.
	currency := "USD"
	for _, line := range cart.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil, apperrors.NewValidationError("product no longer available: " + line.Slug)
			}
			return nil, apperrors.NewDatabaseError("product get", err)
		}
		if !product.InStock(line.Quantity) {
			return nil, apperrors.NewValidationError("insufficient stock: " + line.Slug)
		}
		currency = product.Currency

		product.Stock -= line.Quantity
		product.UpdatedAt = time.Now().UTC()
		if err := s.products.Update(ctx, product); err != nil {
			return nil, apperrors.NewDatabaseError("stock reserve", err)
		}
		s.invalidator.Invalidate(ctx, cache.Event{
			Mutation: cache.MutationProductChanged,
			ID:       product.ID,
			Slug:     product.Slug,
		})
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:         uuid.New().String(),
		UserID:     actor.ID,
		Items:      cart.Items,
		TotalCents: cart.TotalCents(),
		Currency:   currency,
		Status:     domain.OrderPending,
		Shipping:   *address,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.NewDatabaseError("order create", err)
	}

	if err := s.carts.Delete(ctx, actor.ID); err != nil {
		s.logger.Warn("cart clear after checkout failed",
			zap.String("userID", actor.ID), zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.String("orderID", order.ID),
		zap.String("userID", actor.ID),
		zap.Int64("totalCents", order.TotalCents),
	)
	return order, nil
}

// GetByID returns an order to its owner or an admin.
func (s *OrderService) GetByID(ctx context.Context, actor *Actor, id string) (*domain.Order, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("order")
		}
		return nil, apperrors.NewDatabaseError("order get", err)
	}
	if order.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.NewNotFoundError("order")
	}
	return order, nil
}

// ListByUser returns the caller's order history. Admins may list any user.
func (s *OrderService) ListByUser(ctx context.Context, actor *Actor, userID string, page common.PaginationParams) (*OrderPage, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	if userID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("cannot list another user's orders")
	}

	orders, total, err := s.orders.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, apperrors.NewDatabaseError("order list", err)
	}
	return &OrderPage{Orders: orders, Total: total}, nil
}

// UpdateStatus advances an order's lifecycle. Admin only; transitions are
// forward-only.
func (s *OrderService) UpdateStatus(ctx context.Context, actor *Actor, id string, next domain.OrderStatus) (*domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("order")
		}
		return nil, apperrors.NewDatabaseError("order get", err)
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, apperrors.NewConflictError(
			"cannot move order from " + string(order.Status) + " to " + string(next))
	}

	order.Status = next
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apperrors.NewDatabaseError("order update", err)
	}

	s.logger.Info("order status changed",
		zap.String("orderID", order.ID),
		zap.String("status", string(next)),
	)
	return order, nil
}

// Cancel lets the owner cancel an order that has not shipped. Stock goes
// back to the catalog.
func (s *OrderService) Cancel(ctx context.Context, actor *Actor, id string) (*domain.Order, error) {
	order, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(domain.OrderCancelled) {
		return nil, apperrors.NewConflictError("order can no longer be cancelled")
	}

	order.Status = domain.OrderCancelled
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apperrors.NewDatabaseError("order update", err)
	}

	// Best-effort restock; a failed line costs inventory accuracy, not
	// the cancellation.
	for _, line := range order.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			s.logger.Warn("restock lookup failed",
				zap.String("productID", line.ProductID), zap.Error(err))
			continue
		}
		product.Stock += line.Quantity
		product.UpdatedAt = time.Now().UTC()
		if err := s.products.Update(ctx, product); err != nil {
			s.logger.Warn("restock failed",
				zap.String("productID", line.ProductID), zap.Error(err))
			continue
		}
		s.invalidator.Invalidate(ctx, cache.Event{
			Mutation: cache.MutationProductChanged,
			ID:       product.ID,
			Slug:     product.Slug,
		})
	}

	return order, nil
}
