package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"storyfront-backend/application/ports"
	"storyfront-backend/domain"
	apperrors "storyfront-backend/pkg/errors"
)

// CartService manages the one cart each shopper has. Carts are inherently
// viewer-specific, so they never pass through the shared cache; every read
// goes to the store.
type CartService struct {
	carts    ports.CartRepository
	products ports.ProductRepository
	logger   *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(carts ports.CartRepository, products ports.ProductRepository, logger *zap.Logger) *CartService {
	return &CartService{carts: carts, products: products, logger: logger}
}

// Get returns the caller's cart, empty if none exists yet.
func (s *CartService) Get(ctx context.Context, actor *Actor) (*domain.Cart, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	cart, err := s.carts.Get(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return &domain.Cart{UserID: actor.ID, Items: []domain.CartItem{}}, nil
		}
		return nil, apperrors.NewDatabaseError("cart get", err)
	}
	return cart, nil
}

// AddItem puts qty units of a product into the cart, snapshotting the
// current price. Adding an already-present product accumulates quantity.
func (s *CartService) AddItem(ctx context.Context, actor *Actor, productID string, qty int) (*domain.Cart, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	if qty <= 0 {
		return nil, apperrors.NewValidationError("quantity must be positive")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("product")
		}
		return nil, apperrors.NewDatabaseError("product get", err)
	}

	cart, err := s.Get(ctx, actor)
	if err != nil {
		return nil, err
	}

	total := qty
	for _, it := range cart.Items {
		if it.ProductID == productID {
			total += it.Quantity
		}
	}
	if !product.InStock(total) {
		return nil, apperrors.NewValidationError("insufficient stock")
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = total
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID:      product.ID,
			Title:          product.Title,
			Slug:           product.Slug,
			UnitPriceCents: product.PriceCents,
			Quantity:       qty,
		})
	}

	return s.save(ctx, cart)
}

// SetItemQuantity sets a line's quantity; zero removes the line.
func (s *CartService) SetItemQuantity(ctx context.Context, actor *Actor, productID string, qty int) (*domain.Cart, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	if qty < 0 {
		return nil, apperrors.NewValidationError("quantity must not be negative")
	}

	cart, err := s.Get(ctx, actor)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.NewNotFoundError("cart item")
	}

	if qty == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return s.save(ctx, cart)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("product")
		}
		return nil, apperrors.NewDatabaseError("product get", err)
	}
	if !product.InStock(qty) {
		return nil, apperrors.NewValidationError("insufficient stock")
	}

	cart.Items[idx].Quantity = qty
	return s.save(ctx, cart)
}

// RemoveItem drops a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, actor *Actor, productID string) (*domain.Cart, error) {
	return s.SetItemQuantity(ctx, actor, productID, 0)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, actor *Actor) error {
	if actor == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if err := s.carts.Delete(ctx, actor.ID); err != nil {
		return apperrors.NewDatabaseError("cart delete", err)
	}
	return nil
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	cart.UpdatedAt = time.Now().UTC()
	if err := s.carts.Put(ctx, cart); err != nil {
		return nil, apperrors.NewDatabaseError("cart put", err)
	}
	return cart, nil
}
