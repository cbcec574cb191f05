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

// ProductService owns the storefront catalog. Products are slug-addressed
// on the read path; a rename purges both the old and new slug entries.
// Catalog writes are admin-only.
type ProductService struct {
	products    ports.ProductRepository
	codec       *cache.Codec
	invalidator *cache.Invalidator
	logger      *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(
	products ports.ProductRepository,
	codec *cache.Codec,
	invalidator *cache.Invalidator,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		products:    products,
		codec:       codec,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CreateProductInput carries the fields of a new product.
type CreateProductInput struct {
	Title       string
	Description string
	PriceCents  int64
	Currency    string
	Stock       int
	Images      []string
	Category    string
	Active      bool
}

// UpdateProductInput carries a partial update; nil fields are unchanged.
type UpdateProductInput struct {
	Title       *string
	Description *string
	PriceCents  *int64
	Currency    *string
	Stock       *int
	Images      *[]string
	Category    *string
	Active      *bool
}

// ProductPage is one page of products plus its cache disposition.
type ProductPage struct {
	Products []*domain.Product
	Total    int
	Cached   bool
}

type cachedProductPage struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
}

// Create adds a product to the catalog.
func (s *ProductService) Create(ctx context.Context, actor *Actor, in CreateProductInput) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	newSlug, err := uniqueSlug(ctx, in.Title, s.products.SlugExists)
	if err != nil {
		return nil, apperrors.NewDatabaseError("product slug probe", err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Slug:        newSlug,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Currency:    in.Currency,
		Stock:       in.Stock,
		Images:      in.Images,
		Category:    in.Category,
		Active:      in.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return nil, apperrors.NewConflictError("product already exists")
		}
		return nil, apperrors.NewDatabaseError("product create", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationProductChanged,
		ID:       product.ID,
		Slug:     product.Slug,
	})

	s.logger.Info("product created",
		zap.String("productID", product.ID),
		zap.String("slug", product.Slug),
	)
	return product, nil
}

// GetBySlug serves a product through the cache. Inactive products are
// visible to admins only; that check runs after the cache read, so a hit
// never leaks a delisted product. Absent and hidden outcomes are not
// cached.
func (s *ProductService) GetBySlug(ctx context.Context, actor *Actor, productSlug string) (*domain.Product, error) {
	key := cache.ProductKey(productSlug)

	var product domain.Product
	if !s.codec.Get(ctx, key, &product) {
		loaded, err := s.products.GetBySlug(ctx, productSlug)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil, apperrors.NewNotFoundError("product")
			}
			return nil, apperrors.NewDatabaseError("product get", err)
		}
		product = *loaded
		s.codec.Put(ctx, key, product, s.codec.TTL().Item)
	}

	if !product.Active && !actor.IsAdmin() {
		return nil, apperrors.NewNotFoundError("product")
	}
	return &product, nil
}

// List returns a page of the catalog. Shopper requests see active products
// only and are cached; admin requests including delisted items bypass the
// cache.
func (s *ProductService) List(ctx context.Context, actor *Actor, filter ports.ProductFilter, page common.PaginationParams) (*ProductPage, error) {
	filter.ActiveOnly = filter.ActiveOnly || !actor.IsAdmin()

	if !filter.ActiveOnly {
		products, total, err := s.products.List(ctx, filter, page)
		if err != nil {
			return nil, apperrors.NewDatabaseError("product list", err)
		}
		return &ProductPage{Products: products, Total: total}, nil
	}

	key := cache.ProductListKey(filter.Category, filter.ActiveOnly, filter.MinPriceCent, filter.MaxPriceCent, page)
	var cached cachedProductPage
	if s.codec.Get(ctx, key, &cached) {
		return &ProductPage{Products: cached.Products, Total: cached.Total, Cached: true}, nil
	}

	products, total, err := s.products.List(ctx, filter, page)
	if err != nil {
		return nil, apperrors.NewDatabaseError("product list", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}

	s.codec.Put(ctx, key, cachedProductPage{Products: products, Total: total}, s.codec.TTL().List)
	return &ProductPage{Products: products, Total: total}, nil
}

// Update modifies a product. A title change renames the slug; the
// invalidation event carries both slugs.
func (s *ProductService) Update(ctx context.Context, actor *Actor, id string, in UpdateProductInput) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("product")
		}
		return nil, apperrors.NewDatabaseError("product get", err)
	}

	oldSlug := product.Slug
	if in.Title != nil && *in.Title != product.Title {
		product.Title = *in.Title
		newSlug, err := uniqueSlug(ctx, product.Title, s.products.SlugExists)
		if err != nil {
			return nil, apperrors.NewDatabaseError("product slug probe", err)
		}
		product.Slug = newSlug
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.PriceCents != nil {
		product.PriceCents = *in.PriceCents
	}
	if in.Currency != nil {
		product.Currency = *in.Currency
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.Images != nil {
		product.Images = *in.Images
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("product")
		}
		return nil, apperrors.NewDatabaseError("product update", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationProductChanged,
		ID:       product.ID,
		Slug:     product.Slug,
		OldSlug:  oldSlug,
	})
	return product, nil
}

// Delete removes a product from the catalog.
func (s *ProductService) Delete(ctx context.Context, actor *Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperrors.NewNotFoundError("product")
		}
		return apperrors.NewDatabaseError("product get", err)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperrors.NewNotFoundError("product")
		}
		return apperrors.NewDatabaseError("product delete", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationProductChanged,
		ID:       product.ID,
		Slug:     product.Slug,
	})
	return nil
}

func requireAdmin(actor *Actor) error {
	if actor == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbiddenError("admin role required")
	}
	return nil
}
