package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyfront-backend/application/ports"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"
)

var shopper = &Actor{ID: "shopper-1", Name: "Sam"}

func catalogInput(title string) CreateProductInput {
	return CreateProductInput{
		Title:      title,
		PriceCents: 1999,
		Currency:   "USD",
		Stock:      10,
		Active:     true,
	}
}

func TestProductWritesAreAdminOnly(t *testing.T) {
	env := newTestEnv()
	svc := env.productService()
	ctx := context.Background()

	_, err := svc.Create(ctx, shopper, catalogInput("Mug"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	_, err = svc.Create(ctx, nil, catalogInput("Mug"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	_, err = svc.Create(ctx, admin, catalogInput("Mug"))
	assert.NoError(t, err)
}

func TestProductReadThroughBySlug(t *testing.T) {
	env := newTestEnv()
	svc := env.productService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, catalogInput("Enamel Mug"))
	require.NoError(t, err)

	env.products.Gets = 0
	first, err := svc.GetBySlug(ctx, shopper, "enamel-mug")
	require.NoError(t, err)
	assert.Equal(t, 1, env.products.Gets)

	second, err := svc.GetBySlug(ctx, shopper, "enamel-mug")
	require.NoError(t, err)
	assert.Equal(t, 1, env.products.Gets, "second read must come from the cache")
	assert.Equal(t, first.ID, second.ID)
}

func TestProductRenamePurgesBothSlugs(t *testing.T) {
	env := newTestEnv()
	svc := env.productService()
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, catalogInput("Old Name"))
	require.NoError(t, err)

	// Prime the cache under the old slug.
	_, err = svc.GetBySlug(ctx, shopper, "old-name")
	require.NoError(t, err)

	newTitle := "New Name"
	updated, err := svc.Update(ctx, admin, created.ID, UpdateProductInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "new-name", updated.Slug)

	_, err = svc.GetBySlug(ctx, shopper, "old-name")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound),
		"the entry cached under the old slug must be purged")

	fresh, err := svc.GetBySlug(ctx, shopper, "new-name")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fresh.ID)
}

func TestInactiveProductHiddenEvenOnCacheHit(t *testing.T) {
	env := newTestEnv()
	svc := env.productService()
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, catalogInput("Seasonal Item"))
	require.NoError(t, err)

	// Warm the cache while the product is live.
	_, err = svc.GetBySlug(ctx, shopper, created.Slug)
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, admin, created.ID, UpdateProductInput{Active: &inactive})
	require.NoError(t, err)

	_, err = svc.GetBySlug(ctx, shopper, created.Slug)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound),
		"shoppers must not see a delisted product")

	got, err := svc.GetBySlug(ctx, admin, created.Slug)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestProductListCachesActivePagesOnly(t *testing.T) {
	env := newTestEnv()
	svc := env.productService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, catalogInput("Visible"))
	require.NoError(t, err)
	hidden := catalogInput("Hidden")
	hidden.Active = false
	_, err = svc.Create(ctx, admin, hidden)
	require.NoError(t, err)

	page := common.DefaultPaginationParams()

	cold, err := svc.List(ctx, shopper, ports.ProductFilter{}, page)
	require.NoError(t, err)
	assert.False(t, cold.Cached)
	assert.Equal(t, 1, cold.Total)

	warm, err := svc.List(ctx, shopper, ports.ProductFilter{}, page)
	require.NoError(t, err)
	assert.True(t, warm.Cached)

	all, err := svc.List(ctx, admin, ports.ProductFilter{}, page)
	require.NoError(t, err)
	assert.False(t, all.Cached, "the privileged listing bypasses the cache")
	assert.Equal(t, 2, all.Total)
}

func TestProductListPriceFilterGetsOwnCacheEntry(t *testing.T) {
	env := newTestEnv()
	svc := env.productService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, catalogInput("Mug"))
	require.NoError(t, err)
	premium := catalogInput("Framed Print")
	premium.PriceCents = 50000
	_, err = svc.Create(ctx, admin, premium)
	require.NoError(t, err)

	page := common.DefaultPaginationParams()

	// Warm the unfiltered page first.
	cold, err := svc.List(ctx, shopper, ports.ProductFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, 2, cold.Total)

	// A price floor is a different query and must not be served the
	// unfiltered entry.
	floored, err := svc.List(ctx, shopper, ports.ProductFilter{MinPriceCent: 50000}, page)
	require.NoError(t, err)
	assert.False(t, floored.Cached)
	require.Equal(t, 1, floored.Total)
	assert.Equal(t, "Framed Print", floored.Products[0].Title)

	capped, err := svc.List(ctx, shopper, ports.ProductFilter{MaxPriceCent: 2000}, page)
	require.NoError(t, err)
	require.Equal(t, 1, capped.Total)
	assert.Equal(t, "Mug", capped.Products[0].Title)

	// Repeats of the same bounded query do hit their own entry.
	again, err := svc.List(ctx, shopper, ports.ProductFilter{MinPriceCent: 50000}, page)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, 1, again.Total)
}
