//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"storyfront-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideDynamoDBClient,
	ProvideRedisClient,
	ProvideCacheStore,
	ProvideCodec,
	ProvideInvalidator,
	ProvideBlogRepository,
	ProvideCommentRepository,
	ProvideProductRepository,
	ProvideUserRepository,
	ProvideTaxonomyRepository,
	ProvideCartRepository,
	ProvideOrderRepository,
	ProvideBlogService,
	ProvideCommentService,
	ProvideProductService,
	ProvideTaxonomyService,
	ProvideCartService,
	ProvideOrderService,
	ProvideUserService,
	ProvideJWTValidator,
	ProvideIPRateLimiter,
	ProvideUserRateLimiter,
	ProvideErrorHandler,
	ProvideHandlers,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
