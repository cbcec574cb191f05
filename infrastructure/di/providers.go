// Package di assembles the application object graph. Providers are plain
// constructors so google/wire can generate the initializer.
package di

import (
	"context"

	"storyfront-backend/application/ports"
	"storyfront-backend/application/services"
	"storyfront-backend/infrastructure/cache"
	"storyfront-backend/infrastructure/config"
	"storyfront-backend/infrastructure/persistence/dynamodb"
	"storyfront-backend/interfaces/http/rest"
	"storyfront-backend/interfaces/http/rest/handlers"
	"storyfront-backend/pkg/auth"
	apperrors "storyfront-backend/pkg/errors"
	"storyfront-backend/pkg/observability"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	RedisClient *redis.Client
	CacheStore  cache.Store
	Codec       *cache.Codec
	Invalidator *cache.Invalidator

	BlogRepo     ports.BlogRepository
	CommentRepo  ports.CommentRepository
	ProductRepo  ports.ProductRepository
	UserRepo     ports.UserRepository
	TaxonomyRepo ports.TaxonomyRepository
	CartRepo     ports.CartRepository
	OrderRepo    ports.OrderRepository

	Blogs    *services.BlogService
	Comments *services.CommentService
	Products *services.ProductService
	Taxonomy *services.TaxonomyService
	Carts    *services.CartService
	Orders   *services.OrderService
	Users    *services.UserService

	Router *rest.Router
}

// Shutdown releases held connections and flushes buffered logs.
func (c *Container) Shutdown() {
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideMetrics creates the Prometheus metrics collectors. Disabled
// metrics yield a nil receiver, which every recording method tolerates.
func ProvideMetrics(cfg *config.Config) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewMetrics()
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(ctx context.Context, cfg *config.Config) (*awsdynamodb.Client, error) {
	return dynamodb.NewClient(ctx, cfg)
}

// ProvideRedisClient connects to Redis. Development environments may run
// without one; production config validation requires the address.
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// ProvideCacheStore builds the shared cache store. Redis sits behind a
// circuit breaker so a cache outage degrades to misses instead of
// stalling reads; without Redis an in-process store serves a single
// instance.
func ProvideCacheStore(client *redis.Client, logger *zap.Logger) cache.Store {
	if client == nil {
		return cache.NewMemoryStore()
	}
	return cache.NewBreakerStore(cache.NewRedisStoreFromClient(client, ""), logger)
}

// ProvideCodec creates the cache codec with the configured TTL tiers.
func ProvideCodec(store cache.Store, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) *cache.Codec {
	return cache.NewCodec(store, cache.TTLPolicy{
		Item: cfg.CacheItemTTL,
		List: cfg.CacheListTTL,
		User: cfg.CacheUserTTL,
	}, logger, metrics)
}

// ProvideInvalidator creates the cache invalidation router.
func ProvideInvalidator(store cache.Store, logger *zap.Logger, metrics *observability.Metrics) *cache.Invalidator {
	return cache.NewInvalidator(store, logger, metrics)
}

// ProvideBlogRepository creates a blog repository
func ProvideBlogRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.BlogRepository {
	return dynamodb.NewBlogRepository(client, cfg.DynamoDBTable, cfg.SlugIndexName, cfg.TypeIndexName, logger)
}

// ProvideCommentRepository creates a comment repository
func ProvideCommentRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.CommentRepository {
	return dynamodb.NewCommentRepository(client, cfg.DynamoDBTable, cfg.SlugIndexName, logger)
}

// ProvideProductRepository creates a product repository
func ProvideProductRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ProductRepository {
	return dynamodb.NewProductRepository(client, cfg.DynamoDBTable, cfg.SlugIndexName, cfg.TypeIndexName, logger)
}

// ProvideUserRepository creates a user repository
func ProvideUserRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.UserRepository {
	return dynamodb.NewUserRepository(client, cfg.DynamoDBTable, cfg.SlugIndexName, cfg.TypeIndexName, logger)
}

// ProvideTaxonomyRepository creates a taxonomy repository
func ProvideTaxonomyRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.TaxonomyRepository {
	return dynamodb.NewTaxonomyRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideCartRepository creates a cart repository
func ProvideCartRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.CartRepository {
	return dynamodb.NewCartRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideOrderRepository creates an order repository
func ProvideOrderRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.OrderRepository {
	return dynamodb.NewOrderRepository(client, cfg.DynamoDBTable, cfg.SlugIndexName, logger)
}

// ProvideBlogService creates the blog service
func ProvideBlogService(blogs ports.BlogRepository, comments ports.CommentRepository, codec *cache.Codec, invalidator *cache.Invalidator, logger *zap.Logger) *services.BlogService {
	return services.NewBlogService(blogs, comments, codec, invalidator, logger)
}

// ProvideCommentService creates the comment service
func ProvideCommentService(comments ports.CommentRepository, blogs ports.BlogRepository, codec *cache.Codec, invalidator *cache.Invalidator, logger *zap.Logger) *services.CommentService {
	return services.NewCommentService(comments, blogs, codec, invalidator, logger)
}

// ProvideProductService creates the product service
func ProvideProductService(products ports.ProductRepository, codec *cache.Codec, invalidator *cache.Invalidator, logger *zap.Logger) *services.ProductService {
	return services.NewProductService(products, codec, invalidator, logger)
}

// ProvideTaxonomyService creates the taxonomy service
func ProvideTaxonomyService(taxonomy ports.TaxonomyRepository, logger *zap.Logger) *services.TaxonomyService {
	return services.NewTaxonomyService(taxonomy, logger)
}

// ProvideCartService creates the cart service
func ProvideCartService(carts ports.CartRepository, products ports.ProductRepository, logger *zap.Logger) *services.CartService {
	return services.NewCartService(carts, products, logger)
}

// ProvideOrderService creates the order service
func ProvideOrderService(orders ports.OrderRepository, carts ports.CartRepository, products ports.ProductRepository, users ports.UserRepository, invalidator *cache.Invalidator, logger *zap.Logger) *services.OrderService {
	return services.NewOrderService(orders, carts, products, users, invalidator, logger)
}

// ProvideUserService creates the user service
func ProvideUserService(users ports.UserRepository, codec *cache.Codec, invalidator *cache.Invalidator, logger *zap.Logger) *services.UserService {
	return services.NewUserService(users, codec, invalidator, logger)
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	var audience []string
	if cfg.JWTAudience != "" {
		audience = []string{cfg.JWTAudience}
	}
	secret := cfg.JWTSecret
	if secret == "" {
		// Development fallback; production config validation rejects it.
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     secret,
		Issuer:        cfg.JWTIssuer,
		Audience:      audience,
	})
}

// ProvideIPRateLimiter builds the per-IP limiter. With Redis available the
// window is shared across instances.
func ProvideIPRateLimiter(client *redis.Client, cfg *config.Config) *auth.IPRateLimiter {
	if client != nil {
		return auth.NewIPRateLimiterWith(auth.NewRedisRateLimiter(client, cfg.RateLimitPerMinute))
	}
	return auth.NewIPRateLimiter(cfg.RateLimitPerMinute)
}

// ProvideUserRateLimiter builds the per-user limiter.
func ProvideUserRateLimiter(client *redis.Client, cfg *config.Config) *auth.UserRateLimiter {
	if client != nil {
		return auth.NewUserRateLimiterWith(auth.NewRedisRateLimiter(client, cfg.RateLimitPerMinute))
	}
	return auth.NewUserRateLimiter(cfg.RateLimitPerMinute)
}

// ProvideErrorHandler creates the shared HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideHandlers builds the REST handler set
func ProvideHandlers(
	blogs *services.BlogService,
	comments *services.CommentService,
	products *services.ProductService,
	taxonomy *services.TaxonomyService,
	carts *services.CartService,
	orders *services.OrderService,
	users *services.UserService,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) rest.Handlers {
	return rest.Handlers{
		Blogs:    handlers.NewBlogHandler(blogs, errorHandler, logger),
		Comments: handlers.NewCommentHandler(comments, errorHandler, logger),
		Products: handlers.NewProductHandler(products, errorHandler, logger),
		Taxonomy: handlers.NewTaxonomyHandler(taxonomy, errorHandler, logger),
		Carts:    handlers.NewCartHandler(carts, errorHandler, logger),
		Orders:   handlers.NewOrderHandler(orders, errorHandler, logger),
		Users:    handlers.NewUserHandler(users, errorHandler, logger),
	}
}

// ProvideRouter wires the HTTP router
func ProvideRouter(
	cfg *config.Config,
	h rest.Handlers,
	validator *auth.JWTValidator,
	ipLimit *auth.IPRateLimiter,
	userLimit *auth.UserRateLimiter,
	metrics *observability.Metrics,
	logger *zap.Logger,
	client *redis.Client,
) *rest.Router {
	var readiness func(ctx context.Context) error
	if client != nil {
		readiness = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return rest.NewRouter(cfg, h, validator, ipLimit, userLimit, metrics, logger, readiness)
}
