// Package rest wires the HTTP surface: routing, middleware, and the
// handlers that sit in front of the application services.
package rest

import (
	"context"
	"net/http"

	"storyfront-backend/infrastructure/config"
	"storyfront-backend/interfaces/http/rest/handlers"
	"storyfront-backend/interfaces/http/rest/middleware"
	"storyfront-backend/pkg/auth"
	"storyfront-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Handlers bundles the request handlers the router dispatches to.
type Handlers struct {
	Blogs    *handlers.BlogHandler
	Comments *handlers.CommentHandler
	Products *handlers.ProductHandler
	Taxonomy *handlers.TaxonomyHandler
	Carts    *handlers.CartHandler
	Orders   *handlers.OrderHandler
	Users    *handlers.UserHandler
}

// Router creates and configures the HTTP router
type Router struct {
	cfg       *config.Config
	handlers  Handlers
	validator *auth.JWTValidator
	ipLimit   *auth.IPRateLimiter
	userLimit *auth.UserRateLimiter
	metrics   *observability.Metrics
	logger    *zap.Logger
	readiness func(ctx context.Context) error
}

// NewRouter creates a new router instance. The readiness probe may be nil,
// in which case /ready always reports ready.
func NewRouter(
	cfg *config.Config,
	h Handlers,
	validator *auth.JWTValidator,
	ipLimit *auth.IPRateLimiter,
	userLimit *auth.UserRateLimiter,
	metrics *observability.Metrics,
	logger *zap.Logger,
	readiness func(ctx context.Context) error,
) *Router {
	return &Router{
		cfg:       cfg,
		handlers:  h,
		validator: validator,
		ipLimit:   ipLimit,
		userLimit: userLimit,
		metrics:   metrics,
		logger:    logger,
		readiness: readiness,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.storyfront.dev"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	authenticate := middleware.Authenticate(rt.validator, rt.ipLimit, rt.userLimit, rt.logger)
	maybeAuthenticate := middleware.OptionalAuthenticate(rt.validator, rt.ipLimit, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		// Public reads. A bearer token is honored when present so that
		// authors see their private posts and likes resolve per viewer.
		r.Group(func(r chi.Router) {
			r.Use(maybeAuthenticate)

			r.Get("/home", rt.handlers.Blogs.Home)
			r.Post("/search", rt.handlers.Blogs.Search)

			r.Get("/blogs", rt.handlers.Blogs.ListBlogs)
			r.Get("/blogs/latest", rt.handlers.Blogs.ListLatest)
			r.Get("/blogs/blog/{blogID}", rt.handlers.Blogs.GetBlog)
			r.Get("/blogs/slug/{slug}", rt.handlers.Blogs.GetBlogBySlug)
			r.Get("/blogs/related/{blogID}", rt.handlers.Blogs.ListRelated)
			r.Get("/blogs/{blogID}/comments", rt.handlers.Comments.ListComments)

			r.Get("/products", rt.handlers.Products.ListProducts)
			r.Get("/products/{slug}", rt.handlers.Products.GetProduct)

			r.Get("/categories", rt.handlers.Taxonomy.ListCategories)
			r.Get("/tags", rt.handlers.Taxonomy.ListTags)

			r.Get("/users/{userID}", rt.handlers.Users.GetUser)
		})

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/blogs", rt.handlers.Blogs.CreateBlog)
			r.Put("/blogs/{blogID}", rt.handlers.Blogs.UpdateBlog)
			r.Delete("/blogs/{blogID}", rt.handlers.Blogs.DeleteBlog)
			r.Post("/blogs/{blogID}/like", rt.handlers.Blogs.ToggleLike)

			r.Post("/blogs/{blogID}/comments", rt.handlers.Comments.CreateComment)
			r.Put("/comments/{commentID}", rt.handlers.Comments.UpdateComment)
			r.Delete("/comments/{commentID}", rt.handlers.Comments.DeleteComment)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", rt.handlers.Carts.GetCart)
				r.Delete("/", rt.handlers.Carts.ClearCart)
				r.Post("/items", rt.handlers.Carts.AddItem)
				r.Put("/items/{productID}", rt.handlers.Carts.SetItemQuantity)
				r.Delete("/items/{productID}", rt.handlers.Carts.RemoveItem)
			})

			r.Post("/orders", rt.handlers.Orders.Checkout)
			r.Get("/orders", rt.handlers.Orders.ListOrders)
			r.Get("/orders/{orderID}", rt.handlers.Orders.GetOrder)
			r.Post("/orders/{orderID}/cancel", rt.handlers.Orders.CancelOrder)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", rt.handlers.Users.GetMe)
				r.Put("/", rt.handlers.Users.UpdateMe)
				r.Get("/addresses", rt.handlers.Users.ListAddresses)
				r.Post("/addresses", rt.handlers.Users.PutAddress)
				r.Delete("/addresses/{addressID}", rt.handlers.Users.DeleteAddress)
			})
		})

		// Admin routes.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireAdmin)

			r.Post("/products", rt.handlers.Products.CreateProduct)
			r.Put("/products/{slug}", rt.handlers.Products.UpdateProduct)
			r.Delete("/products/{slug}", rt.handlers.Products.DeleteProduct)

			r.Post("/categories", rt.handlers.Taxonomy.CreateCategory)
			r.Put("/categories/{categoryID}", rt.handlers.Taxonomy.UpdateCategory)
			r.Delete("/categories/{categoryID}", rt.handlers.Taxonomy.DeleteCategory)
			r.Post("/tags", rt.handlers.Taxonomy.CreateTag)
			r.Delete("/tags/{tagID}", rt.handlers.Taxonomy.DeleteTag)

			r.Put("/orders/{orderID}/status", rt.handlers.Orders.UpdateStatus)

			r.Get("/users", rt.handlers.Users.ListUsers)
			r.Put("/users/{userID}/role", rt.handlers.Users.SetRole)
			r.Delete("/users/{userID}", rt.handlers.Users.DeleteUser)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck verifies downstream dependencies before reporting ready
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.readiness != nil {
		if err := rt.readiness(req.Context()); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
