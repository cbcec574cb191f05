// Package ports declares the persistence interfaces consumed by the
// application services. Implementations live under
// infrastructure/persistence; services depend only on these contracts.
package ports

import (
	"context"
	"errors"

	"storyfront-backend/domain"
	"storyfront-backend/pkg/common"
)

// ErrNotFound is the not-found signal returned by every repository for an
// absent record. Repositories never treat absence as a panic or a generic
// failure; callers translate this into a 404.
var ErrNotFound = errors.New("record not found")

// ErrConflict signals a uniqueness violation (duplicate slug, concurrent
// update that lost a conditional write).
var ErrConflict = errors.New("record conflict")

// BlogFilter narrows blog list queries.
type BlogFilter struct {
	Category       string
	Tag            string
	AuthorID       string
	IncludePrivate bool
}

// BlogRepository persists blog posts.
type BlogRepository interface {
	Create(ctx context.Context, blog *domain.Blog) error
	GetByID(ctx context.Context, id string) (*domain.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Blog, error)
	Update(ctx context.Context, blog *domain.Blog) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter BlogFilter, page common.PaginationParams) ([]*domain.Blog, int, error)
	ListLatest(ctx context.Context, limit int) ([]*domain.Blog, error)
	// ListRelated returns public posts sharing a category or tag with the
	// given post, excluding the post itself.
	ListRelated(ctx context.Context, blog *domain.Blog, limit int) ([]*domain.Blog, error)
	Search(ctx context.Context, query string, page common.PaginationParams) ([]*domain.Blog, int, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// IncrementViewCount bumps the view counter without a read-modify-write
	// round trip on the full record.
	IncrementViewCount(ctx context.Context, id string) error
	// SetLike adds or removes userID from the post's like set.
	SetLike(ctx context.Context, blogID, userID string, liked bool) error
	AdjustCommentCount(ctx context.Context, blogID string, delta int) error
}

// CommentRepository persists blog comments as a parent-pointer adjacency.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	Update(ctx context.Context, comment *domain.Comment) error
	ListByBlog(ctx context.Context, blogID string) ([]*domain.Comment, error)
	// ListReplies returns direct children of the given comment.
	ListReplies(ctx context.Context, blogID, parentID string) ([]*domain.Comment, error)
	// DeleteMany removes a batch of comments by ID.
	DeleteMany(ctx context.Context, blogID string, ids []string) error
}

// ProductFilter narrows product list queries.
type ProductFilter struct {
	Category     string
	ActiveOnly   bool
	MinPriceCent int64
	MaxPriceCent int64
}

// ProductRepository persists storefront products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ProductFilter, page common.PaginationParams) ([]*domain.Product, int, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// UserRepository persists accounts and their addresses.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page common.PaginationParams) ([]*domain.User, int, error)

	ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error)
	GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error)
	PutAddress(ctx context.Context, address *domain.Address) error
	DeleteAddress(ctx context.Context, userID, addressID string) error
}

// TaxonomyRepository persists categories and tags.
type TaxonomyRepository interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	ListTags(ctx context.Context) ([]*domain.Tag, error)
}

// CartRepository persists the single cart per user.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Put(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	ListByUser(ctx context.Context, userID string, page common.PaginationParams) ([]*domain.Order, int, error)
}
