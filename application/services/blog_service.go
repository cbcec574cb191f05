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

// BlogService owns the blog content lifecycle and its cache-aside read
// paths. Reads consult the cache first but re-apply authorization on every
// request: a cache hit never widens visibility. Writes go to the document
// store first and purge the declared stale set strictly after the commit.
type BlogService struct {
	blogs       ports.BlogRepository
	comments    ports.CommentRepository
	codec       *cache.Codec
	invalidator *cache.Invalidator
	logger      *zap.Logger
}

// NewBlogService creates a new BlogService.
func NewBlogService(
	blogs ports.BlogRepository,
	comments ports.CommentRepository,
	codec *cache.Codec,
	invalidator *cache.Invalidator,
	logger *zap.Logger,
) *BlogService {
	return &BlogService{
		blogs:       blogs,
		comments:    comments,
		codec:       codec,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CreateBlogInput carries the fields of a new post.
type CreateBlogInput struct {
	Title    string
	Content  string
	Excerpt  string
	Category string
	Tags     []string
	Private  bool
}

// UpdateBlogInput carries a partial update; nil fields are left unchanged.
type UpdateBlogInput struct {
	Title    *string
	Content  *string
	Excerpt  *string
	Category *string
	Tags     *[]string
	Private  *bool
}

// BlogPage is one page of blog projections plus the cache disposition of
// the request that produced it.
type BlogPage struct {
	Blogs  []*domain.BlogView
	Total  int
	Cached bool
}

// cachedBlogPage is the viewer-agnostic list payload stored in the cache.
type cachedBlogPage struct {
	Blogs []*domain.Blog `json:"blogs"`
	Total int            `json:"total"`
}

// Create publishes a new post under a slug derived from the title. Slugs
// are globally unique; collisions get a numeric suffix.
func (s *BlogService) Create(ctx context.Context, actor *Actor, in CreateBlogInput) (*domain.BlogView, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	newSlug, err := uniqueSlug(ctx, in.Title, s.blogs.SlugExists)
	if err != nil {
		return nil, apperrors.NewDatabaseError("blog slug probe", err)
	}

	now := time.Now().UTC()
	blog := &domain.Blog{
		ID:       uuid.New().String(),
		Title:    in.Title,
		Slug:     newSlug,
		Content:  in.Content,
		Excerpt:  in.Excerpt,
		Author:   domain.AuthorSummary{ID: actor.ID, Name: actor.Name},
		Category: in.Category,
		Tags:     in.Tags,
		Private:  in.Private,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.blogs.Create(ctx, blog); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return nil, apperrors.NewConflictError("blog already exists")
		}
		return nil, apperrors.NewDatabaseError("blog create", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationBlogCreated,
		ID:       blog.ID,
		Slug:     blog.Slug,
	})

	s.logger.Info("blog created",
		zap.String("blogID", blog.ID),
		zap.String("slug", blog.Slug),
		zap.String("authorID", actor.ID),
	)
	return domain.NewBlogView(blog, actor.UserID()), nil
}

// GetByID serves a post through the cache. The sequence is fixed: consult
// the cache, fall through to the store on a miss, re-check visibility on
// the loaded record, count the view, then enrich for the viewer. Absent
// and forbidden outcomes are never written to the cache.
func (s *BlogService) GetByID(ctx context.Context, actor *Actor, id string) (*domain.BlogView, error) {
	blog, err := s.loadBlog(ctx, cache.BlogKey(id), func(ctx context.Context) (*domain.Blog, error) {
		return s.blogs.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.finishRead(ctx, actor, blog)
}

// GetBySlug serves a post addressed by slug through its own cache entry.
func (s *BlogService) GetBySlug(ctx context.Context, actor *Actor, blogSlug string) (*domain.BlogView, error) {
	blog, err := s.loadBlog(ctx, cache.BlogSlugKey(blogSlug), func(ctx context.Context) (*domain.Blog, error) {
		return s.blogs.GetBySlug(ctx, blogSlug)
	})
	if err != nil {
		return nil, err
	}
	return s.finishRead(ctx, actor, blog)
}

// loadBlog is the read-through step: cache first, store on miss, populate
// on the way out. Not-found results are returned without touching the
// cache so an absent record cannot shadow a later create.
func (s *BlogService) loadBlog(ctx context.Context, key string, load func(context.Context) (*domain.Blog, error)) (*domain.Blog, error) {
	var cached domain.Blog
	if s.codec.Get(ctx, key, &cached) {
		return &cached, nil
	}

	blog, err := load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("blog")
		}
		return nil, apperrors.NewDatabaseError("blog get", err)
	}

	s.codec.Put(ctx, key, blog, s.codec.TTL().Item)
	return blog, nil
}

// finishRead applies the post-load steps shared by both address forms:
// visibility, the view-count side effect, viewer enrichment.
func (s *BlogService) finishRead(ctx context.Context, actor *Actor, blog *domain.Blog) (*domain.BlogView, error) {
	if !blog.CanBeViewedBy(actor.UserID(), actor.IsAdmin()) {
		if actor == nil {
			return nil, apperrors.NewUnauthorizedError("authentication required")
		}
		return nil, apperrors.NewForbiddenError("this post is private")
	}

	// Authors re-reading their own work and admins moderating do not
	// count as readership. Every qualifying request counts, cache hit or
	// not, so the number tracks reads rather than cache misses. The bump
	// is best-effort: losing one count is cheaper than failing the read.
	if actor.UserID() != blog.Author.ID && !actor.IsAdmin() {
		if err := s.blogs.IncrementViewCount(ctx, blog.ID); err != nil {
			s.logger.Warn("view count increment failed",
				zap.String("blogID", blog.ID), zap.Error(err))
		} else {
			blog.ViewCount++
		}
	}

	return domain.NewBlogView(blog, actor.UserID()), nil
}

// List returns a filtered page of posts. Only the public projection is
// cached; requests that can see private posts bypass the cache entirely so
// a privileged page can never be replayed to an anonymous reader.
func (s *BlogService) List(ctx context.Context, actor *Actor, filter ports.BlogFilter, page common.PaginationParams) (*BlogPage, error) {
	filter.IncludePrivate = filter.IncludePrivate && actor.IsAdmin()

	if filter.IncludePrivate {
		blogs, total, err := s.blogs.List(ctx, filter, page)
		if err != nil {
			return nil, apperrors.NewDatabaseError("blog list", err)
		}
		return s.enrichPage(actor, blogs, total, false), nil
	}

	key := cache.BlogListKey(filter.Category, filter.Tag, filter.AuthorID, page)
	return s.cachedPage(ctx, actor, key, func(ctx context.Context) ([]*domain.Blog, int, error) {
		return s.blogs.List(ctx, filter, page)
	})
}

// ListLatest returns the newest public posts strip.
func (s *BlogService) ListLatest(ctx context.Context, actor *Actor, limit int) (*BlogPage, error) {
	return s.cachedPage(ctx, actor, cache.LatestBlogsKey(limit), func(ctx context.Context) ([]*domain.Blog, int, error) {
		blogs, err := s.blogs.ListLatest(ctx, limit)
		return blogs, len(blogs), err
	})
}

// Home returns the home page blog selection.
func (s *BlogService) Home(ctx context.Context, actor *Actor, limit int) (*BlogPage, error) {
	return s.cachedPage(ctx, actor, cache.HomeBlogsKey(limit), func(ctx context.Context) ([]*domain.Blog, int, error) {
		blogs, err := s.blogs.ListLatest(ctx, limit)
		return blogs, len(blogs), err
	})
}

// ListRelated returns public posts sharing a category or tag with the
// given post. The strip is keyed by the base post's ID and the requested
// size, so a larger request never replays a smaller cached strip.
func (s *BlogService) ListRelated(ctx context.Context, actor *Actor, id string, limit int) (*BlogPage, error) {
	base, err := s.loadBlog(ctx, cache.BlogKey(id), func(ctx context.Context) (*domain.Blog, error) {
		return s.blogs.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if !base.CanBeViewedBy(actor.UserID(), actor.IsAdmin()) {
		return nil, apperrors.NewNotFoundError("blog")
	}

	return s.cachedPage(ctx, actor, cache.RelatedBlogsKey(id, limit), func(ctx context.Context) ([]*domain.Blog, int, error) {
		blogs, err := s.blogs.ListRelated(ctx, base, limit)
		return blogs, len(blogs), err
	})
}

// Search returns a page of public posts matching the query.
func (s *BlogService) Search(ctx context.Context, actor *Actor, query string, page common.PaginationParams) (*BlogPage, error) {
	return s.cachedPage(ctx, actor, cache.SearchKey(query, page), func(ctx context.Context) ([]*domain.Blog, int, error) {
		return s.blogs.Search(ctx, query, page)
	})
}

// Update modifies a post. Only the author or an admin may write; a title
// change re-derives the slug, and the invalidation event carries the old
// slug so the entry cached under it is purged too.
func (s *BlogService) Update(ctx context.Context, actor *Actor, id string, in UpdateBlogInput) (*domain.BlogView, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("blog")
		}
		return nil, apperrors.NewDatabaseError("blog get", err)
	}
	if err := s.requireOwner(actor, blog.Author.ID); err != nil {
		return nil, err
	}

	oldSlug := blog.Slug
	if in.Title != nil && *in.Title != blog.Title {
		blog.Title = *in.Title
		newSlug, err := uniqueSlug(ctx, blog.Title, s.blogs.SlugExists)
		if err != nil {
			return nil, apperrors.NewDatabaseError("blog slug probe", err)
		}
		blog.Slug = newSlug
	}
	if in.Content != nil {
		blog.Content = *in.Content
	}
	if in.Excerpt != nil {
		blog.Excerpt = *in.Excerpt
	}
	if in.Category != nil {
		blog.Category = *in.Category
	}
	if in.Tags != nil {
		blog.Tags = *in.Tags
	}
	if in.Private != nil {
		blog.Private = *in.Private
	}
	blog.UpdatedAt = time.Now().UTC()

	if err := s.blogs.Update(ctx, blog); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("blog")
		}
		return nil, apperrors.NewDatabaseError("blog update", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationBlogUpdated,
		ID:       blog.ID,
		Slug:     blog.Slug,
		OldSlug:  oldSlug,
	})
	return domain.NewBlogView(blog, actor.UserID()), nil
}

// Delete removes a post and its full comment thread.
func (s *BlogService) Delete(ctx context.Context, actor *Actor, id string) error {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperrors.NewNotFoundError("blog")
		}
		return apperrors.NewDatabaseError("blog get", err)
	}
	if err := s.requireOwner(actor, blog.Author.ID); err != nil {
		return err
	}

	comments, err := s.comments.ListByBlog(ctx, id)
	if err != nil {
		return apperrors.NewDatabaseError("comment list", err)
	}
	if len(comments) > 0 {
		ids := make([]string, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
		}
		if err := s.comments.DeleteMany(ctx, id, ids); err != nil {
			return apperrors.NewDatabaseError("comment delete", err)
		}
	}

	if err := s.blogs.Delete(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperrors.NewNotFoundError("blog")
		}
		return apperrors.NewDatabaseError("blog delete", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationBlogDeleted,
		ID:       blog.ID,
		Slug:     blog.Slug,
	})

	s.logger.Info("blog deleted",
		zap.String("blogID", id),
		zap.Int("commentsRemoved", len(comments)),
	)
	return nil
}

// ToggleLike flips the caller's like on a post and reports the new state.
// The read goes straight to the store: toggling against a stale cached
// like set would make the toggle non-deterministic.
func (s *BlogService) ToggleLike(ctx context.Context, actor *Actor, id string) (*domain.BlogView, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("blog")
		}
		return nil, apperrors.NewDatabaseError("blog get", err)
	}
	if !blog.CanBeViewedBy(actor.UserID(), actor.IsAdmin()) {
		return nil, apperrors.NewForbiddenError("this post is private")
	}

	liked := !blog.IsLikedBy(actor.ID)
	if err := s.blogs.SetLike(ctx, id, actor.ID, liked); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("blog")
		}
		return nil, apperrors.NewDatabaseError("blog like", err)
	}

	if liked {
		blog.LikedBy = append(blog.LikedBy, actor.ID)
	} else {
		kept := blog.LikedBy[:0]
		for _, uid := range blog.LikedBy {
			if uid != actor.ID {
				kept = append(kept, uid)
			}
		}
		blog.LikedBy = kept
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationBlogLikeToggled,
		ID:       blog.ID,
		Slug:     blog.Slug,
	})
	return domain.NewBlogView(blog, actor.UserID()), nil
}

// cachedPage is the list-shaped read-through: the viewer-agnostic page is
// cached once and enriched per viewer on the way out.
func (s *BlogService) cachedPage(ctx context.Context, actor *Actor, key string, load func(context.Context) ([]*domain.Blog, int, error)) (*BlogPage, error) {
	var cached cachedBlogPage
	if s.codec.Get(ctx, key, &cached) {
		return s.enrichPage(actor, cached.Blogs, cached.Total, true), nil
	}

	blogs, total, err := load(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("blog list", err)
	}
	if blogs == nil {
		blogs = []*domain.Blog{}
	}

	s.codec.Put(ctx, key, cachedBlogPage{Blogs: blogs, Total: total}, s.codec.TTL().List)
	return s.enrichPage(actor, blogs, total, false), nil
}

func (s *BlogService) enrichPage(actor *Actor, blogs []*domain.Blog, total int, cached bool) *BlogPage {
	views := make([]*domain.BlogView, len(blogs))
	for i, b := range blogs {
		views[i] = domain.NewBlogView(b, actor.UserID())
	}
	return &BlogPage{Blogs: views, Total: total, Cached: cached}
}

func (s *BlogService) requireOwner(actor *Actor, ownerID string) error {
	if actor == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if actor.ID != ownerID && !actor.IsAdmin() {
		return apperrors.NewForbiddenError("only the author or an admin may do this")
	}
	return nil
}
