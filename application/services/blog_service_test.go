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

var (
	author = &Actor{ID: "user-1", Name: "Ada"}
	reader = &Actor{ID: "user-2", Name: "Grace"}
	admin  = &Actor{ID: "admin-1", Name: "Root", Admin: true}
)

func TestCreateDerivesUniqueSlugs(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	first, err := svc.Create(ctx, author, CreateBlogInput{Title: "Hello World", Content: "a"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", first.Slug)

	second, err := svc.Create(ctx, author, CreateBlogInput{Title: "Hello World", Content: "b"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", second.Slug)

	third, err := svc.Create(ctx, author, CreateBlogInput{Title: "Hello World", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", third.Slug)
}

func TestCreateRequiresAuthentication(t *testing.T) {
	env := newTestEnv()
	_, err := env.blogService().Create(context.Background(), nil, CreateBlogInput{Title: "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestGetByIDServesSecondReadFromCache(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	created, err := svc.Create(ctx, author, CreateBlogInput{Title: "Cached Post", Content: "body"})
	require.NoError(t, err)

	env.blogs.Gets = 0
	_, err = svc.GetByID(ctx, reader, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.blogs.Gets, "first read must hit the store")

	_, err = svc.GetByID(ctx, reader, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.blogs.Gets, "second read must come from the cache")
}

func TestNotFoundIsNeverCached(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()

	_, err := svc.GetByID(context.Background(), reader, "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.Equal(t, 0, env.store.Len(), "a 404 must not leave a cache entry behind")
}

func TestPrivatePostAuthorizationHoldsOnCacheHit(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	created, err := svc.Create(ctx, author, CreateBlogInput{Title: "Secret", Content: "x", Private: true})
	require.NoError(t, err)

	// Prime the cache with an authorized read.
	_, err = svc.GetByID(ctx, author, created.ID)
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, nil, created.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized),
		"anonymous read must be refused even on a cache hit")

	_, err = svc.GetByID(ctx, reader, created.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden),
		"non-author read must be refused even on a cache hit")

	_, err = svc.GetByID(ctx, admin, created.ID)
	assert.NoError(t, err, "admins may read private posts")
}

func TestViewCountSkipsAuthorAndAdmin(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	created, err := svc.Create(ctx, author, CreateBlogInput{Title: "Counted", Content: "x"})
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, author, created.ID)
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, admin, created.ID)
	require.NoError(t, err)

	stored, err := env.blogs.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.ViewCount, "author and admin reads are not readership")

	_, err = svc.GetByID(ctx, reader, created.ID)
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, nil, created.ID)
	require.NoError(t, err)

	stored, err = env.blogs.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.ViewCount)
}

func TestUpdateMovesSlugAndPurgesStaleEntries(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	created, err := svc.Create(ctx, author, CreateBlogInput{Title: "Old Title", Content: "x"})
	require.NoError(t, err)

	// Prime both address forms.
	_, err = svc.GetByID(ctx, reader, created.ID)
	require.NoError(t, err)
	_, err = svc.GetBySlug(ctx, reader, "old-title")
	require.NoError(t, err)

	newTitle := "New Title"
	updated, err := svc.Update(ctx, author, created.ID, UpdateBlogInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "new-title", updated.Slug)

	// The next read by ID must observe the new title, not the cached one.
	got, err := svc.GetByID(ctx, reader, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Title", got.Title)

	// The old slug no longer resolves; the stale cache entry is gone too.
	_, err = svc.GetBySlug(ctx, reader, "old-title")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	got, err = svc.GetBySlug(ctx, reader, "new-title")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestOnlyAuthorOrAdminMayWrite(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	created, err := svc.Create(ctx, author, CreateBlogInput{Title: "Owned", Content: "x"})
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.Update(ctx, reader, created.ID, UpdateBlogInput{Title: &title})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	err = svc.Delete(ctx, reader, created.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	err = svc.Delete(ctx, admin, created.ID)
	assert.NoError(t, err)
}

func TestToggleLikeKeepsViewerFieldsPerViewer(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	created, err := svc.Create(ctx, author, CreateBlogInput{Title: "Likeable", Content: "x"})
	require.NoError(t, err)

	view, err := svc.ToggleLike(ctx, reader, created.ID)
	require.NoError(t, err)
	assert.True(t, view.LikedByMe)
	assert.Equal(t, 1, view.LikeCount)

	// The same cached payload serves both viewers with diverging fields.
	asLiker, err := svc.GetByID(ctx, reader, created.ID)
	require.NoError(t, err)
	assert.True(t, asLiker.LikedByMe)
	assert.Equal(t, 1, asLiker.LikeCount)

	asOther, err := svc.GetByID(ctx, author, created.ID)
	require.NoError(t, err)
	assert.False(t, asOther.LikedByMe)
	assert.Equal(t, 1, asOther.LikeCount)

	// Toggling again unlikes.
	view, err = svc.ToggleLike(ctx, reader, created.ID)
	require.NoError(t, err)
	assert.False(t, view.LikedByMe)
	assert.Equal(t, 0, view.LikeCount)
}

func TestListReportsCacheDisposition(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	_, err := svc.Create(ctx, author, CreateBlogInput{Title: "One", Content: "x"})
	require.NoError(t, err)

	page := common.DefaultPaginationParams()
	env.blogs.Lists = 0

	first, err := svc.List(ctx, nil, ports.BlogFilter{}, page)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, env.blogs.Lists)

	second, err := svc.List(ctx, nil, ports.BlogFilter{}, page)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, env.blogs.Lists, "cached page must not touch the store")
	assert.Equal(t, first.Total, second.Total)
}

func TestCreateInvalidatesListCaches(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	_, err := svc.Create(ctx, author, CreateBlogInput{Title: "First", Content: "x"})
	require.NoError(t, err)

	page := common.DefaultPaginationParams()
	warm, err := svc.List(ctx, nil, ports.BlogFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, 1, warm.Total)

	_, err = svc.Create(ctx, author, CreateBlogInput{Title: "Second", Content: "y"})
	require.NoError(t, err)

	fresh, err := svc.List(ctx, nil, ports.BlogFilter{}, page)
	require.NoError(t, err)
	assert.False(t, fresh.Cached, "creation must purge list pages")
	assert.Equal(t, 2, fresh.Total)
}

func TestDeleteRemovesCommentThread(t *testing.T) {
	env := newTestEnv()
	blogSvc := env.blogService()
	commentSvc := env.commentService()
	ctx := context.Background()

	created, err := blogSvc.Create(ctx, author, CreateBlogInput{Title: "Discussed", Content: "x"})
	require.NoError(t, err)

	top, err := commentSvc.Create(ctx, reader, created.ID, "", "first!")
	require.NoError(t, err)
	_, err = commentSvc.Create(ctx, author, created.ID, top.ID, "thanks")
	require.NoError(t, err)

	require.NoError(t, blogSvc.Delete(ctx, author, created.ID))

	remaining, err := env.comments.ListByBlog(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestSearchCachesNormalizedQueries(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	_, err := svc.Create(ctx, author, CreateBlogInput{Title: "Go Generics Deep Dive", Content: "x"})
	require.NoError(t, err)

	page := common.DefaultPaginationParams()
	first, err := svc.Search(ctx, nil, "generics", page)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, first.Total)

	// Case and surrounding whitespace collapse to the same cache key.
	second, err := svc.Search(ctx, nil, "  GENERICS ", page)
	require.NoError(t, err)
	assert.True(t, second.Cached)
}

func TestRelatedStripSizesCacheIndependently(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	base, err := svc.Create(ctx, author, CreateBlogInput{Title: "Base", Content: "x", Category: "go"})
	require.NoError(t, err)
	for _, title := range []string{"Rel One", "Rel Two", "Rel Three", "Rel Four"} {
		_, err := svc.Create(ctx, author, CreateBlogInput{Title: title, Content: "x", Category: "go"})
		require.NoError(t, err)
	}

	short, err := svc.ListRelated(ctx, nil, base.ID, 2)
	require.NoError(t, err)
	assert.False(t, short.Cached)
	assert.Len(t, short.Blogs, 2)

	// A wider request is a different query and must load the full strip,
	// not replay the two-item entry.
	wide, err := svc.ListRelated(ctx, nil, base.ID, 4)
	require.NoError(t, err)
	assert.False(t, wide.Cached)
	assert.Len(t, wide.Blogs, 4)

	again, err := svc.ListRelated(ctx, nil, base.ID, 2)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Len(t, again.Blogs, 2)
}

func TestPrivatePostsStayOutOfPublicLists(t *testing.T) {
	env := newTestEnv()
	svc := env.blogService()
	ctx := context.Background()

	_, err := svc.Create(ctx, author, CreateBlogInput{Title: "Public", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, author, CreateBlogInput{Title: "Hidden", Content: "x", Private: true})
	require.NoError(t, err)

	page := common.DefaultPaginationParams()
	public, err := svc.List(ctx, nil, ports.BlogFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, 1, public.Total)

	// Asking for private content without the admin role is ignored.
	sneaky, err := svc.List(ctx, reader, ports.BlogFilter{IncludePrivate: true}, page)
	require.NoError(t, err)
	assert.Equal(t, 1, sneaky.Total)

	all, err := svc.List(ctx, admin, ports.BlogFilter{IncludePrivate: true}, page)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	latest, err := svc.ListLatest(ctx, nil, 10)
	require.NoError(t, err)
	assert.Len(t, latest.Blogs, 1)
}
