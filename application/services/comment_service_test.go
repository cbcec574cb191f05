package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyfront-backend/domain"
	apperrors "storyfront-backend/pkg/errors"
)

func TestCommentCreateAdjustsCount(t *testing.T) {
	env := newTestEnv()
	blogSvc := env.blogService()
	svc := env.commentService()
	ctx := context.Background()

	blog, err := blogSvc.Create(ctx, author, CreateBlogInput{Title: "Post", Content: "x"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, reader, blog.ID, "", "nice one")
	require.NoError(t, err)
	_, err = svc.Create(ctx, author, blog.ID, "", "thanks")
	require.NoError(t, err)

	stored, err := env.blogs.GetByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CommentCount)
}

func TestCommentRequiresVisiblePost(t *testing.T) {
	env := newTestEnv()
	blogSvc := env.blogService()
	svc := env.commentService()
	ctx := context.Background()

	blog, err := blogSvc.Create(ctx, author, CreateBlogInput{Title: "Secret", Content: "x", Private: true})
	require.NoError(t, err)

	_, err = svc.Create(ctx, reader, blog.ID, "", "let me in")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	_, err = svc.Create(ctx, nil, blog.ID, "", "anon")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestReplyRejectsForeignParent(t *testing.T) {
	env := newTestEnv()
	blogSvc := env.blogService()
	svc := env.commentService()
	ctx := context.Background()

	first, err := blogSvc.Create(ctx, author, CreateBlogInput{Title: "First", Content: "x"})
	require.NoError(t, err)
	second, err := blogSvc.Create(ctx, author, CreateBlogInput{Title: "Second", Content: "x"})
	require.NoError(t, err)

	parent, err := svc.Create(ctx, reader, first.ID, "", "on the first post")
	require.NoError(t, err)

	_, err = svc.Create(ctx, reader, second.ID, parent.ID, "cross-thread reply")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestReplyDepthIsBounded(t *testing.T) {
	env := newTestEnv()
	blogSvc := env.blogService()
	svc := env.commentService()
	ctx := context.Background()

	blog, err := blogSvc.Create(ctx, author, CreateBlogInput{Title: "Deep", Content: "x"})
	require.NoError(t, err)

	parentID := ""
	var last *domain.Comment
	for i := 0; i < domain.MaxCommentDepth; i++ {
		last, err = svc.Create(ctx, reader, blog.ID, parentID, fmt.Sprintf("level %d", i))
		require.NoError(t, err)
		parentID = last.ID
	}

	_, err = svc.Create(ctx, reader, blog.ID, last.ID, "one level too far")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDeleteRemovesSubtreeTransitively(t *testing.T) {
	env := newTestEnv()
	blogSvc := env.blogService()
	svc := env.commentService()
	ctx := context.Background()

	blog, err := blogSvc.Create(ctx, author, CreateBlogInput{Title: "Thread", Content: "x"})
	require.NoError(t, err)

	root, err := svc.Create(ctx, reader, blog.ID, "", "root")
	require.NoError(t, err)
	child, err := svc.Create(ctx, author, blog.ID, root.ID, "child")
	require.NoError(t, err)
	_, err = svc.Create(ctx, reader, blog.ID, child.ID, "grandchild")
	require.NoError(t, err)
	sibling, err := svc.Create(ctx, reader, blog.ID, "", "unrelated")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, reader, root.ID))

	remaining, err := env.comments.ListByBlog(ctx, blog.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, sibling.ID, remaining[0].ID)

	stored, err := env.blogs.GetByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CommentCount)
}

func TestDeleteRequiresOwnerOrAdmin(t *testing.T) {
	env := newTestEnv()
	blogSvc := env.blogService()
	svc := env.commentService()
	ctx := context.Background()

	blog, err := blogSvc.Create(ctx, author, CreateBlogInput{Title: "Post", Content: "x"})
	require.NoError(t, err)
	comment, err := svc.Create(ctx, reader, blog.ID, "", "mine")
	require.NoError(t, err)

	err = svc.Delete(ctx, author, comment.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden),
		"the post author does not own other people's comments")

	assert.NoError(t, svc.Delete(ctx, admin, comment.ID))
}

func TestThreadIsServedFromCacheUntilWrite(t *testing.T) {
	env := newTestEnv()
	blogSvc := env.blogService()
	svc := env.commentService()
	ctx := context.Background()

	blog, err := blogSvc.Create(ctx, author, CreateBlogInput{Title: "Post", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, reader, blog.ID, "", "first")
	require.NoError(t, err)

	cold, err := svc.ListByBlog(ctx, nil, blog.ID)
	require.NoError(t, err)
	assert.False(t, cold.Cached)
	require.Len(t, cold.Comments, 1)

	warm, err := svc.ListByBlog(ctx, nil, blog.ID)
	require.NoError(t, err)
	assert.True(t, warm.Cached)

	_, err = svc.Create(ctx, author, blog.ID, "", "second")
	require.NoError(t, err)

	fresh, err := svc.ListByBlog(ctx, nil, blog.ID)
	require.NoError(t, err)
	assert.False(t, fresh.Cached, "a comment write must purge the thread entry")
	assert.Len(t, fresh.Comments, 2)
}
