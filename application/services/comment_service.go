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
	apperrors "storyfront-backend/pkg/errors"
)

// CommentService manages comment threads. A thread is a parent-pointer
// adjacency: deleting a comment removes its whole subtree, bounded by
// domain.MaxCommentDepth.
type CommentService struct {
	comments    ports.CommentRepository
	blogs       ports.BlogRepository
	codec       *cache.Codec
	invalidator *cache.Invalidator
	logger      *zap.Logger
}

// NewCommentService creates a new CommentService.
func NewCommentService(
	comments ports.CommentRepository,
	blogs ports.BlogRepository,
	codec *cache.Codec,
	invalidator *cache.Invalidator,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		comments:    comments,
		blogs:       blogs,
		codec:       codec,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CommentThread is the full thread of a post plus its cache disposition.
type CommentThread struct {
	Comments []*domain.Comment
	Cached   bool
}

// Create adds a comment or a reply to a post the caller can see.
func (s *CommentService) Create(ctx context.Context, actor *Actor, blogID, parentID, body string) (*domain.Comment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	blog, err := s.blogs.GetByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("blog")
		}
		return nil, apperrors.NewDatabaseError("blog get", err)
	}
	if !blog.CanBeViewedBy(actor.UserID(), actor.IsAdmin()) {
		return nil, apperrors.NewForbiddenError("this post is private")
	}

	if parentID != "" {
		parent, err := s.comments.GetByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil, apperrors.NewNotFoundError("parent comment")
			}
			return nil, apperrors.NewDatabaseError("comment get", err)
		}
		if parent.BlogID != blogID {
			return nil, apperrors.NewValidationError("parent comment belongs to a different post")
		}

		depth, err := s.replyDepth(ctx, blogID, parentID)
		if err != nil {
			return nil, err
		}
		if depth >= domain.MaxCommentDepth {
			return nil, apperrors.NewValidationError("reply nesting too deep")
		}
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		ID:        uuid.New().String(),
		BlogID:    blogID,
		ParentID:  parentID,
		Author:    domain.AuthorSummary{ID: actor.ID, Name: actor.Name},
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.NewDatabaseError("comment create", err)
	}
	if err := s.blogs.AdjustCommentCount(ctx, blogID, 1); err != nil {
		s.logger.Warn("comment count adjust failed",
			zap.String("blogID", blogID), zap.Error(err))
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationCommentChanged,
		ID:       comment.ID,
		BlogID:   blogID,
	})
	return comment, nil
}

// Update edits a comment body. Only the author or an admin may write.
func (s *CommentService) Update(ctx context.Context, actor *Actor, commentID, body string) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("comment")
		}
		return nil, apperrors.NewDatabaseError("comment get", err)
	}
	if err := s.requireCommentOwner(actor, comment); err != nil {
		return nil, err
	}

	comment.Body = body
	comment.UpdatedAt = time.Now().UTC()
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, apperrors.NewDatabaseError("comment update", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationCommentChanged,
		ID:       comment.ID,
		BlogID:   comment.BlogID,
	})
	return comment, nil
}

// Delete removes a comment and every reply under it, transitively.
func (s *CommentService) Delete(ctx context.Context, actor *Actor, commentID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperrors.NewNotFoundError("comment")
		}
		return apperrors.NewDatabaseError("comment get", err)
	}
	if err := s.requireCommentOwner(actor, comment); err != nil {
		return err
	}

	doomed, err := s.subtreeIDs(ctx, comment)
	if err != nil {
		return err
	}

	if err := s.comments.DeleteMany(ctx, comment.BlogID, doomed); err != nil {
		return apperrors.NewDatabaseError("comment delete", err)
	}
	if err := s.blogs.AdjustCommentCount(ctx, comment.BlogID, -len(doomed)); err != nil {
		s.logger.Warn("comment count adjust failed",
			zap.String("blogID", comment.BlogID), zap.Error(err))
	}

	s.invalidator.Invalidate(ctx, cache.Event{
		Mutation: cache.MutationCommentChanged,
		ID:       comment.ID,
		BlogID:   comment.BlogID,
	})

	s.logger.Info("comment subtree deleted",
		zap.String("commentID", commentID),
		zap.Int("removed", len(doomed)),
	)
	return nil
}

// ListByBlog serves the full thread of a post through the cache.
func (s *CommentService) ListByBlog(ctx context.Context, actor *Actor, blogID string) (*CommentThread, error) {
	blog, err := s.blogs.GetByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("blog")
		}
		return nil, apperrors.NewDatabaseError("blog get", err)
	}
	if !blog.CanBeViewedBy(actor.UserID(), actor.IsAdmin()) {
		return nil, apperrors.NewForbiddenError("this post is private")
	}

	key := cache.CommentsKey(blogID)
	var cached []*domain.Comment
	if s.codec.Get(ctx, key, &cached) {
		return &CommentThread{Comments: cached, Cached: true}, nil
	}

	comments, err := s.comments.ListByBlog(ctx, blogID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("comment list", err)
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}

	s.codec.Put(ctx, key, comments, s.codec.TTL().List)
	return &CommentThread{Comments: comments, Cached: false}, nil
}

// subtreeIDs collects the comment and all its descendants breadth-first,
// stopping at the depth bound.
func (s *CommentService) subtreeIDs(ctx context.Context, root *domain.Comment) ([]string, error) {
	all, err := s.comments.ListByBlog(ctx, root.BlogID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("comment list", err)
	}

	children := make(map[string][]string, len(all))
	for _, c := range all {
		if c.ParentID != "" {
			children[c.ParentID] = append(children[c.ParentID], c.ID)
		}
	}

	ids := []string{root.ID}
	frontier := []string{root.ID}
	for depth := 0; depth < domain.MaxCommentDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			next = append(next, children[id]...)
		}
		ids = append(ids, next...)
		frontier = next
	}
	return ids, nil
}

// replyDepth counts the chain of parents above the given comment.
func (s *CommentService) replyDepth(ctx context.Context, blogID, commentID string) (int, error) {
	all, err := s.comments.ListByBlog(ctx, blogID)
	if err != nil {
		return 0, apperrors.NewDatabaseError("comment list", err)
	}

	byID := make(map[string]*domain.Comment, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	depth := 1
	cur := byID[commentID]
	for cur != nil && cur.ParentID != "" && depth <= domain.MaxCommentDepth {
		depth++
		cur = byID[cur.ParentID]
	}
	return depth, nil
}

func (s *CommentService) requireCommentOwner(actor *Actor, comment *domain.Comment) error {
	if actor == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if actor.ID != comment.Author.ID && !actor.IsAdmin() {
		return apperrors.NewForbiddenError("only the author or an admin may do this")
	}
	return nil
}
