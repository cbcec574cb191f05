package cache

import (
	"context"
	"strings"

	"storyfront-backend/pkg/observability"

	"go.uber.org/zap"
)

// Mutation identifies a write that can make cached content stale.
type Mutation string

const (
	MutationBlogCreated     Mutation = "blog_created"
	MutationBlogUpdated     Mutation = "blog_updated"
	MutationBlogDeleted     Mutation = "blog_deleted"
	MutationBlogLikeToggled Mutation = "blog_like_toggled"
	MutationCommentChanged  Mutation = "comment_changed"
	MutationProductChanged  Mutation = "product_changed"
	MutationUserChanged     Mutation = "user_changed"
)

// Event describes one mutation for the router. ID and Slug address the
// touched entity; OldSlug is set when an update renamed it, so the entry
// cached under the previous slug is purged too.
type Event struct {
	Mutation Mutation
	ID       string
	Slug     string
	OldSlug  string
	// BlogID is set for comment mutations: the comment tree and the post's
	// cached comment count both hang off the parent post.
	BlogID string
}

// dependencies is the declared mutation -> key-pattern map. Each mutation's
// stale set is derived from this single table instead of being maintained
// by hand at every call site, so adding an endpoint cannot silently forget
// a pattern. A mutation missing from this table invalidates nothing, which
// is why the router refuses unknown mutations loudly in Invalidate.
var dependencies = map[Mutation]func(Event) []string{
	MutationBlogCreated: func(Event) []string {
		return []string{PatternBlogLists, PatternSearch, PatternHome}
	},
	MutationBlogUpdated: func(ev Event) []string {
		return append(blogEntryPatterns(ev),
			RelatedBlogsPattern(ev.ID), PatternLatest, PatternBlogLists, PatternSearch, PatternHome)
	},
	MutationBlogDeleted: func(ev Event) []string {
		return append(blogEntryPatterns(ev),
			RelatedBlogsPattern(ev.ID), CommentsKey(ev.ID),
			PatternLatest, PatternBlogLists, PatternSearch, PatternHome, PatternAnalytics)
	},
	MutationBlogLikeToggled: func(ev Event) []string {
		return blogEntryPatterns(ev)
	},
	MutationCommentChanged: func(ev Event) []string {
		return []string{CommentsKey(ev.BlogID), BlogKey(ev.BlogID), PatternHome}
	},
	MutationProductChanged: func(ev Event) []string {
		patterns := []string{PatternProducts}
		if ev.Slug != "" {
			patterns = append(patterns, ProductKey(ev.Slug))
		}
		if ev.OldSlug != "" && ev.OldSlug != ev.Slug {
			patterns = append(patterns, ProductKey(ev.OldSlug))
		}
		return patterns
	},
	MutationUserChanged: func(ev Event) []string {
		return []string{UserKey(ev.ID), PatternUserLists}
	},
}

func blogEntryPatterns(ev Event) []string {
	patterns := []string{BlogKey(ev.ID)}
	if ev.Slug != "" {
		patterns = append(patterns, BlogSlugKey(ev.Slug))
	}
	if ev.OldSlug != "" && ev.OldSlug != ev.Slug {
		patterns = append(patterns, BlogSlugKey(ev.OldSlug))
	}
	return patterns
}

// Invalidator purges the cache entries a mutation made stale. It must be
// called strictly after the document-store write commits: purging before
// the write lands would let a concurrent reader repopulate the cache with
// the pre-write value for a full TTL window.
type Invalidator struct {
	store   Store
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewInvalidator creates an invalidation router over the given store.
func NewInvalidator(store Store, logger *zap.Logger, metrics *observability.Metrics) *Invalidator {
	return &Invalidator{store: store, logger: logger, metrics: metrics}
}

// Invalidate purges every key and pattern the event's mutation depends on.
// It runs synchronously inside the mutating request but never fails it: a
// dead cache backend costs a stale window bounded by TTL, not a 5xx.
func (inv *Invalidator) Invalidate(ctx context.Context, ev Event) {
	resolve, ok := dependencies[ev.Mutation]
	if !ok {
		inv.logger.Error("no invalidation mapping declared for mutation",
			zap.String("mutation", string(ev.Mutation)))
		return
	}

	inv.metrics.Invalidation(string(ev.Mutation))
	for _, pattern := range resolve(ev) {
		var err error
		if strings.ContainsAny(pattern, "*?[") {
			err = inv.store.DeletePattern(ctx, pattern)
		} else {
			err = inv.store.Delete(ctx, pattern)
		}
		if err != nil {
			inv.metrics.CacheError("invalidate")
			inv.logger.Warn("cache invalidation failed, accepting stale window",
				zap.String("mutation", string(ev.Mutation)),
				zap.String("pattern", pattern),
				zap.Error(err))
		}
	}
}

// Patterns returns the stale set the router would purge for an event.
// Exposed for tests asserting the mapping stays exhaustive.
func Patterns(ev Event) []string {
	resolve, ok := dependencies[ev.Mutation]
	if !ok {
		return nil
	}
	return resolve(ev)
}
