package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPatterns_MappingIsExhaustive(t *testing.T) {
	ev := Event{ID: "b1", Slug: "hello-world", OldSlug: "hello", BlogID: "b1"}

	tests := []struct {
		mutation Mutation
		want     []string
	}{
		{
			mutation: MutationBlogCreated,
			want:     []string{"blogs:list:*", "search:*", "home:blogs:*"},
		},
		{
			mutation: MutationBlogUpdated,
			want: []string{
				"blog:b1", "slug:hello-world", "slug:hello",
				"relatedBlogs:b1", "latestBlogs:*", "blogs:list:*", "search:*", "home:blogs:*",
			},
		},
		{
			mutation: MutationBlogDeleted,
			want: []string{
				"blog:b1", "slug:hello-world", "slug:hello",
				"relatedBlogs:b1", "comments:b1",
				"latestBlogs:*", "blogs:list:*", "search:*", "home:blogs:*", "analytics:*",
			},
		},
		{
			mutation: MutationBlogLikeToggled,
			want:     []string{"blog:b1", "slug:hello-world", "slug:hello"},
		},
		{
			mutation: MutationCommentChanged,
			want:     []string{"comments:b1", "blog:b1", "home:blogs:*"},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.mutation), func(t *testing.T) {
			ev := ev
			ev.Mutation = tt.mutation
			assert.ElementsMatch(t, tt.want, Patterns(ev))
		})
	}
}

func TestPatterns_ProductRenamePurgesBothSlugs(t *testing.T) {
	got := Patterns(Event{
		Mutation: MutationProductChanged,
		ID:       "p1",
		Slug:     "new-name",
		OldSlug:  "old-name",
	})
	assert.ElementsMatch(t, []string{"products:*", "product:new-name", "product:old-name"}, got)

	// No rename: single slug entry, no duplicate.
	got = Patterns(Event{Mutation: MutationProductChanged, ID: "p1", Slug: "same"})
	assert.ElementsMatch(t, []string{"products:*", "product:same"}, got)
}

func TestPatterns_UserChange(t *testing.T) {
	got := Patterns(Event{Mutation: MutationUserChanged, ID: "u1"})
	assert.ElementsMatch(t, []string{"user:u1", "users:list:*"}, got)
}

func TestPatterns_UnknownMutation(t *testing.T) {
	assert.Nil(t, Patterns(Event{Mutation: Mutation("bogus")}))
}

func TestInvalidator_PurgesDeclaredSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()
	inv := NewInvalidator(store, zap.NewNop(), nil)

	seed := []string{
		"blog:b1", "slug:hello-world",
		"search:aaaa", "search:bbbb",
		"blogs:list:cccc", "latestBlogs:5", "home:blogs:6",
		"blog:other", "product:widget",
	}
	for _, k := range seed {
		require.NoError(t, store.Set(ctx, k, []byte("v"), time.Minute))
	}

	inv.Invalidate(ctx, Event{Mutation: MutationBlogUpdated, ID: "b1", Slug: "hello-world"})

	for _, gone := range []string{"blog:b1", "slug:hello-world", "search:aaaa", "search:bbbb", "blogs:list:cccc", "latestBlogs:5", "home:blogs:6"} {
		_, err := store.Get(ctx, gone)
		assert.ErrorIs(t, err, ErrNotFound, "expected %s purged", gone)
	}
	for _, kept := range []string{"blog:other", "product:widget"} {
		_, err := store.Get(ctx, kept)
		assert.NoError(t, err, "expected %s untouched", kept)
	}
}

func TestInvalidator_SwallowsBackendFailure(t *testing.T) {
	inv := NewInvalidator(failingStore{}, zap.NewNop(), nil)
	// Must not panic or propagate: the mutating request already committed.
	inv.Invalidate(context.Background(), Event{Mutation: MutationBlogCreated, ID: "b1"})
}
