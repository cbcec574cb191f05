package domain

import "time"

// AuthorSummary is the denormalized author projection embedded in cached
// blog payloads so a cache hit never needs a second user lookup.
type AuthorSummary struct {
	ID   string `json:"id" dynamodbav:"ID"`
	Name string `json:"name" dynamodbav:"Name"`
}

// Blog is the canonical blog post record. The cached projection is this
// struct serialized as-is: it carries no viewer-specific state, so the same
// payload can be served to every reader. Viewer fields (likedByMe) are
// derived per request from LikedBy.
type Blog struct {
	ID           string        `json:"id" dynamodbav:"BlogID"`
	Title        string        `json:"title" dynamodbav:"Title"`
	Slug         string        `json:"slug" dynamodbav:"Slug"`
	Content      string        `json:"content" dynamodbav:"Content"`
	Excerpt      string        `json:"excerpt,omitempty" dynamodbav:"Excerpt,omitempty"`
	Author       AuthorSummary `json:"author" dynamodbav:"Author"`
	Category     string        `json:"category,omitempty" dynamodbav:"Category,omitempty"`
	Tags         []string      `json:"tags,omitempty" dynamodbav:"Tags,omitempty"`
	Private      bool          `json:"private" dynamodbav:"Private"`
	ViewCount    int64         `json:"viewCount" dynamodbav:"ViewCount"`
	LikedBy      []string      `json:"likedBy,omitempty" dynamodbav:"LikedBy,omitempty"`
	CommentCount int           `json:"commentCount" dynamodbav:"CommentCount"`
	CreatedAt    time.Time     `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt    time.Time     `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// LikeCount returns the number of distinct users that liked the post.
func (b *Blog) LikeCount() int {
	return len(b.LikedBy)
}

// IsLikedBy reports whether the given user has liked the post.
func (b *Blog) IsLikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range b.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// CanBeViewedBy applies the visibility rule for private posts: only the
// author and admins may read them. Public posts are visible to everyone,
// including anonymous viewers.
func (b *Blog) CanBeViewedBy(viewerID string, viewerIsAdmin bool) bool {
	if !b.Private {
		return true
	}
	return viewerIsAdmin || (viewerID != "" && viewerID == b.Author.ID)
}

// BlogView is the viewer-enriched response shape. LikedByMe is computed
// fresh on every request and is never part of the cached payload.
type BlogView struct {
	Blog
	LikeCount int  `json:"likeCount"`
	LikedByMe bool `json:"likedByMe"`
}

// NewBlogView merges viewer-specific fields into a blog projection.
func NewBlogView(b *Blog, viewerID string) *BlogView {
	return &BlogView{
		Blog:      *b,
		LikeCount: b.LikeCount(),
		LikedByMe: b.IsLikedBy(viewerID),
	}
}
