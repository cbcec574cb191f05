package cache

import (
	"crypto/md5"
	"fmt"
	"strconv"
	"strings"

	"storyfront-backend/pkg/common"
)

// Key namespaces. Id- and slug-addressed entries live in distinct
// namespaces: both resolve to the same record but are cached independently,
// and a mutation must purge both.
const (
	nsBlog     = "blog"
	nsSlug     = "slug"
	nsComments = "comments"
	nsRelated  = "relatedBlogs"
	nsLatest   = "latestBlogs"
	nsBlogList = "blogs:list"
	nsSearch   = "search"
	nsHome     = "home:blogs"
	nsProduct  = "product"
	nsProducts = "products"
	nsUser     = "user"
	nsUserList = "users:list"
)

// Wildcard patterns purged by the invalidation router.
const (
	PatternSearch    = nsSearch + ":*"
	PatternHome      = nsHome + ":*"
	PatternLatest    = nsLatest + ":*"
	PatternBlogLists = nsBlogList + ":*"
	PatternProducts  = nsProducts + ":*"
	PatternUserLists = nsUserList + ":*"
	PatternAnalytics = "analytics:*"
)

// BlogKey caches a single blog post addressed by ID. TTL class: item.
func BlogKey(id string) string { return nsBlog + ":" + id }

// BlogSlugKey caches a single blog post addressed by slug. TTL class: item.
func BlogSlugKey(slug string) string { return nsSlug + ":" + slug }

// CommentsKey caches the full comment tree of a post. TTL class: list.
func CommentsKey(blogID string) string { return nsComments + ":" + blogID }

// RelatedBlogsKey caches the related-posts strip of a post. The requested
// strip size is part of the key so callers asking for different limits never
// share an entry. TTL class: list.
func RelatedBlogsKey(blogID string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", nsRelated, blogID, limit)
}

// RelatedBlogsPattern matches every cached strip size for one post.
func RelatedBlogsPattern(blogID string) string { return nsRelated + ":" + blogID + ":*" }

// LatestBlogsKey caches the latest-posts strip. TTL class: list.
func LatestBlogsKey(limit int) string { return fmt.Sprintf("%s:%d", nsLatest, limit) }

// HomeBlogsKey caches the home page blog selection. TTL class: list.
func HomeBlogsKey(limit int) string { return fmt.Sprintf("%s:%d", nsHome, limit) }

// BlogListKey caches one page of a filtered blog listing. TTL class: list.
func BlogListKey(category, tag, authorID string, page common.PaginationParams) string {
	return nsBlogList + ":" + queryHash(category, tag, authorID, page.String())
}

// SearchKey caches one page of search results. TTL class: list.
func SearchKey(query string, page common.PaginationParams) string {
	return nsSearch + ":" + queryHash(strings.ToLower(strings.TrimSpace(query)), page.String())
}

// ProductKey caches a single product addressed by slug. TTL class: item.
func ProductKey(slug string) string { return nsProduct + ":" + slug }

// ProductListKey caches one page of a product listing. Every filter
// dimension the repository applies is folded into the hash, price bounds
// included, so differently filtered requests never collide. TTL class: list.
func ProductListKey(category string, activeOnly bool, minPriceCent, maxPriceCent int64, page common.PaginationParams) string {
	return fmt.Sprintf("%s:%s", nsProducts, queryHash(
		category,
		fmt.Sprintf("%t", activeOnly),
		strconv.FormatInt(minPriceCent, 10),
		strconv.FormatInt(maxPriceCent, 10),
		page.String(),
	))
}

// UserKey caches a user identity record. TTL class: user.
func UserKey(id string) string { return nsUser + ":" + id }

// UserListKey caches one page of the admin user listing. TTL class: list.
func UserListKey(page common.PaginationParams) string {
	return nsUserList + ":" + queryHash(page.String())
}

// queryHash collapses arbitrary query parameters into a fixed-width key
// segment so list keys stay bounded regardless of filter contents.
func queryHash(parts ...string) string {
	h := md5.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
