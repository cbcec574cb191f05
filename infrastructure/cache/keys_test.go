package cache

import (
	"testing"

	"storyfront-backend/pkg/common"

	"github.com/stretchr/testify/assert"
)

func TestKeys_DistinctNamespacesForIDAndSlug(t *testing.T) {
	// The same post cached by id and by slug must live under different
	// keys so both can be purged independently.
	assert.Equal(t, "blog:b1", BlogKey("b1"))
	assert.Equal(t, "slug:hello-world", BlogSlugKey("hello-world"))
	assert.NotEqual(t, BlogKey("x"), BlogSlugKey("x"))
}

func TestKeys_ListKeysStableAndBounded(t *testing.T) {
	page := common.PaginationParams{Page: 2, PageSize: 20, Order: "desc"}

	k1 := BlogListKey("go", "", "", page)
	k2 := BlogListKey("go", "", "", page)
	assert.Equal(t, k1, k2, "same query must produce the same key")

	k3 := BlogListKey("go", "", "", common.PaginationParams{Page: 3, PageSize: 20, Order: "desc"})
	assert.NotEqual(t, k1, k3, "different pages must produce different keys")

	// Hashed keys stay fixed-width however large the filter values get.
	assert.LessOrEqual(t, len(k1), len("blogs:list:")+16)
}

func TestKeys_ProductListSeparatesPriceBounds(t *testing.T) {
	page := common.DefaultPaginationParams()

	unfiltered := ProductListKey("", true, 0, 0, page)
	floored := ProductListKey("", true, 50000, 0, page)
	capped := ProductListKey("", true, 0, 2000, page)

	assert.NotEqual(t, unfiltered, floored, "a price floor must not reuse the unfiltered entry")
	assert.NotEqual(t, unfiltered, capped)
	assert.NotEqual(t, floored, capped)
	assert.Equal(t, floored, ProductListKey("", true, 50000, 0, page))
}

func TestKeys_RelatedStripKeyedByLimit(t *testing.T) {
	assert.Equal(t, "relatedBlogs:b1:6", RelatedBlogsKey("b1", 6))
	assert.NotEqual(t, RelatedBlogsKey("b1", 2), RelatedBlogsKey("b1", 4))

	// The per-post pattern must cover every strip size for that post and
	// no other post's entries.
	assert.Equal(t, "relatedBlogs:b1:*", RelatedBlogsPattern("b1"))
}

func TestKeys_SearchNormalization(t *testing.T) {
	page := common.DefaultPaginationParams()
	assert.Equal(t, SearchKey("Hello World", page), SearchKey("  hello world ", page))
	assert.NotEqual(t, SearchKey("hello", page), SearchKey("world", page))
}

func TestKeys_PatternsCoverTheirNamespaces(t *testing.T) {
	assert.Equal(t, "search:*", PatternSearch)
	assert.Equal(t, "home:blogs:*", PatternHome)
	assert.Equal(t, "latestBlogs:*", PatternLatest)
	assert.Equal(t, "blogs:list:*", PatternBlogLists)
	assert.Equal(t, "products:*", PatternProducts)
	assert.Equal(t, "users:list:*", PatternUserLists)
}
