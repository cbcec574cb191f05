package dynamodb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"storyfront-backend/pkg/common"
)

// Entity type discriminators stored on every item.
const (
	entityTypeBlog     = "BLOG"
	entityTypeComment  = "COMMENT"
	entityTypeProduct  = "PRODUCT"
	entityTypeUser     = "USER"
	entityTypeAddress  = "ADDRESS"
	entityTypeCategory = "CATEGORY"
	entityTypeTag      = "TAG"
	entityTypeCart     = "CART"
	entityTypeOrder    = "ORDER"
)

const skMetadata = "METADATA"

// typePartition is the GSI2 partition holding all items of one entity type.
func typePartition(entityType string) string {
	return fmt.Sprintf("TYPE#%s", entityType)
}

// createdSortKey orders GSI2 newest-first. RFC3339 at second precision is
// lexicographically sortable; the ID suffix breaks ties.
func createdSortKey(t time.Time, id string) string {
	return fmt.Sprintf("%s#%s", t.UTC().Format(time.RFC3339), id)
}

// isConditionalCheckFailed reports whether a write lost its condition.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// pageSlice applies page/page_size to an already-sorted result set. Query
// partitions here are small enough that counting requires the full set
// anyway, so slicing in memory costs nothing extra.
func pageSlice[T any](items []T, page common.PaginationParams) []T {
	offset := page.CalculateOffset()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + page.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// searchText builds the lowercased haystack stored alongside a blog so the
// search filter can run case-insensitive contains() server side.
func searchText(parts ...string) string {
	return strings.ToLower(strings.Join(parts, " "))
}
