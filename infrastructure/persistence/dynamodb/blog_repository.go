package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"storyfront-backend/application/ports"
	"storyfront-backend/domain"
	"storyfront-backend/pkg/common"
)

// BlogRepository implements ports.BlogRepository on the single table.
type BlogRepository struct {
	client    *awsdynamodb.Client
	tableName string
	slugIndex string
	typeIndex string
	logger    *zap.Logger
}

// NewBlogRepository creates a new BlogRepository.
func NewBlogRepository(client *awsdynamodb.Client, tableName, slugIndex, typeIndex string, logger *zap.Logger) ports.BlogRepository {
	return &BlogRepository{
		client:    client,
		tableName: tableName,
		slugIndex: slugIndex,
		typeIndex: typeIndex,
		logger:    logger,
	}
}

// blogItem is the DynamoDB item shape for a blog post. LikedBy shadows the
// embedded field so it is stored as a string set, which lets SetLike use
// ADD/DELETE instead of a read-modify-write on the full record.
type blogItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"`
	GSI2SK     string `dynamodbav:"GSI2SK"`
	EntityType string `dynamodbav:"EntityType"`
	SearchText string `dynamodbav:"SearchText"`
	domain.Blog
	LikedBy []string `dynamodbav:"LikedBy,stringset,omitempty"`
}

func blogPK(id string) string {
	return fmt.Sprintf("BLOG#%s", id)
}

func blogSlugPK(slug string) string {
	return fmt.Sprintf("BLOGSLUG#%s", slug)
}

func newBlogItem(blog *domain.Blog) blogItem {
	return blogItem{
		PK:         blogPK(blog.ID),
		SK:         skMetadata,
		GSI1PK:     blogSlugPK(blog.Slug),
		GSI1SK:     skMetadata,
		GSI2PK:     typePartition(entityTypeBlog),
		GSI2SK:     createdSortKey(blog.CreatedAt, blog.ID),
		EntityType: entityTypeBlog,
		SearchText: searchText(blog.Title, blog.Excerpt, blog.Category, strings.Join(blog.Tags, " ")),
		Blog:       *blog,
		LikedBy:    blog.LikedBy,
	}
}

func (it blogItem) toDomain() *domain.Blog {
	blog := it.Blog
	blog.LikedBy = it.LikedBy
	return &blog
}

// Create persists a new blog post, refusing to overwrite an existing one.
func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	av, err := attributevalue.MarshalMap(newBlogItem(blog))
	if err != nil {
		return fmt.Errorf("failed to marshal blog: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrConflict
		}
		return fmt.Errorf("failed to save blog: %w", err)
	}

	r.logger.Debug("Blog created",
		zap.String("blogID", blog.ID),
		zap.String("slug", blog.Slug),
	)
	return nil
}

// GetByID retrieves a blog post by its ID.
func (r *BlogRepository) GetByID(ctx context.Context, id string) (*domain.Blog, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: blogPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}
	if result.Item == nil {
		return nil, ports.ErrNotFound
	}

	var item blogItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blog: %w", err)
	}
	return item.toDomain(), nil
}

// GetBySlug retrieves a blog post by its slug via GSI1.
func (r *BlogRepository) GetBySlug(ctx context.Context, slug string) (*domain.Blog, error) {
	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.slugIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: blogSlugPK(slug)},
			":sk": &types.AttributeValueMemberS{Value: skMetadata},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query blog by slug: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, ports.ErrNotFound
	}

	var item blogItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blog: %w", err)
	}
	return item.toDomain(), nil
}

// Update replaces the stored record. The slug GSI key moves with the item
// when the slug changed.
func (r *BlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	av, err := attributevalue.MarshalMap(newBlogItem(blog))
	if err != nil {
		return fmt.Errorf("failed to marshal blog: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to update blog: %w", err)
	}
	return nil
}

// Delete removes a blog post.
func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: blogPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	return nil
}

// List returns blog posts newest first, filtered and paginated.
func (r *BlogRepository) List(ctx context.Context, filter ports.BlogFilter, page common.PaginationParams) ([]*domain.Blog, int, error) {
	var conds []expression.ConditionBuilder
	if !filter.IncludePrivate {
		conds = append(conds, expression.Name("Private").Equal(expression.Value(false)))
	}
	if filter.Category != "" {
		conds = append(conds, expression.Name("Category").Equal(expression.Value(filter.Category)))
	}
	if filter.Tag != "" {
		conds = append(conds, expression.Name("Tags").Contains(filter.Tag))
	}
	if filter.AuthorID != "" {
		conds = append(conds, expression.Name("Author.ID").Equal(expression.Value(filter.AuthorID)))
	}

	blogs, err := r.queryType(ctx, conds)
	if err != nil {
		return nil, 0, err
	}
	return pageSlice(blogs, page), len(blogs), nil
}

// ListLatest returns the newest public posts.
func (r *BlogRepository) ListLatest(ctx context.Context, limit int) ([]*domain.Blog, error) {
	blogs, err := r.queryType(ctx, []expression.ConditionBuilder{
		expression.Name("Private").Equal(expression.Value(false)),
	})
	if err != nil {
		return nil, err
	}
	if len(blogs) > limit {
		blogs = blogs[:limit]
	}
	return blogs, nil
}

// ListRelated returns public posts sharing a category or tag with the given
// post, excluding the post itself.
func (r *BlogRepository) ListRelated(ctx context.Context, blog *domain.Blog, limit int) ([]*domain.Blog, error) {
	var overlap []expression.ConditionBuilder
	if blog.Category != "" {
		overlap = append(overlap, expression.Name("Category").Equal(expression.Value(blog.Category)))
	}
	for _, tag := range blog.Tags {
		overlap = append(overlap, expression.Name("Tags").Contains(tag))
	}
	if len(overlap) == 0 {
		return []*domain.Blog{}, nil
	}

	related := overlap[0]
	for _, c := range overlap[1:] {
		related = related.Or(c)
	}

	conds := []expression.ConditionBuilder{
		expression.Name("Private").Equal(expression.Value(false)),
		expression.Name("BlogID").NotEqual(expression.Value(blog.ID)),
		related,
	}

	blogs, err := r.queryType(ctx, conds)
	if err != nil {
		return nil, err
	}
	if len(blogs) > limit {
		blogs = blogs[:limit]
	}
	return blogs, nil
}

// Search matches every query token against the stored lowercase haystack.
// Only public posts are searchable.
func (r *BlogRepository) Search(ctx context.Context, query string, page common.PaginationParams) ([]*domain.Blog, int, error) {
	conds := []expression.ConditionBuilder{
		expression.Name("Private").Equal(expression.Value(false)),
	}
	for _, token := range strings.Fields(strings.ToLower(query)) {
		conds = append(conds, expression.Name("SearchText").Contains(token))
	}

	blogs, err := r.queryType(ctx, conds)
	if err != nil {
		return nil, 0, err
	}
	return pageSlice(blogs, page), len(blogs), nil
}

// SlugExists reports whether any blog post already holds the slug.
func (r *BlogRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.slugIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: blogSlugPK(slug)},
			":sk": &types.AttributeValueMemberS{Value: skMetadata},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return result.Count > 0, nil
}

// IncrementViewCount bumps the view counter atomically.
func (r *BlogRepository) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.client.UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: blogPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		UpdateExpression:    aws.String("ADD ViewCount :one"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

// SetLike adds or removes the user from the like set. Both directions are
// idempotent at the storage level.
func (r *BlogRepository) SetLike(ctx context.Context, blogID, userID string, liked bool) error {
	update := "DELETE LikedBy :u"
	if liked {
		update = "ADD LikedBy :u"
	}

	_, err := r.client.UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: blogPK(blogID)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		UpdateExpression:    aws.String(update),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberSS{Value: []string{userID}},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to set like: %w", err)
	}
	return nil
}

// AdjustCommentCount moves the denormalized comment counter by delta.
func (r *BlogRepository) AdjustCommentCount(ctx context.Context, blogID string, delta int) error {
	_, err := r.client.UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: blogPK(blogID)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		UpdateExpression:    aws.String("ADD CommentCount :delta"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to adjust comment count: %w", err)
	}
	return nil
}

// queryType walks the blog partition of GSI2 newest first, applying the
// given filter conditions server side.
func (r *BlogRepository) queryType(ctx context.Context, conds []expression.ConditionBuilder) ([]*domain.Blog, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI2PK").Equal(expression.Value(typePartition(entityTypeBlog))))
	if len(conds) > 0 {
		filter := conds[0]
		for _, c := range conds[1:] {
			filter = filter.And(c)
		}
		builder = builder.WithFilter(filter)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build blog query: %w", err)
	}

	input := &awsdynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.typeIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}

	var blogs []*domain.Blog
	paginator := awsdynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query blogs: %w", err)
		}
		for _, raw := range page.Items {
			var item blogItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal blog item", zap.Error(err))
				continue
			}
			blogs = append(blogs, item.toDomain())
		}
	}
	return blogs, nil
}
