package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"storyfront-backend/application/ports"
	"storyfront-backend/domain"
)

// batchWriteMax is the DynamoDB BatchWriteItem request cap.
const batchWriteMax = 25

// CommentRepository implements ports.CommentRepository. Comments live in
// their blog's partition so a single query loads a full thread.
type CommentRepository struct {
	client    *awsdynamodb.Client
	tableName string
	slugIndex string
	logger    *zap.Logger
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(client *awsdynamodb.Client, tableName, slugIndex string, logger *zap.Logger) ports.CommentRepository {
	return &CommentRepository{
		client:    client,
		tableName: tableName,
		slugIndex: slugIndex,
		logger:    logger,
	}
}

type commentItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	domain.Comment
}

func commentSK(id string) string {
	return fmt.Sprintf("COMMENT#%s", id)
}

func newCommentItem(c *domain.Comment) commentItem {
	return commentItem{
		PK:         blogPK(c.BlogID),
		SK:         commentSK(c.ID),
		GSI1PK:     fmt.Sprintf("COMMENT#%s", c.ID),
		GSI1SK:     skMetadata,
		EntityType: entityTypeComment,
		Comment:    *c,
	}
}

// Create persists a new comment.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	av, err := attributevalue.MarshalMap(newCommentItem(comment))
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
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
		return fmt.Errorf("failed to save comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by its ID via GSI1.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.slugIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("COMMENT#%s", id)},
			":sk": &types.AttributeValueMemberS{Value: skMetadata},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query comment: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, ports.ErrNotFound
	}

	var item commentItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comment: %w", err)
	}
	comment := item.Comment
	return &comment, nil
}

// Update replaces the stored comment.
func (r *CommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	av, err := attributevalue.MarshalMap(newCommentItem(comment))
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
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
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

// ListByBlog returns the full comment thread of a post, oldest first.
func (r *CommentRepository) ListByBlog(ctx context.Context, blogID string) ([]*domain.Comment, error) {
	input := &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: blogPK(blogID)},
			":sk": &types.AttributeValueMemberS{Value: "COMMENT#"},
		},
	}

	var comments []*domain.Comment
	paginator := awsdynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query comments: %w", err)
		}
		for _, raw := range page.Items {
			var item commentItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal comment item", zap.Error(err))
				continue
			}
			comment := item.Comment
			comments = append(comments, &comment)
		}
	}

	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// ListReplies returns direct children of the given comment.
func (r *CommentRepository) ListReplies(ctx context.Context, blogID, parentID string) ([]*domain.Comment, error) {
	all, err := r.ListByBlog(ctx, blogID)
	if err != nil {
		return nil, err
	}

	replies := make([]*domain.Comment, 0)
	for _, c := range all {
		if c.ParentID == parentID {
			replies = append(replies, c)
		}
	}
	return replies, nil
}

// DeleteMany removes a batch of comments in BatchWriteItem chunks.
func (r *CommentRepository) DeleteMany(ctx context.Context, blogID string, ids []string) error {
	for start := 0; start < len(ids); start += batchWriteMax {
		end := start + batchWriteMax
		if end > len(ids) {
			end = len(ids)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, id := range ids[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: blogPK(blogID)},
						"SK": &types.AttributeValueMemberS{Value: commentSK(id)},
					},
				},
			})
		}

		out, err := r.client.BatchWriteItem(ctx, &awsdynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.tableName: requests,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}

		// Retry once on unprocessed keys before giving up.
		if pending := out.UnprocessedItems[r.tableName]; len(pending) > 0 {
			retry, err := r.client.BatchWriteItem(ctx, &awsdynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{r.tableName: pending},
			})
			if err != nil {
				return fmt.Errorf("failed to delete comments: %w", err)
			}
			if len(retry.UnprocessedItems[r.tableName]) > 0 {
				return fmt.Errorf("failed to delete %d comments after retry", len(retry.UnprocessedItems[r.tableName]))
			}
		}
	}
	return nil
}
