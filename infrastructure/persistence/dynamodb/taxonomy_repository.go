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

// TaxonomyRepository implements ports.TaxonomyRepository. Categories and
// tags each share a fixed partition; both sets are tiny so listing is a
// single-partition query.
type TaxonomyRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewTaxonomyRepository creates a new TaxonomyRepository.
func NewTaxonomyRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger) ports.TaxonomyRepository {
	return &TaxonomyRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

const (
	categoryPartition = "TAXONOMY#CATEGORY"
	tagPartition      = "TAXONOMY#TAG"
)

type categoryItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	domain.Category
}

type tagItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	domain.Tag
}

// CreateCategory persists a new category.
func (r *TaxonomyRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	av, err := attributevalue.MarshalMap(categoryItem{
		PK:         categoryPartition,
		SK:         fmt.Sprintf("CATEGORY#%s", category.ID),
		EntityType: entityTypeCategory,
		Category:   *category,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal category: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrConflict
		}
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (r *TaxonomyRepository) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: categoryPartition},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CATEGORY#%s", id)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if result.Item == nil {
		return nil, ports.ErrNotFound
	}

	var item categoryItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category: %w", err)
	}
	category := item.Category
	return &category, nil
}

// UpdateCategory replaces a stored category.
func (r *TaxonomyRepository) UpdateCategory(ctx context.Context, category *domain.Category) error {
	av, err := attributevalue.MarshalMap(categoryItem{
		PK:         categoryPartition,
		SK:         fmt.Sprintf("CATEGORY#%s", category.ID),
		EntityType: entityTypeCategory,
		Category:   *category,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal category: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category.
func (r *TaxonomyRepository) DeleteCategory(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: categoryPartition},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CATEGORY#%s", id)},
		},
		ConditionExpression: aws.String("attribute_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// ListCategories returns all categories sorted by name.
func (r *TaxonomyRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: categoryPartition},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}

	categories := make([]*domain.Category, 0, len(result.Items))
	for _, raw := range result.Items {
		var item categoryItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal category item", zap.Error(err))
			continue
		}
		category := item.Category
		categories = append(categories, &category)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

// CreateTag persists a new tag.
func (r *TaxonomyRepository) CreateTag(ctx context.Context, tag *domain.Tag) error {
	av, err := attributevalue.MarshalMap(tagItem{
		PK:         tagPartition,
		SK:         fmt.Sprintf("TAG#%s", tag.ID),
		EntityType: entityTypeTag,
		Tag:        *tag,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal tag: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrConflict
		}
		return fmt.Errorf("failed to save tag: %w", err)
	}
	return nil
}

// GetTag retrieves a tag by ID.
func (r *TaxonomyRepository) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: tagPartition},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("TAG#%s", id)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	if result.Item == nil {
		return nil, ports.ErrNotFound
	}

	var item tagItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tag: %w", err)
	}
	tag := item.Tag
	return &tag, nil
}

// DeleteTag removes a tag.
func (r *TaxonomyRepository) DeleteTag(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: tagPartition},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("TAG#%s", id)},
		},
		ConditionExpression: aws.String("attribute_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return nil
}

// ListTags returns all tags sorted by name.
func (r *TaxonomyRepository) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: tagPartition},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}

	tags := make([]*domain.Tag, 0, len(result.Items))
	for _, raw := range result.Items {
		var item tagItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal tag item", zap.Error(err))
			continue
		}
		tag := item.Tag
		tags = append(tags, &tag)
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})
	return tags, nil
}
