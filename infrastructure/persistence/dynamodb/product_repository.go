package dynamodb

import (
	"context"
	"fmt"

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

// ProductRepository implements ports.ProductRepository on the single table.
type ProductRepository struct {
	client    *awsdynamodb.Client
	tableName string
	slugIndex string
	typeIndex string
	logger    *zap.Logger
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(client *awsdynamodb.Client, tableName, slugIndex, typeIndex string, logger *zap.Logger) ports.ProductRepository {
	return &ProductRepository{
		client:    client,
		tableName: tableName,
		slugIndex: slugIndex,
		typeIndex: typeIndex,
		logger:    logger,
	}
}

type productItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"`
	GSI2SK     string `dynamodbav:"GSI2SK"`
	EntityType string `dynamodbav:"EntityType"`
	domain.Product
}

func productPK(id string) string {
	return fmt.Sprintf("PRODUCT#%s", id)
}

func productSlugPK(slug string) string {
	return fmt.Sprintf("PRODUCTSLUG#%s", slug)
}

func newProductItem(p *domain.Product) productItem {
	return productItem{
		PK:         productPK(p.ID),
		SK:         skMetadata,
		GSI1PK:     productSlugPK(p.Slug),
		GSI1SK:     skMetadata,
		GSI2PK:     typePartition(entityTypeProduct),
		GSI2SK:     createdSortKey(p.CreatedAt, p.ID),
		EntityType: entityTypeProduct,
		Product:    *p,
	}
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	av, err := attributevalue.MarshalMap(newProductItem(product))
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
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
		return fmt.Errorf("failed to save product: %w", err)
	}

	r.logger.Debug("Product created",
		zap.String("productID", product.ID),
		zap.String("slug", product.Slug),
	)
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: productPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if result.Item == nil {
		return nil, ports.ErrNotFound
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	product := item.Product
	return &product, nil
}

// GetBySlug retrieves a product by its slug via GSI1.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.slugIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: productSlugPK(slug)},
			":sk": &types.AttributeValueMemberS{Value: skMetadata},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query product by slug: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, ports.ErrNotFound
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	product := item.Product
	return &product, nil
}

// Update replaces the stored record.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	av, err := attributevalue.MarshalMap(newProductItem(product))
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
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
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: productPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// List returns products newest first, filtered and paginated.
func (r *ProductRepository) List(ctx context.Context, filter ports.ProductFilter, page common.PaginationParams) ([]*domain.Product, int, error) {
	var conds []expression.ConditionBuilder
	if filter.ActiveOnly {
		conds = append(conds, expression.Name("Active").Equal(expression.Value(true)))
	}
	if filter.Category != "" {
		conds = append(conds, expression.Name("Category").Equal(expression.Value(filter.Category)))
	}
	if filter.MinPriceCent > 0 {
		conds = append(conds, expression.Name("PriceCents").GreaterThanEqual(expression.Value(filter.MinPriceCent)))
	}
	if filter.MaxPriceCent > 0 {
		conds = append(conds, expression.Name("PriceCents").LessThanEqual(expression.Value(filter.MaxPriceCent)))
	}

	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI2PK").Equal(expression.Value(typePartition(entityTypeProduct))))
	if len(conds) > 0 {
		filterExpr := conds[0]
		for _, c := range conds[1:] {
			filterExpr = filterExpr.And(c)
		}
		builder = builder.WithFilter(filterExpr)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build product query: %w", err)
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

	var products []*domain.Product
	paginator := awsdynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to query products: %w", err)
		}
		for _, raw := range out.Items {
			var item productItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal product item", zap.Error(err))
				continue
			}
			product := item.Product
			products = append(products, &product)
		}
	}

	return pageSlice(products, page), len(products), nil
}

// SlugExists reports whether any product already holds the slug.
func (r *ProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.slugIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: productSlugPK(slug)},
			":sk": &types.AttributeValueMemberS{Value: skMetadata},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return result.Count > 0, nil
}
