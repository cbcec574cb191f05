package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"storyfront-backend/application/ports"
	"storyfront-backend/domain"
	"storyfront-backend/pkg/common"
)

// CartRepository implements ports.CartRepository. The cart is one item in
// the user's partition.
type CartRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewCartRepository creates a new CartRepository.
func NewCartRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger) ports.CartRepository {
	return &CartRepository{client: client, tableName: tableName, logger: logger}
}

type cartItemRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	domain.Cart
}

const skCart = "CART"

// Get retrieves the user's cart.
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skCart},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if result.Item == nil {
		return nil, ports.ErrNotFound
	}

	var item cartItemRecord
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	cart := item.Cart
	return &cart, nil
}

// Put creates or replaces the user's cart.
func (r *CartRepository) Put(ctx context.Context, cart *domain.Cart) error {
	av, err := attributevalue.MarshalMap(cartItemRecord{
		PK:         userPK(cart.UserID),
		SK:         skCart,
		EntityType: entityTypeCart,
		Cart:       *cart,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete removes the user's cart. Deleting an absent cart is a no-op.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skCart},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// OrderRepository implements ports.OrderRepository. GSI1 indexes orders by
// owner so the per-user history is a single query, newest first.
type OrderRepository struct {
	client    *awsdynamodb.Client
	tableName string
	slugIndex string
	logger    *zap.Logger
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(client *awsdynamodb.Client, tableName, slugIndex string, logger *zap.Logger) ports.OrderRepository {
	return &OrderRepository{
		client:    client,
		tableName: tableName,
		slugIndex: slugIndex,
		logger:    logger,
	}
}

type orderItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	domain.Order
}

func orderPK(id string) string {
	return fmt.Sprintf("ORDER#%s", id)
}

func newOrderItem(o *domain.Order) orderItem {
	return orderItem{
		PK:         orderPK(o.ID),
		SK:         skMetadata,
		GSI1PK:     userPK(o.UserID),
		GSI1SK:     fmt.Sprintf("ORDER#%s", createdSortKey(o.CreatedAt, o.ID)),
		EntityType: entityTypeOrder,
		Order:      *o,
	}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	av, err := attributevalue.MarshalMap(newOrderItem(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
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
		return fmt.Errorf("failed to save order: %w", err)
	}

	r.logger.Debug("Order created",
		zap.String("orderID", order.ID),
		zap.String("userID", order.UserID),
	)
	return nil
}

// GetByID retrieves an order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: orderPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skMetadata},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if result.Item == nil {
		return nil, ports.ErrNotFound
	}

	var item orderItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	order := item.Order
	return &order, nil
}

// Update replaces the stored order.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	av, err := attributevalue.MarshalMap(newOrderItem(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
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
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// ListByUser returns the user's orders newest first, paginated.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page common.PaginationParams) ([]*domain.Order, int, error) {
	input := &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.slugIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: userPK(userID)},
			":sk": &types.AttributeValueMemberS{Value: "ORDER#"},
		},
		ScanIndexForward: aws.Bool(false),
	}

	var orders []*domain.Order
	paginator := awsdynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to query orders: %w", err)
		}
		for _, raw := range out.Items {
			var item orderItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal order item", zap.Error(err))
				continue
			}
			order := item.Order
			orders = append(orders, &order)
		}
	}

	return pageSlice(orders, page), len(orders), nil
}
