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

// UserRepository implements ports.UserRepository. Addresses live in the
// user's partition so profile deletion can sweep them with one query.
type UserRepository struct {
	client    *awsdynamodb.Client
	tableName string
	slugIndex string
	typeIndex string
	logger    *zap.Logger
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(client *awsdynamodb.Client, tableName, slugIndex, typeIndex string, logger *zap.Logger) ports.UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		slugIndex: slugIndex,
		typeIndex: typeIndex,
		logger:    logger,
	}
}

type userItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	GSI2PK     string `dynamodbav:"GSI2PK"`
	GSI2SK     string `dynamodbav:"GSI2SK"`
	EntityType string `dynamodbav:"EntityType"`
	domain.User
}

type addressItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	domain.Address
}

func userPK(id string) string {
	return fmt.Sprintf("USER#%s", id)
}

func emailPK(email string) string {
	return fmt.Sprintf("EMAIL#%s", email)
}

func addressSK(id string) string {
	return fmt.Sprintf("ADDRESS#%s", id)
}

const skProfile = "PROFILE"

func newUserItem(u *domain.User) userItem {
	return userItem{
		PK:         userPK(u.ID),
		SK:         skProfile,
		GSI1PK:     emailPK(u.Email),
		GSI1SK:     skMetadata,
		GSI2PK:     typePartition(entityTypeUser),
		GSI2SK:     createdSortKey(u.CreatedAt, u.ID),
		EntityType: entityTypeUser,
		User:       *u,
	}
}

// Create persists a new user profile.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	av, err := attributevalue.MarshalMap(newUserItem(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
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
		return fmt.Errorf("failed to save user: %w", err)
	}

	r.logger.Debug("User created", zap.String("userID", user.ID))
	return nil
}

// GetByID retrieves a user profile.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if result.Item == nil {
		return nil, ports.ErrNotFound
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	user := item.User
	return &user, nil
}

// GetByEmail retrieves a user profile by email via GSI1.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.slugIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: emailPK(email)},
			":sk": &types.AttributeValueMemberS{Value: skMetadata},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, ports.ErrNotFound
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	user := item.User
	return &user, nil
}

// Update replaces the stored profile.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	av, err := attributevalue.MarshalMap(newUserItem(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
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
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes a user profile and all of its addresses.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	addresses, err := r.ListAddresses(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	for _, addr := range addresses {
		if err := r.DeleteAddress(ctx, id, addr.ID); err != nil {
			r.logger.Warn("Failed to delete address during user removal",
				zap.String("userID", id),
				zap.String("addressID", addr.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// List returns user profiles newest first, paginated.
func (r *UserRepository) List(ctx context.Context, page common.PaginationParams) ([]*domain.User, int, error) {
	input := &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.typeIndex),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: typePartition(entityTypeUser)},
		},
		ScanIndexForward: aws.Bool(false),
	}

	var users []*domain.User
	paginator := awsdynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to query users: %w", err)
		}
		for _, raw := range out.Items {
			var item userItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal user item", zap.Error(err))
				continue
			}
			user := item.User
			users = append(users, &user)
		}
	}

	return pageSlice(users, page), len(users), nil
}

// ListAddresses returns all addresses of a user.
func (r *UserRepository) ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error) {
	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: userPK(userID)},
			":sk": &types.AttributeValueMemberS{Value: "ADDRESS#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}

	addresses := make([]*domain.Address, 0, len(result.Items))
	for _, raw := range result.Items {
		var item addressItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal address item", zap.Error(err))
			continue
		}
		addr := item.Address
		addresses = append(addresses, &addr)
	}
	return addresses, nil
}

// GetAddress retrieves one address of a user.
func (r *UserRepository) GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: addressSK(addressID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if result.Item == nil {
		return nil, ports.ErrNotFound
	}

	var item addressItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal address: %w", err)
	}
	addr := item.Address
	return &addr, nil
}

// PutAddress creates or replaces an address.
func (r *UserRepository) PutAddress(ctx context.Context, address *domain.Address) error {
	av, err := attributevalue.MarshalMap(addressItem{
		PK:         userPK(address.UserID),
		SK:         addressSK(address.ID),
		EntityType: entityTypeAddress,
		Address:    *address,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal address: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to save address: %w", err)
	}
	return nil
}

// DeleteAddress removes one address of a user.
func (r *UserRepository) DeleteAddress(ctx context.Context, userID, addressID string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: addressSK(addressID)},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}
