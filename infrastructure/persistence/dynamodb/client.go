// Package dynamodb implements the repository ports on a single DynamoDB
// table. Every entity lives under a typed PK/SK pair; GSI1 serves slug and
// email lookups, GSI2 serves newest-first listings per entity type.
package dynamodb

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"storyfront-backend/infrastructure/config"
)

// NewClient builds a DynamoDB client from the ambient AWS configuration.
// DYNAMODB_ENDPOINT overrides the endpoint for local development.
func NewClient(ctx context.Context, cfg *config.Config) (*awsdynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = &cfg.DynamoDBEndpoint
		}
	}), nil
}
