package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/compreg/compreg/internal/models"
	"github.com/sirupsen/logrus"
)

// DynamoPutter is the slice of the DynamoDB client the delivery log needs.
type DynamoPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DeliveryLogRepository appends notification attempts to a DynamoDB table.
// Items carry a TTL attribute so the table expires them on its own.
type DeliveryLogRepository struct {
	client    DynamoPutter
	tableName string
	logger    *logrus.Logger
}

func NewDeliveryLogRepository(client DynamoPutter, tableName string, logger *logrus.Logger) *DeliveryLogRepository {
	return &DeliveryLogRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *DeliveryLogRepository) Record(ctx context.Context, record models.DeliveryRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery record: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: record.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: record.GetSK()}
	item["TTL"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(record.ExpiresAt.Unix(), 10)}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to store delivery record in DynamoDB")
		return fmt.Errorf("failed to store delivery record: %w", err)
	}

	return nil
}
