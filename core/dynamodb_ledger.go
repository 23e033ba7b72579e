package core

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBClient defines the calls the ledger needs.
type DynamoDBClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBLedger implements Ledger on a DynamoDB table keyed by batch_id.
type DynamoDBLedger struct {
	Client DynamoDBClient
	Table  string
}

type ledgerItem struct {
	BatchID   string `dynamodbav:"batch_id"`
	Start     int64  `dynamodbav:"start_code"`
	End       int64  `dynamodbav:"end_code"`
	Sheets    int    `dynamodbav:"sheets"`
	Output    string `dynamodbav:"output"`
	CreatedAt string `dynamodbav:"created_at"`
}

// NewDynamoDBLedger creates a ledger with the given AWS config.
func NewDynamoDBLedger(cfg aws.Config, table string) *DynamoDBLedger {
	return &DynamoDBLedger{
		Client: dynamodb.NewFromConfig(cfg),
		Table:  table,
	}
}

func (l *DynamoDBLedger) LastIssued(ctx context.Context) (int64, bool, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(l.Table),
		ProjectionExpression:     aws.String("#e"),
		ExpressionAttributeNames: map[string]string{"#e": "end_code"},
	}

	var last int64
	found := false
	paginator := dynamodb.NewScanPaginator(l.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, false, fmt.Errorf("failed to scan table %s: %w", l.Table, err)
		}

		var items []ledgerItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return 0, false, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		for _, it := range items {
			if !found || it.End > last {
				last, found = it.End, true
			}
		}
	}
	return last, found, nil
}

func (l *DynamoDBLedger) Record(ctx context.Context, b IssuedBatch) error {
	created := b.CreatedAt.UTC().Format(time.RFC3339Nano)
	item, err := attributevalue.MarshalMap(ledgerItem{
		BatchID:   fmt.Sprintf("%d-%d@%s", b.Start, b.End, created),
		Start:     b.Start,
		End:       b.End,
		Sheets:    b.Sheets,
		Output:    b.Output,
		CreatedAt: created,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal ledger item: %w", err)
	}

	_, err = l.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.Table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item into %s: %w", l.Table, err)
	}
	return nil
}
