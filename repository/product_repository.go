package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rakeshsingh12700/dearstudent62-storefront/models"
)

// batchGetLimit is DynamoDB's maximum keys per BatchGetItem call.
const batchGetLimit = 100

// ProductRepository reads catalog entries.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)
}

// DynamoAPI is the subset of the DynamoDB client used by DynamoProductRepository.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

// DynamoProductRepository stores products in a table keyed by `product_id`.
type DynamoProductRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoProductRepository(client DynamoAPI, table string) *DynamoProductRepository {
	return &DynamoProductRepository{client: client, table: table}
}

type ddbProduct struct {
	ProductID string  `dynamodbav:"product_id"`
	Title     string  `dynamodbav:"title"`
	PriceINR  float64 `dynamodbav:"price_inr"`
	FileKey   string  `dynamodbav:"file_key,omitempty"`
	IsActive  bool    `dynamodbav:"is_active"`
}

func (dp ddbProduct) toModel() *models.Product {
	return &models.Product{
		ID:       dp.ProductID,
		Title:    dp.Title,
		PriceINR: dp.PriceINR,
		FileKey:  dp.FileKey,
		IsActive: dp.IsActive,
	}
}

func productKey(id string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

func (d *DynamoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	key, err := productKey(id)
	if err != nil {
		return nil, err
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: key})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return dp.toModel(), nil
}

// FindByIDs batch-loads products. Missing ids are absent from the result.
func (d *DynamoProductRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	result := make(map[string]*models.Product, len(ids))

	seen := make(map[string]struct{}, len(ids))
	var keys []map[string]types.AttributeValue
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		key, err := productKey(id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	for start := 0; start < len(keys); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(keys) {
			end = len(keys)
		}
		if err := d.batchGet(ctx, keys[start:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *DynamoProductRepository) batchGet(ctx context.Context, keys []map[string]types.AttributeValue, into map[string]*models.Product) error {
	request := map[string]types.KeysAndAttributes{d.table: {Keys: keys}}

	// Unprocessed keys are retried a bounded number of times.
	for attempt := 0; attempt < 3 && len(request) > 0; attempt++ {
		out, err := d.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return fmt.Errorf("dynamodb BatchGetItem failed: %w", err)
		}
		for _, item := range out.Responses[d.table] {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(item, &dp); err != nil {
				return fmt.Errorf("unmarshal item: %w", err)
			}
			into[dp.ProductID] = dp.toModel()
		}
		request = out.UnprocessedKeys
	}

	if pending := request[d.table].Keys; len(pending) > 0 {
		ids := make([]string, 0, len(pending))
		for _, key := range pending {
			var k struct {
				ProductID string `dynamodbav:"product_id"`
			}
			if err := attributevalue.UnmarshalMap(key, &k); err == nil {
				ids = append(ids, k.ProductID)
			}
		}
		return fmt.Errorf("%w: %s", ErrUnprocessedKeys, strings.Join(ids, ","))
	}
	return nil
}
