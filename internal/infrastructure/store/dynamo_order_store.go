package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/scaffold-shop/internal/order"
)

const (
	orderKeyPrefix   = "ORDER#"
	sessionKeyPrefix = "SESSION#"

	gsiAllOrders = "gsi1"
	gsiByEmail   = "gsi2"

	gsiAllOrdersPK = "ORDER"
)

// DynamoOrderStore persists orders in a single DynamoDB table. Each order is
// written together with a payment-session marker item in one transaction, so
// the session id acts as a uniqueness constraint: a second create for the
// same session fails instead of duplicating the order.
//
// Table layout:
//   - pk "ORDER#<orderID>"  : the order record, gsi1 (fixed pk, created_at
//     sort) lists all orders, gsi2 (customer_email) lists by customer.
//   - pk "SESSION#<sessionID>": marker pointing at the order id.
type DynamoOrderStore struct {
	client    *dynamodb.Client
	tableName string
}

type dynamoOrder struct {
	PK              string  `dynamodbav:"pk"`
	OrderID         string  `dynamodbav:"order_id"`
	CustomerEmail   string  `dynamodbav:"customer_email"`
	SessionID       string  `dynamodbav:"session_id"`
	Status          string  `dynamodbav:"status"`
	TotalAmount     float64 `dynamodbav:"total_amount"`
	Items           string  `dynamodbav:"items"`
	ShippingAddress string  `dynamodbav:"shipping_address"`
	PaymentInfo     string  `dynamodbav:"payment_info"`
	CreatedAt       string  `dynamodbav:"created_at"`
	GSI1PK          string  `dynamodbav:"gsi1pk"`
	GSI1SK          string  `dynamodbav:"gsi1sk"`
}

type dynamoSessionMarker struct {
	PK      string `dynamodbav:"pk"`
	OrderID string `dynamodbav:"order_id"`
}

func NewDynamoOrderStore(client *dynamodb.Client, tableName string) *DynamoOrderStore {
	return &DynamoOrderStore{client: client, tableName: tableName}
}

func (s *DynamoOrderStore) Create(ctx context.Context, o *order.Order) error {
	item, err := toDynamoOrder(o)
	if err != nil {
		return err
	}
	orderAV, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	markerAV, err := attributevalue.MarshalMap(dynamoSessionMarker{
		PK:      sessionKeyPrefix + o.PaymentInfo.SessionID,
		OrderID: o.OrderID,
	})
	if err != nil {
		return fmt.Errorf("marshal session marker: %w", err)
	}

	// The order and the session marker are written atomically; the marker's
	// condition is what rejects duplicate reconciliation attempts.
	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(s.tableName),
					Item:                orderAV,
					ConditionExpression: aws.String("attribute_not_exists(pk)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.tableName),
					Item:                markerAV,
					ConditionExpression: aws.String("attribute_not_exists(pk)"),
				},
			},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return order.ErrDuplicateSession
				}
			}
		}
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

func (s *DynamoOrderStore) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: orderKeyPrefix + orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if result.Item == nil {
		return nil, order.ErrOrderNotFound
	}

	var item dynamoOrder
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return fromDynamoOrder(item)
}

func (s *DynamoOrderStore) GetBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: sessionKeyPrefix + sessionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get session marker: %w", err)
	}
	if result.Item == nil {
		return nil, order.ErrOrderNotFound
	}

	var marker dynamoSessionMarker
	if err := attributevalue.UnmarshalMap(result.Item, &marker); err != nil {
		return nil, fmt.Errorf("unmarshal session marker: %w", err)
	}
	return s.GetByID(ctx, marker.OrderID)
}

func (s *DynamoOrderStore) ListByEmail(ctx context.Context, email string) ([]order.Order, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(gsiByEmail),
		KeyConditionExpression: aws.String("customer_email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query orders by email: %w", err)
	}
	return s.unmarshalOrders(result.Items)
}

func (s *DynamoOrderStore) ListAll(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	var startKey map[string]types.AttributeValue

	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String(gsiAllOrders),
			KeyConditionExpression: aws.String("gsi1pk = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: gsiAllOrdersPK},
			},
			ScanIndexForward:  aws.Bool(false), // newest first
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query all orders: %w", err)
		}

		page, err := s.unmarshalOrders(result.Items)
		if err != nil {
			return nil, err
		}
		orders = append(orders, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return orders, nil
}

func (s *DynamoOrderStore) UpdateStatus(ctx context.Context, orderID string, status order.Status) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: orderKeyPrefix + orderID},
		},
		UpdateExpression:    aws.String("SET #status = :status"),
		ConditionExpression: aws.String("attribute_exists(pk)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return order.ErrOrderNotFound
		}
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (s *DynamoOrderStore) unmarshalOrders(items []map[string]types.AttributeValue) ([]order.Order, error) {
	orders := make([]order.Order, 0, len(items))
	for _, raw := range items {
		var item dynamoOrder
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		o, err := fromDynamoOrder(item)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func toDynamoOrder(o *order.Order) (dynamoOrder, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return dynamoOrder{}, fmt.Errorf("marshal items: %w", err)
	}
	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return dynamoOrder{}, fmt.Errorf("marshal shipping address: %w", err)
	}
	paymentJSON, err := json.Marshal(o.PaymentInfo)
	if err != nil {
		return dynamoOrder{}, fmt.Errorf("marshal payment info: %w", err)
	}

	createdAt := o.CreatedAt.UTC().Format(time.RFC3339Nano)
	return dynamoOrder{
		PK:              orderKeyPrefix + o.OrderID,
		OrderID:         o.OrderID,
		CustomerEmail:   o.CustomerEmail,
		SessionID:       o.PaymentInfo.SessionID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		Items:           string(itemsJSON),
		ShippingAddress: string(addressJSON),
		PaymentInfo:     string(paymentJSON),
		CreatedAt:       createdAt,
		GSI1PK:          gsiAllOrdersPK,
		GSI1SK:          createdAt,
	}, nil
}

func fromDynamoOrder(item dynamoOrder) (*order.Order, error) {
	o := &order.Order{
		OrderID:       item.OrderID,
		CustomerEmail: item.CustomerEmail,
		TotalAmount:   item.TotalAmount,
		Status:        order.Status(item.Status),
	}
	if err := json.Unmarshal([]byte(item.Items), &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal([]byte(item.ShippingAddress), &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal([]byte(item.PaymentInfo), &o.PaymentInfo); err != nil {
		return nil, fmt.Errorf("unmarshal payment info: %w", err)
	}
	if item.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		o.CreatedAt = ts
	}
	return o, nil
}
