package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/scaffold-shop/internal/catalog"
	"github.com/example/scaffold-shop/internal/order"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresOrderStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresOrderStore(db), mock
}

func sampleOrder() *order.Order {
	return &order.Order{
		OrderID:       "ORD-1700000000000-ABCD1234",
		CustomerEmail: "a@b.com",
		Items: []order.Item{
			{ProductID: 1, Name: "MS Scaffolding Pipes", Weight: 100, Unit: catalog.UnitKg, PricePerUnit: 2.50},
		},
		TotalAmount: 250.00,
		Status:      order.StatusPaid,
		ShippingAddress: order.Address{
			Street: "1 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "US",
		},
		PaymentInfo: order.PaymentInfo{
			SessionID:     "cs_test_123",
			PaymentStatus: "paid",
			PaymentMethod: "card",
			PaidAt:        time.Now(),
		},
		CreatedAt: time.Now(),
	}
}

func orderRows(t *testing.T, o *order.Order) *sqlmock.Rows {
	itemsJSON, err := json.Marshal(o.Items)
	require.NoError(t, err)
	addressJSON, err := json.Marshal(o.ShippingAddress)
	require.NoError(t, err)
	paymentJSON, err := json.Marshal(o.PaymentInfo)
	require.NoError(t, err)

	return sqlmock.NewRows([]string{
		"order_id", "customer_email", "payment_session_id", "status",
		"total_amount", "items", "shipping_address", "payment_info", "created_at",
	}).AddRow(
		o.OrderID, o.CustomerEmail, o.PaymentInfo.SessionID, string(o.Status),
		o.TotalAmount, itemsJSON, addressJSON, paymentJSON, o.CreatedAt,
	)
}

func TestPostgresOrderStore_Create(t *testing.T) {
	s, mock := newMockStore(t)
	o := sampleOrder()

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.OrderID, o.CustomerEmail, "cs_test_123", "paid",
			o.TotalAmount, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderStore_Create_DuplicateSession(t *testing.T) {
	s, mock := newMockStore(t)
	o := sampleOrder()

	mock.ExpectExec("INSERT INTO orders").
		WillReturnError(&pq.Error{Code: pgUniqueViolation})

	err := s.Create(context.Background(), o)
	assert.ErrorIs(t, err, order.ErrDuplicateSession)
}

func TestPostgresOrderStore_Create_OtherError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO orders").
		WillReturnError(errors.New("connection refused"))

	err := s.Create(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.NotErrorIs(t, err, order.ErrDuplicateSession)
}

func TestPostgresOrderStore_GetByID(t *testing.T) {
	s, mock := newMockStore(t)
	o := sampleOrder()

	mock.ExpectQuery("SELECT .+ FROM orders WHERE order_id").
		WithArgs(o.OrderID).
		WillReturnRows(orderRows(t, o))

	got, err := s.GetByID(context.Background(), o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderID, got.OrderID)
	assert.Equal(t, o.TotalAmount, got.TotalAmount)
	assert.Equal(t, o.Items, got.Items)
	assert.Equal(t, "cs_test_123", got.PaymentInfo.SessionID)
}

func TestPostgresOrderStore_GetByID_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM orders WHERE order_id").
		WithArgs("ORDER-MISSING").
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))

	_, err := s.GetByID(context.Background(), "ORDER-MISSING")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestPostgresOrderStore_GetBySessionID(t *testing.T) {
	s, mock := newMockStore(t)
	o := sampleOrder()

	mock.ExpectQuery("SELECT .+ FROM orders WHERE payment_session_id").
		WithArgs("cs_test_123").
		WillReturnRows(orderRows(t, o))

	got, err := s.GetBySessionID(context.Background(), "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, o.OrderID, got.OrderID)
}

func TestPostgresOrderStore_ListByEmail(t *testing.T) {
	s, mock := newMockStore(t)
	o := sampleOrder()

	mock.ExpectQuery("SELECT .+ FROM orders\\s+WHERE customer_email").
		WithArgs("a@b.com").
		WillReturnRows(orderRows(t, o))

	orders, err := s.ListByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "a@b.com", orders[0].CustomerEmail)
}

func TestPostgresOrderStore_UpdateStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("shipped", "ORDER-123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateStatus(context.Background(), "ORDER-123", order.StatusShipped))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderStore_UpdateStatus_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("shipped", "ORDER-MISSING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateStatus(context.Background(), "ORDER-MISSING", order.StatusShipped)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}
