package order_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/scaffold-shop/internal/cart"
	"github.com/example/scaffold-shop/internal/catalog"
	"github.com/example/scaffold-shop/internal/infrastructure/store/mocks"
	"github.com/example/scaffold-shop/internal/order"
	"github.com/example/scaffold-shop/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePaymentClient serves canned sessions keyed by id.
type fakePaymentClient struct {
	sessions map[string]*payment.Session
	getErr   error
}

func (f *fakePaymentClient) CreateSession(ctx context.Context, req payment.CreateSessionRequest) (*payment.Session, error) {
	return nil, errors.New("not used in these tests")
}

func (f *fakePaymentClient) GetSession(ctx context.Context, id string) (*payment.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	sess, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such session")
	}
	return sess, nil
}

type fakePublisher struct {
	events []any
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, key string, event any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeClearer struct {
	cleared []string
	err     error
}

func (f *fakeClearer) Clear(ctx context.Context, sessionID string) error {
	if f.err != nil {
		return f.err
	}
	f.cleared = append(f.cleared, sessionID)
	return nil
}

func paidSession(id string) *payment.Session {
	meta, _ := payment.BuildMetadata(payment.CreateSessionRequest{
		Items: []cart.Item{
			{ProductID: 1, Name: "MS Scaffolding Pipes", Weight: 100, Unit: catalog.UnitKg, PricePerUnit: 2.50, Image: "/images/ms-pipes.jpg"},
		},
		CustomerEmail: "a@b.com",
		ShippingAddress: payment.Address{
			Street: "1 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "US",
		},
	}, time.Now())

	return &payment.Session{
		ID:            id,
		CustomerEmail: "a@b.com",
		PaymentStatus: payment.PaymentStatusPaid,
		AmountTotal:   25000,
		Metadata:      meta,
	}
}

type reconcileFixture struct {
	svc       *order.Service
	store     *mocks.MockOrderStore
	payments  *fakePaymentClient
	publisher *fakePublisher
	cartState *fakeClearer
	checkout  *fakeClearer
}

func newReconcileFixture() *reconcileFixture {
	f := &reconcileFixture{
		store:     mocks.NewMockOrderStore(),
		payments:  &fakePaymentClient{sessions: map[string]*payment.Session{}},
		publisher: &fakePublisher{},
		cartState: &fakeClearer{},
		checkout:  &fakeClearer{},
	}
	f.svc = order.NewService(f.payments, f.store, f.publisher, zap.NewNop(), f.cartState, f.checkout)
	return f
}

// Scenario A: 100 kg at 2.50/kg with a paid session produces a persisted
// order with total 250.00 and status paid.
func TestService_Reconcile_Success(t *testing.T) {
	f := newReconcileFixture()
	f.payments.sessions["cs_1"] = paidSession("cs_1")

	o, err := f.svc.Reconcile(context.Background(), "cs_1", "client-sess")
	require.NoError(t, err)

	assert.Equal(t, 250.00, o.TotalAmount)
	assert.Equal(t, order.StatusPaid, o.Status)
	assert.Equal(t, "a@b.com", o.CustomerEmail)
	assert.Equal(t, "cs_1", o.PaymentInfo.SessionID)
	assert.Equal(t, "card", o.PaymentInfo.PaymentMethod)
	assert.Equal(t, "Austin", o.ShippingAddress.City)
	assert.NotEmpty(t, o.OrderID)

	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, []string{"client-sess"}, f.cartState.cleared)
	assert.Equal(t, []string{"client-sess"}, f.checkout.cleared)
	require.Len(t, f.publisher.events, 1)
}

func TestService_Reconcile_RecomputesTotalFromMetadata(t *testing.T) {
	f := newReconcileFixture()
	sess := paidSession("cs_1")
	// The provider's amount_total is deliberately wrong; the metadata items
	// are authoritative.
	sess.AmountTotal = 99
	f.payments.sessions["cs_1"] = sess

	o, err := f.svc.Reconcile(context.Background(), "cs_1", "client-sess")
	require.NoError(t, err)
	assert.Equal(t, 250.00, o.TotalAmount)
}

// Scenario B: an unpaid session must never produce an order, and the client
// session state stays intact.
func TestService_Reconcile_PaymentIncomplete(t *testing.T) {
	for _, status := range []string{"unpaid", "pending", ""} {
		t.Run("status "+status, func(t *testing.T) {
			f := newReconcileFixture()
			sess := paidSession("cs_1")
			sess.PaymentStatus = status
			f.payments.sessions["cs_1"] = sess

			_, err := f.svc.Reconcile(context.Background(), "cs_1", "client-sess")

			assert.ErrorIs(t, err, order.ErrPaymentIncomplete)
			assert.Equal(t, 0, f.store.Count())
			assert.Empty(t, f.cartState.cleared)
			assert.Empty(t, f.checkout.cleared)
		})
	}
}

func TestService_Reconcile_SessionLookupFails(t *testing.T) {
	f := newReconcileFixture()
	f.payments.getErr = errors.New("provider unreachable")

	_, err := f.svc.Reconcile(context.Background(), "cs_1", "client-sess")
	assert.ErrorIs(t, err, order.ErrSessionLookup)
	assert.Equal(t, 0, f.store.Count())
}

func TestService_Reconcile_MissingSessionID(t *testing.T) {
	f := newReconcileFixture()

	_, err := f.svc.Reconcile(context.Background(), "", "client-sess")
	assert.ErrorIs(t, err, order.ErrSessionLookup)
}

func TestService_Reconcile_CorruptMetadata(t *testing.T) {
	f := newReconcileFixture()
	sess := paidSession("cs_1")
	sess.Metadata["items"] = "{not json"
	f.payments.sessions["cs_1"] = sess

	_, err := f.svc.Reconcile(context.Background(), "cs_1", "client-sess")

	assert.ErrorIs(t, err, order.ErrMetadataCorrupt)
	assert.Equal(t, 0, f.store.Count())
	assert.Empty(t, f.cartState.cleared)
}

// Scenario D redesigned: a second reconciliation for the same payment session
// returns the order created by the first instead of duplicating it.
func TestService_Reconcile_DuplicateSessionReturnsExistingOrder(t *testing.T) {
	f := newReconcileFixture()
	f.payments.sessions["cs_1"] = paidSession("cs_1")
	ctx := context.Background()

	first, err := f.svc.Reconcile(ctx, "cs_1", "client-sess")
	require.NoError(t, err)

	second, err := f.svc.Reconcile(ctx, "cs_1", "client-sess")
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, 1, f.store.Count(), "exactly one order for the session")
}

func TestService_Reconcile_StoreFailureLeavesSessionStateIntact(t *testing.T) {
	f := newReconcileFixture()
	f.payments.sessions["cs_1"] = paidSession("cs_1")
	f.store.CreateErr = errors.New("store unavailable")

	_, err := f.svc.Reconcile(context.Background(), "cs_1", "client-sess")

	require.Error(t, err)
	assert.Empty(t, f.cartState.cleared, "cart must survive a failed persist so the user can retry")
	assert.Empty(t, f.checkout.cleared)
	assert.Empty(t, f.publisher.events)
}

func TestService_Reconcile_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newReconcileFixture()
	f.payments.sessions["cs_1"] = paidSession("cs_1")
	f.publisher.err = errors.New("broker down")

	o, err := f.svc.Reconcile(context.Background(), "cs_1", "client-sess")
	require.NoError(t, err)
	assert.NotNil(t, o)
	assert.Equal(t, 1, f.store.Count())
}

func TestService_Reconcile_EmitsOrderCreatedEvent(t *testing.T) {
	f := newReconcileFixture()
	f.payments.sessions["cs_1"] = paidSession("cs_1")

	o, err := f.svc.Reconcile(context.Background(), "cs_1", "client-sess")
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	evt, ok := f.publisher.events[0].(order.Event)
	require.True(t, ok)
	assert.Equal(t, order.EventOrderCreated, evt.Type)

	var created order.OrderCreated
	require.NoError(t, json.Unmarshal(evt.Data, &created))
	assert.Equal(t, o.OrderID, created.OrderID)
	assert.Equal(t, 250.00, created.TotalAmount)
}

func TestService_UpdateStatus(t *testing.T) {
	f := newReconcileFixture()
	f.payments.sessions["cs_1"] = paidSession("cs_1")
	ctx := context.Background()

	o, err := f.svc.Reconcile(ctx, "cs_1", "client-sess")
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(ctx, o.OrderID, order.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, updated.Status)

	stored, err := f.svc.Get(ctx, o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, stored.Status)

	// OrderCreated + OrderStatusChanged
	require.Len(t, f.publisher.events, 2)
	evt := f.publisher.events[1].(order.Event)
	assert.Equal(t, order.EventOrderStatusChanged, evt.Type)
}

func TestService_UpdateStatus_InvalidStatus(t *testing.T) {
	f := newReconcileFixture()

	_, err := f.svc.UpdateStatus(context.Background(), "ORDER-123", "teleported")
	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}

func TestService_UpdateStatus_InvalidTransition(t *testing.T) {
	f := newReconcileFixture()
	f.payments.sessions["cs_1"] = paidSession("cs_1")
	ctx := context.Background()

	o, err := f.svc.Reconcile(ctx, "cs_1", "client-sess")
	require.NoError(t, err)

	// paid -> delivered skips shipping
	_, err = f.svc.UpdateStatus(ctx, o.OrderID, order.StatusDelivered)
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestService_UpdateStatus_NotFound(t *testing.T) {
	f := newReconcileFixture()

	_, err := f.svc.UpdateStatus(context.Background(), "ORDER-MISSING", order.StatusShipped)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

// Scenario C, failure half: a store failure surfaces the error and the local
// view is never optimistically marked updated.
func TestService_UpdateStatus_StoreFailure(t *testing.T) {
	f := newReconcileFixture()
	f.payments.sessions["cs_1"] = paidSession("cs_1")
	ctx := context.Background()

	o, err := f.svc.Reconcile(ctx, "cs_1", "client-sess")
	require.NoError(t, err)

	f.store.UpdateStatusErr = errors.New("store unavailable")
	_, err = f.svc.UpdateStatus(ctx, o.OrderID, order.StatusShipped)
	require.Error(t, err)

	f.store.UpdateStatusErr = nil
	stored, err := f.svc.Get(ctx, o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, stored.Status, "status must not change on failure")
}

func TestService_ListAll_WithFilter(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	for i, id := range []string{"cs_1", "cs_2"} {
		f.payments.sessions[id] = paidSession(id)
		_, err := f.svc.Reconcile(ctx, id, "client-sess")
		require.NoError(t, err, i)
	}

	all, err := f.svc.ListAll(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := f.svc.ListAll(ctx, "", order.StatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_ListByEmail(t *testing.T) {
	f := newReconcileFixture()
	ctx := context.Background()
	f.payments.sessions["cs_1"] = paidSession("cs_1")
	_, err := f.svc.Reconcile(ctx, "cs_1", "client-sess")
	require.NoError(t, err)

	orders, err := f.svc.ListByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	empty, err := f.svc.ListByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
