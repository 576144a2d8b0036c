package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/example/scaffold-shop/internal/cart"
	"github.com/example/scaffold-shop/internal/catalog"
	"github.com/example/scaffold-shop/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePaymentClient struct {
	created   []payment.CreateSessionRequest
	createErr error
}

func (f *fakePaymentClient) CreateSession(ctx context.Context, req payment.CreateSessionRequest) (*payment.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &payment.Session{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (f *fakePaymentClient) GetSession(ctx context.Context, id string) (*payment.Session, error) {
	return nil, errors.New("not used")
}

func validData() Data {
	return Data{
		Email: "a@b.com",
		ShippingAddress: payment.Address{
			Street: "1 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "US",
		},
	}
}

func newFixture(t *testing.T) (*Service, *fakePaymentClient, cart.Repository) {
	t.Helper()
	carts := cart.NewMemoryRepository()
	payments := &fakePaymentClient{}
	svc := NewService(NewMemoryRepository(), carts, payments, zap.NewNop())
	return svc, payments, carts
}

func seedCart(t *testing.T, carts cart.Repository) {
	t.Helper()
	c := &cart.Cart{}
	require.NoError(t, c.Add(cart.Item{ProductID: 1, Name: "MS Scaffolding Pipes", Weight: 100, Unit: catalog.UnitKg, PricePerUnit: 2.50}))
	require.NoError(t, carts.Save(context.Background(), "sess-1", c))
}

func TestData_Validate(t *testing.T) {
	assert.NoError(t, validData().Validate())

	cases := []struct {
		name   string
		mutate func(*Data)
	}{
		{"missing email", func(d *Data) { d.Email = "" }},
		{"bad email", func(d *Data) { d.Email = "not-an-email" }},
		{"missing street", func(d *Data) { d.ShippingAddress.Street = "" }},
		{"missing city", func(d *Data) { d.ShippingAddress.City = "" }},
		{"missing state", func(d *Data) { d.ShippingAddress.State = "" }},
		{"missing zip", func(d *Data) { d.ShippingAddress.Zip = "" }},
		{"missing country", func(d *Data) { d.ShippingAddress.Country = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validData()
			tc.mutate(&d)
			assert.ErrorIs(t, d.Validate(), ErrValidation)
		})
	}
}

func TestService_Submit(t *testing.T) {
	svc, payments, carts := newFixture(t)
	seedCart(t, carts)
	ctx := context.Background()

	sess, err := svc.Submit(ctx, "sess-1", validData())
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", sess.ID)
	assert.NotEmpty(t, sess.URL)

	require.Len(t, payments.created, 1)
	req := payments.created[0]
	assert.Equal(t, "a@b.com", req.CustomerEmail)
	require.Len(t, req.Items, 1)
	assert.Equal(t, 100.0, req.Items[0].Weight)

	// The capture is stored for reconciliation-time fallback.
	stored, err := svc.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", stored.Email)
}

func TestService_Submit_InvalidData(t *testing.T) {
	svc, payments, carts := newFixture(t)
	seedCart(t, carts)

	d := validData()
	d.ShippingAddress.City = ""

	_, err := svc.Submit(context.Background(), "sess-1", d)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, payments.created)
}

func TestService_Submit_EmptyCart(t *testing.T) {
	svc, payments, _ := newFixture(t)

	_, err := svc.Submit(context.Background(), "sess-1", validData())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, payments.created)
}

func TestService_Submit_ProviderError(t *testing.T) {
	svc, payments, carts := newFixture(t)
	seedCart(t, carts)
	payments.createErr = errors.New("provider down")

	_, err := svc.Submit(context.Background(), "sess-1", validData())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}
