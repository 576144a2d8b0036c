package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeClient implements Client against Stripe's hosted checkout.
type StripeClient struct {
	api        *client.API
	successURL string
	cancelURL  string
}

// NewStripeClient builds a Stripe-backed client. baseURL is the public origin
// the shopper returns to after the hosted checkout.
func NewStripeClient(secretKey, baseURL string) *StripeClient {
	api := client.New(secretKey, nil)
	return &StripeClient{
		api:        api,
		successURL: baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  baseURL + "/checkout/payment",
	}
}

func (c *StripeClient) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	meta, err := BuildMetadata(req, time.Now())
	if err != nil {
		return nil, err
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(req.Items))
	for i, item := range req.Items {
		lineItems[i] = &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyUSD)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
					Description: stripe.String(fmt.Sprintf("%g %s @ $%.2f/%s",
						item.Weight, item.Unit, item.PricePerUnit, item.Unit)),
				},
				// The weight is folded into the amount; quantity stays 1.
				UnitAmount: stripe.Int64(UnitAmount(item)),
			},
			Quantity: stripe.Int64(1),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		SuccessURL:         stripe.String(c.successURL),
		CancelURL:          stripe.String(c.cancelURL),
		LineItems:          lineItems,
	}
	for k, v := range meta {
		params.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripeSession(sess), nil
}

func (c *StripeClient) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := c.api.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}
	return fromStripeSession(sess), nil
}

func fromStripeSession(s *stripe.CheckoutSession) *Session {
	return &Session{
		ID:            s.ID,
		URL:           s.URL,
		CustomerEmail: s.CustomerEmail,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
}
