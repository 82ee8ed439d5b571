package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// CheckoutClient exposes the subset of Stripe checkout operations the
// checkout and reconciliation services need, so both can be stubbed in tests.
type CheckoutClient interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	ListLineItems(ctx context.Context, sessionID string) ([]*stripe.LineItem, error)
}

type checkoutClientWrapper struct {
	sessions *session.Client
}

// NewCheckoutClient builds a session client from the configured credentials
// so checkout services can be stubbed in tests.
func NewCheckoutClient(api *Client) CheckoutClient {
	if api == nil {
		return nil
	}
	return &checkoutClientWrapper{
		sessions: &session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: api.apiKey,
		},
	}
}

func (w *checkoutClientWrapper) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return w.sessions.New(params)
}

// ListLineItems pages through every line item of a session with the price's
// product expanded, which is where photo metadata lives.
func (w *checkoutClientWrapper) ListLineItems(ctx context.Context, sessionID string) ([]*stripe.LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.AddExpand("data.price.product")

	var items []*stripe.LineItem
	iter := w.sessions.ListLineItems(params)
	for iter.Next() {
		items = append(items, iter.LineItem())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
