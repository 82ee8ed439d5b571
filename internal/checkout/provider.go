package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	pkgstripe "github.com/RogerEliel/evento-clique-digital-sub000/pkg/stripe"
)

// photoIDMetadataKey is the structured product metadata field the webhook
// reads back to map provider line items onto photos.
const photoIDMetadataKey = "photo_id"

// SessionInput describes one hosted checkout session to open.
type SessionInput struct {
	GuestID  uuid.UUID
	EventID  uuid.UUID
	Token    string
	Currency string
	Items    []SessionLineItem
}

type SessionLineItem struct {
	PhotoID        uuid.UUID
	Name           string
	UnitPriceCents int
}

// Session is the provider's handle for a created checkout.
type Session struct {
	ID          string
	RedirectURL string
}

// Provider opens hosted payment sessions. The Stripe adapter is the only
// production implementation; tests supply stubs.
type Provider interface {
	CreateSession(ctx context.Context, input SessionInput) (*Session, error)
}

type stripeProvider struct {
	client  pkgstripe.CheckoutClient
	baseURL string
}

// NewStripeProvider adapts the Stripe checkout client to the Provider interface.
func NewStripeProvider(client pkgstripe.CheckoutClient, baseURL string) (Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe checkout client is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("base url is required")
	}
	return &stripeProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (p *stripeProvider) CreateSession(ctx context.Context, input SessionInput) (*Session, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("at least one line item is required")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Items))
	for _, item := range input.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(input.Currency),
				UnitAmount: stripe.Int64(int64(item.UnitPriceCents)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
					Metadata: map[string]string{
						photoIDMetadataKey: item.PhotoID.String(),
					},
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(fmt.Sprintf("%s/gallery/%s?checkout=success", p.baseURL, input.Token)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/gallery/%s?checkout=cancelled", p.baseURL, input.Token)),
		Metadata: map[string]string{
			"guest_id": input.GuestID.String(),
			"event_id": input.EventID.String(),
		},
	}

	session, err := p.client.CreateSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &Session{
		ID:          session.ID,
		RedirectURL: session.URL,
	}, nil
}
