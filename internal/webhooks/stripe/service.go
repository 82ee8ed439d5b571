package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/events"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/orders"
	dbtypes "github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/types"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/enums"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
)

const photoIDMetadataKey = "photo_id"

// lineItemLister is the slice of the Stripe client the reconciler needs.
type lineItemLister interface {
	ListLineItems(ctx context.Context, sessionID string) ([]*stripe.LineItem, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	OrdersRepo        orders.Repository
	EventsRepo        events.Repository
	StripeClient      lineItemLister
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service turns verified Stripe events into order state. Everything it does
// is safe to replay: the paid transition is a no-op on paid orders and item
// inserts land on a unique index with conflicts ignored.
type Service struct {
	ordersRepo orders.Repository
	eventsRepo events.Repository
	stripe     lineItemLister
	txRunner   txRunner
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.EventsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "events repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		ordersRepo: params.OrdersRepo,
		eventsRepo: params.EventsRepo,
		stripe:     params.StripeClient,
		txRunner:   params.TransactionRunner,
		logg:       params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.reconcilePaid(ctx, session)
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.markFailed(ctx, session)
	default:
		// Unsubscribed event types are acknowledged without action.
		return nil
	}
}

func decodeSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	return &session, nil
}

// reconcilePaid marks the order paid and materializes its items from the
// provider's authoritative line items.
func (s *Service) reconcilePaid(ctx context.Context, session *stripe.CheckoutSession) error {
	lineItems, err := s.stripe.ListLineItems(ctx, session.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list session line items")
	}

	resolved := s.resolveLineItems(ctx, lineItems)

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		order, err := s.loadOrRecoverOrder(ctx, tx, repo, session, resolved)
		if err != nil {
			return err
		}

		if order.Status != enums.OrderStatusPaid {
			order.Status = enums.OrderStatusPaid
			if total := sumCents(resolved); total > 0 {
				order.TotalCents = total
			}
			if err := repo.Update(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
			}
		}

		items := make([]models.OrderItem, 0, len(resolved))
		for _, li := range resolved {
			photoID := li.photoID
			items = append(items, models.OrderItem{
				OrderID:        order.ID,
				PhotoID:        &photoID,
				UnitPriceCents: li.unitPriceCents,
				Quantity:       li.quantity,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "materialize order items")
		}
		return nil
	})
}

func (s *Service) markFailed(ctx context.Context, session *stripe.CheckoutSession) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		order, err := repo.FindByStripeSessionID(ctx, session.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Nothing to fail; the checkout never produced an order here.
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusPending {
			return nil
		}
		order.Status = enums.OrderStatusFailed
		if err := repo.Update(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
		}
		return nil
	})
}

// loadOrRecoverOrder finds the pending order for the session, rebuilding the
// header from session metadata when the original write was lost.
func (s *Service) loadOrRecoverOrder(ctx context.Context, tx *gorm.DB, repo orders.Repository, session *stripe.CheckoutSession, resolved []resolvedLineItem) (*models.Order, error) {
	order, err := repo.FindByStripeSessionID(ctx, session.ID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	guestID, guestErr := uuid.Parse(session.Metadata["guest_id"])
	eventID, eventErr := uuid.Parse(session.Metadata["event_id"])
	if guestErr != nil || eventErr != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for checkout session").
			WithDetails(map[string]any{"session_id": session.ID})
	}

	event, err := s.eventsRepo.WithTx(tx).FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found for checkout session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event for recovery")
	}

	photoIDs := make(dbtypes.UUIDArray, 0, len(resolved))
	for _, li := range resolved {
		photoIDs = append(photoIDs, li.photoID)
	}

	recovered := &models.Order{
		GuestID:         &guestID,
		PhotographerID:  event.PhotographerID,
		StripeSessionID: session.ID,
		Status:          enums.OrderStatusPending,
		TotalCents:      sumCents(resolved),
		Currency:        string(session.Currency),
		PhotoIDs:        photoIDs,
	}
	created, err := repo.Create(ctx, recovered)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recover order header")
	}

	if s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("recovered missing order for checkout session %s", session.ID))
	}
	return created, nil
}

type resolvedLineItem struct {
	photoID        uuid.UUID
	unitPriceCents int
	quantity       int
}

// resolveLineItems maps provider line items onto photos via product metadata.
// Items without a parseable photo_id are skipped, not fatal: a partial
// materialization is recoverable on replay, a rejected webhook is not.
func (s *Service) resolveLineItems(ctx context.Context, lineItems []*stripe.LineItem) []resolvedLineItem {
	resolved := make([]resolvedLineItem, 0, len(lineItems))
	for _, li := range lineItems {
		if li == nil || li.Price == nil || li.Price.Product == nil {
			s.warnUnmapped(ctx, li)
			continue
		}
		raw, ok := li.Price.Product.Metadata[photoIDMetadataKey]
		if !ok {
			s.warnUnmapped(ctx, li)
			continue
		}
		photoID, err := uuid.Parse(raw)
		if err != nil {
			s.warnUnmapped(ctx, li)
			continue
		}
		quantity := int(li.Quantity)
		if quantity <= 0 {
			quantity = 1
		}
		resolved = append(resolved, resolvedLineItem{
			photoID:        photoID,
			unitPriceCents: int(li.Price.UnitAmount),
			quantity:       quantity,
		})
	}
	return resolved
}

func (s *Service) warnUnmapped(ctx context.Context, li *stripe.LineItem) {
	if s.logg == nil {
		return
	}
	id := ""
	if li != nil {
		id = li.ID
	}
	s.logg.Warn(ctx, fmt.Sprintf("skipping line item %q without photo metadata", id))
}

func sumCents(items []resolvedLineItem) int {
	total := 0
	for _, li := range items {
		total += li.unitPriceCents * li.quantity
	}
	return total
}
