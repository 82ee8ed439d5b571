package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/gallery"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/orders"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/photos"
	dbtypes "github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/types"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/enums"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
)

// maxSelectionSize bounds one checkout; Stripe caps hosted sessions at 100
// line items anyway.
const maxSelectionSize = 100

type tokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*gallery.Access, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StartInput is a guest's photo selection for purchase.
type StartInput struct {
	PhotoIDs []uuid.UUID
}

// StartResult points the guest at the provider's hosted payment page.
type StartResult struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

type ServiceParams struct {
	Gallery           tokenResolver
	PhotosRepo        photos.Repository
	OrdersRepo        orders.Repository
	Provider          Provider
	TransactionRunner txRunner
	DefaultPriceCents int
	Currency          string
	Logger            *logger.Logger
}

type Service struct {
	gallery           tokenResolver
	photosRepo        photos.Repository
	ordersRepo        orders.Repository
	provider          Provider
	txRunner          txRunner
	defaultPriceCents int
	currency          string
	logg              *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gallery == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gallery resolver required")
	}
	if params.PhotosRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "photos repo required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout provider required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.DefaultPriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "default price must be positive")
	}
	if params.Currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "currency required")
	}
	return &Service{
		gallery:           params.Gallery,
		photosRepo:        params.PhotosRepo,
		ordersRepo:        params.OrdersRepo,
		provider:          params.Provider,
		txRunner:          params.TransactionRunner,
		defaultPriceCents: params.DefaultPriceCents,
		currency:          params.Currency,
		logg:              params.Logger,
	}, nil
}

// Start validates the guest's selection, opens a provider checkout session,
// and records the pending order. No order row exists if the provider call
// fails; item materialization waits for the payment webhook.
func (s *Service) Start(ctx context.Context, token string, input StartInput) (*StartResult, error) {
	access, err := s.gallery.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	selection, err := normalizeSelection(input.PhotoIDs)
	if err != nil {
		return nil, err
	}

	records, err := s.photosRepo.FindByIDs(ctx, selection)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load selected photos")
	}
	byID := make(map[uuid.UUID]models.Photo, len(records))
	for _, photo := range records {
		byID[photo.ID] = photo
	}
	for _, id := range selection {
		photo, ok := byID[id]
		if !ok || photo.EventID != access.Event.ID {
			// Photos outside the token's event are indistinguishable from
			// nonexistent ones.
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo is not available in this gallery").
				WithDetails(map[string]any{"photo_id": id.String()})
		}
	}

	unitPrice := s.defaultPriceCents
	if access.Event.PriceCents != nil {
		unitPrice = *access.Event.PriceCents
	}

	items := make([]SessionLineItem, 0, len(selection))
	for _, id := range selection {
		items = append(items, SessionLineItem{
			PhotoID:        id,
			Name:           fmt.Sprintf("Foto %s", shortID(id)),
			UnitPriceCents: unitPrice,
		})
	}

	session, err := s.provider.CreateSession(ctx, SessionInput{
		GuestID:  access.Guest.ID,
		EventID:  access.Event.ID,
		Token:    token,
		Currency: s.currency,
		Items:    items,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	order := &models.Order{
		GuestID:         &access.Guest.ID,
		PhotographerID:  access.Event.PhotographerID,
		StripeSessionID: session.ID,
		Status:          enums.OrderStatusPending,
		TotalCents:      unitPrice * len(selection),
		Currency:        s.currency,
		PhotoIDs:        dbtypes.UUIDArray(selection),
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		_, createErr := s.ordersRepo.WithTx(tx).Create(ctx, order)
		return createErr
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "pending order persist failed after session create", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist pending order")
	}

	return &StartResult{
		OrderID:     order.ID.String(),
		RedirectURL: session.RedirectURL,
	}, nil
}

func normalizeSelection(ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo selection cannot be empty")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo id cannot be empty")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	if len(result) > maxSelectionSize {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("selection is limited to %d photos", maxSelectionSize))
	}
	return result, nil
}

func shortID(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}
