package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/photos"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/enums"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/pagination"
)

// readSigner matches the slice of the GCS client used for paid downloads.
type readSigner interface {
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DefaultBucket() string
}

type ServiceParams struct {
	Repo        Repository
	PhotosRepo  photos.Repository
	Signer      readSigner
	DownloadTTL time.Duration
}

type Service struct {
	repo        Repository
	photosRepo  photos.Repository
	signer      readSigner
	downloadTTL time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.PhotosRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "photos repo required")
	}
	if params.DownloadTTL <= 0 {
		params.DownloadTTL = time.Hour
	}
	return &Service{
		repo:        params.Repo,
		photosRepo:  params.PhotosRepo,
		signer:      params.Signer,
		downloadTTL: params.DownloadTTL,
	}, nil
}

// ListForGuest returns the guest's own orders, newest first.
func (s *Service) ListForGuest(ctx context.Context, guestID uuid.UUID) ([]OrderSummary, error) {
	if guestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "guest required")
	}
	records, err := s.repo.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list guest orders")
	}
	return summarize(records), nil
}

// ListForPhotographer pages through every order across the photographer's
// events, newest first, with the buyer's guest name on each row.
func (s *Service) ListForPhotographer(ctx context.Context, photographerID uuid.UUID, params pagination.Params) (*PhotographerOrderPage, error) {
	if photographerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "photographer required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	records, err := s.repo.ListByPhotographer(ctx, photographerID, limit+1, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photographer orders")
	}

	page := &PhotographerOrderPage{}
	if len(records) > limit {
		records = records[:limit]
		last := records[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	page.Orders = summarize(records)
	return page, nil
}

// Downloads discloses signed asset URLs for a paid order. Any other status is
// a state conflict: pending means the webhook has not confirmed payment yet.
func (s *Service) Downloads(ctx context.Context, guestID, orderID uuid.UUID) (*DownloadBundle, error) {
	if guestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "guest required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.GuestID == nil || *order.GuestID != guestID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid").
			WithDetails(map[string]any{"status": string(order.Status)})
	}

	photoIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		if item.PhotoID != nil {
			photoIDs = append(photoIDs, *item.PhotoID)
		}
	}
	records, err := s.photosRepo.FindByIDs(ctx, photoIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchased photos")
	}

	bundle := &DownloadBundle{OrderID: order.ID.String()}
	for _, photo := range records {
		link := DownloadLink{PhotoID: photo.ID.String(), DownloadURL: photo.URL}
		if s.signer != nil {
			signed, signErr := s.signer.SignedReadURL(s.signer.DefaultBucket(), photo.StoragePath, s.downloadTTL)
			if signErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, signErr, "sign download url")
			}
			link.DownloadURL = signed
		}
		bundle.Photos = append(bundle.Photos, link)
	}
	return bundle, nil
}

func summarize(records []models.Order) []OrderSummary {
	result := make([]OrderSummary, 0, len(records))
	for _, order := range records {
		summary := OrderSummary{
			ID:         order.ID.String(),
			Status:     string(order.Status),
			TotalCents: order.TotalCents,
			Currency:   order.Currency,
			CreatedAt:  order.CreatedAt.UTC().Format(time.RFC3339),
		}
		// Only the photographer listing preloads Guest; guests never see
		// another buyer's name.
		if order.Guest != nil {
			summary.GuestName = order.Guest.Name
		}
		for _, item := range order.Items {
			itemSummary := OrderItemSummary{
				UnitPriceCents: item.UnitPriceCents,
				Quantity:       item.Quantity,
			}
			if item.PhotoID != nil {
				itemSummary.PhotoID = item.PhotoID.String()
			}
			summary.Items = append(summary.Items, itemSummary)
		}
		result = append(result, summary)
	}
	return result
}
