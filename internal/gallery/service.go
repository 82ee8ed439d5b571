package gallery

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/events"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/guests"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/photos"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
)

// Access is the resolved identity behind a gallery token: the guest and the
// single event the token is scoped to.
type Access struct {
	Guest *models.Guest
	Event *models.Event
}

// View is the token-scoped gallery payload returned to guests.
type View struct {
	Event GalleryEvent `json:"event"`
	Guest GalleryGuest `json:"guest"`
}

type GalleryEvent struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Date     string  `json:"date"`
	Location *string `json:"location,omitempty"`
}

type GalleryGuest struct {
	Name string `json:"name"`
}

// GalleryPhoto exposes a photo without its storage internals.
type GalleryPhoto struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

type ServiceParams struct {
	GuestsRepo guests.Repository
	EventsRepo events.Repository
	PhotosRepo photos.Repository
}

type Service struct {
	guestsRepo guests.Repository
	eventsRepo events.Repository
	photosRepo photos.Repository
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.GuestsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "guests repo required")
	}
	if params.EventsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "events repo required")
	}
	if params.PhotosRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "photos repo required")
	}
	return &Service{
		guestsRepo: params.GuestsRepo,
		eventsRepo: params.EventsRepo,
		photosRepo: params.PhotosRepo,
		now:        time.Now,
	}, nil
}

// ResolveToken maps an opaque gallery token to its guest and event. Unknown,
// revoked, and expired tokens all come back as the same unauthorized error so
// callers cannot distinguish which case they hit.
func (s *Service) ResolveToken(ctx context.Context, token string) (*Access, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, unauthorized()
	}

	guest, err := s.guestsRepo.FindByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve access token")
	}

	if guest.RevokedAt != nil {
		return nil, unauthorized()
	}
	if guest.InviteExpiresAt != nil && s.now().After(*guest.InviteExpiresAt) {
		return nil, unauthorized()
	}

	event, err := s.eventsRepo.FindByID(ctx, guest.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest event")
	}

	return &Access{Guest: guest, Event: event}, nil
}

// View returns the event header a guest sees when opening their gallery.
func (s *Service) View(ctx context.Context, token string) (*View, error) {
	access, err := s.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &View{
		Event: GalleryEvent{
			ID:       access.Event.ID.String(),
			Name:     access.Event.Name,
			Date:     access.Event.Date.UTC().Format(time.RFC3339),
			Location: access.Event.Location,
		},
		Guest: GalleryGuest{Name: access.Guest.Name},
	}, nil
}

// Photos lists the photos of the token's event, newest first. The token can
// never reach photos of any other event.
func (s *Service) Photos(ctx context.Context, token string) ([]GalleryPhoto, error) {
	access, err := s.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	records, err := s.photosRepo.ListByEvent(ctx, access.Event.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list gallery photos")
	}

	result := make([]GalleryPhoto, 0, len(records))
	for _, photo := range records {
		result = append(result, GalleryPhoto{
			ID:        photo.ID.String(),
			URL:       photo.URL,
			CreatedAt: photo.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return result, nil
}

func unauthorized() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid gallery token")
}
