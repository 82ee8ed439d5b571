package guests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/events"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/mailer"
	pkgdb "github.com/RogerEliel/evento-clique-digital-sub000/pkg/db"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/security"
)

const accessTokenConstraint = "guests_access_token_key"

// tokenRetries bounds how many times we regenerate on a unique collision
// before giving up. With 192-bit tokens one retry should never happen.
const tokenRetries = 3

// InviteInput captures the fields a photographer supplies when inviting a guest.
type InviteInput struct {
	Name  string
	Email string
}

// InviteResult returns the created guest plus the gallery URL mailed out.
type InviteResult struct {
	Guest      *models.Guest
	GalleryURL string
}

type ServiceParams struct {
	Repo       Repository
	EventsRepo events.Repository
	Mailer     mailer.Sender
	BaseURL    string
	InviteTTL  time.Duration
	Logger     *logger.Logger
}

type Service struct {
	repo          Repository
	eventsRepo    events.Repository
	mailer        mailer.Sender
	baseURL       string
	inviteTTL     time.Duration
	logg          *logger.Logger
	generateToken func() (string, error)
	now           func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "guests repo required")
	}
	if params.EventsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "events repo required")
	}
	if strings.TrimSpace(params.BaseURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "base url required")
	}
	return &Service{
		repo:          params.Repo,
		eventsRepo:    params.EventsRepo,
		mailer:        params.Mailer,
		baseURL:       strings.TrimRight(params.BaseURL, "/"),
		inviteTTL:     params.InviteTTL,
		logg:          params.Logger,
		generateToken: security.GenerateGalleryToken,
		now:           time.Now,
	}, nil
}

// Invite creates a guest with a fresh gallery token and mails the link.
// A mail failure does not roll the guest back; the link can be re-sent.
func (s *Service) Invite(ctx context.Context, photographerID, eventID uuid.UUID, input InviteInput) (*InviteResult, error) {
	event, err := s.ownedEvent(ctx, photographerID, eventID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest email is required")
	}

	guest, err := s.createWithToken(ctx, event.ID, input)
	if err != nil {
		return nil, err
	}

	galleryURL := s.galleryURL(*guest.AccessToken)
	if s.mailer != nil {
		invite := mailer.GalleryInvite{
			To:         guest.Email,
			GuestName:  guest.Name,
			EventName:  event.Name,
			GalleryURL: galleryURL,
		}
		if mailErr := s.mailer.SendGalleryInvite(ctx, invite); mailErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithGuestID(ctx, guest.ID.String()), "gallery invite mail failed")
		}
	}

	return &InviteResult{Guest: guest, GalleryURL: galleryURL}, nil
}

func (s *Service) createWithToken(ctx context.Context, eventID uuid.UUID, input InviteInput) (*models.Guest, error) {
	for attempt := 0; attempt <= tokenRetries; attempt++ {
		token, err := s.generateToken()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate access token")
		}

		now := s.now()
		guest := &models.Guest{
			EventID:     eventID,
			Name:        strings.TrimSpace(input.Name),
			Email:       strings.TrimSpace(input.Email),
			AccessToken: &token,
			InvitedAt:   &now,
		}
		if s.inviteTTL > 0 {
			expires := now.Add(s.inviteTTL)
			guest.InviteExpiresAt = &expires
		}

		created, err := s.repo.Create(ctx, guest)
		if err == nil {
			return created, nil
		}
		if pkgdb.IsUniqueViolation(err, accessTokenConstraint) {
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create guest")
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "access token collision retries exhausted")
}

// Reinvite rotates the guest's gallery token and resends the link. The old
// token stops resolving the moment the update lands, so this doubles as a
// recovery path for leaked links.
func (s *Service) Reinvite(ctx context.Context, photographerID, eventID, guestID uuid.UUID) (*InviteResult, error) {
	event, err := s.ownedEvent(ctx, photographerID, eventID)
	if err != nil {
		return nil, err
	}
	if guestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}

	guest, err := s.repo.FindByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "guest not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest")
	}
	if guest.EventID != eventID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "guest not found")
	}

	if err := s.rotateToken(ctx, guest); err != nil {
		return nil, err
	}

	galleryURL := s.galleryURL(*guest.AccessToken)
	if s.mailer != nil {
		invite := mailer.GalleryInvite{
			To:         guest.Email,
			GuestName:  guest.Name,
			EventName:  event.Name,
			GalleryURL: galleryURL,
		}
		if mailErr := s.mailer.SendGalleryInvite(ctx, invite); mailErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithGuestID(ctx, guest.ID.String()), "gallery invite mail failed")
		}
	}

	return &InviteResult{Guest: guest, GalleryURL: galleryURL}, nil
}

func (s *Service) rotateToken(ctx context.Context, guest *models.Guest) error {
	for attempt := 0; attempt <= tokenRetries; attempt++ {
		token, err := s.generateToken()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate access token")
		}

		now := s.now()
		guest.AccessToken = &token
		guest.InvitedAt = &now
		guest.RevokedAt = nil
		guest.InviteExpiresAt = nil
		if s.inviteTTL > 0 {
			expires := now.Add(s.inviteTTL)
			guest.InviteExpiresAt = &expires
		}

		err = s.repo.Update(ctx, guest)
		if err == nil {
			return nil
		}
		if pkgdb.IsUniqueViolation(err, accessTokenConstraint) {
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reinvite guest")
	}
	return pkgerrors.New(pkgerrors.CodeInternal, "access token collision retries exhausted")
}

func (s *Service) List(ctx context.Context, photographerID, eventID uuid.UUID) ([]models.Guest, error) {
	if _, err := s.ownedEvent(ctx, photographerID, eventID); err != nil {
		return nil, err
	}
	guests, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list guests")
	}
	return guests, nil
}

// Revoke invalidates a guest's gallery access immediately. Revoking an
// already-revoked guest is a no-op so the endpoint stays idempotent.
func (s *Service) Revoke(ctx context.Context, photographerID, eventID, guestID uuid.UUID) (*models.Guest, error) {
	if _, err := s.ownedEvent(ctx, photographerID, eventID); err != nil {
		return nil, err
	}
	if guestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}

	guest, err := s.repo.FindByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "guest not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest")
	}
	if guest.EventID != eventID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "guest not found")
	}

	if guest.RevokedAt == nil {
		now := s.now()
		guest.RevokedAt = &now
		if err := s.repo.Update(ctx, guest); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke guest")
		}
	}
	return guest, nil
}

func (s *Service) ownedEvent(ctx context.Context, photographerID, eventID uuid.UUID) (*models.Event, error) {
	if photographerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "photographer required")
	}
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	event, err := s.eventsRepo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	if event.PhotographerID != photographerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return event, nil
}

func (s *Service) galleryURL(token string) string {
	return fmt.Sprintf("%s/gallery/%s", s.baseURL, token)
}
