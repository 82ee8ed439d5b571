package gallery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/events"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/guests"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/photos"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
)

type stubGuestsRepo struct {
	byToken map[string]*models.Guest
}

func (s *stubGuestsRepo) WithTx(tx *gorm.DB) guests.Repository { return s }

func (s *stubGuestsRepo) Create(ctx context.Context, guest *models.Guest) (*models.Guest, error) {
	return guest, nil
}

func (s *stubGuestsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGuestsRepo) FindByAccessToken(ctx context.Context, token string) (*models.Guest, error) {
	if guest, ok := s.byToken[token]; ok {
		return guest, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGuestsRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error) {
	return nil, nil
}

func (s *stubGuestsRepo) Update(ctx context.Context, guest *models.Guest) error { return nil }

type stubEventsRepo struct {
	byID map[uuid.UUID]*models.Event
}

func (s *stubEventsRepo) WithTx(tx *gorm.DB) events.Repository { return s }

func (s *stubEventsRepo) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	return event, nil
}

func (s *stubEventsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if event, ok := s.byID[id]; ok {
		return event, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubEventsRepo) ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]models.Event, error) {
	return nil, nil
}

func (s *stubEventsRepo) Update(ctx context.Context, event *models.Event) error { return nil }

type stubPhotosRepo struct {
	byEvent     map[uuid.UUID][]models.Photo
	lastEventID uuid.UUID
}

func (s *stubPhotosRepo) WithTx(tx *gorm.DB) photos.Repository { return s }

func (s *stubPhotosRepo) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	return photo, nil
}

func (s *stubPhotosRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPhotosRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Photo, error) {
	return nil, nil
}

func (s *stubPhotosRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error) {
	s.lastEventID = eventID
	return s.byEvent[eventID], nil
}

type galleryFixture struct {
	svc    *Service
	guests *stubGuestsRepo
	events *stubEventsRepo
	photos *stubPhotosRepo
}

func newGalleryFixture(t *testing.T) *galleryFixture {
	t.Helper()
	guestsRepo := &stubGuestsRepo{byToken: map[string]*models.Guest{}}
	eventsRepo := &stubEventsRepo{byID: map[uuid.UUID]*models.Event{}}
	photosRepo := &stubPhotosRepo{byEvent: map[uuid.UUID][]models.Photo{}}
	svc, err := NewService(ServiceParams{
		GuestsRepo: guestsRepo,
		EventsRepo: eventsRepo,
		PhotosRepo: photosRepo,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return &galleryFixture{svc: svc, guests: guestsRepo, events: eventsRepo, photos: photosRepo}
}

func (f *galleryFixture) addGuest(token string, guest *models.Guest, event *models.Event) {
	guest.AccessToken = &token
	guest.EventID = event.ID
	f.guests.byToken[token] = guest
	f.events.byID[event.ID] = event
}

func requireUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
	if typed.Message() != "invalid gallery token" {
		t.Fatalf("expected uniform token error message, got %q", typed.Message())
	}
}

func TestResolveTokenSuccess(t *testing.T) {
	f := newGalleryFixture(t)
	event := &models.Event{ID: uuid.New(), Name: "Formatura", Date: time.Now()}
	guest := &models.Guest{ID: uuid.New(), Name: "Maria"}
	f.addGuest("tok-valid", guest, event)

	access, err := f.svc.ResolveToken(context.Background(), "  tok-valid  ")
	if err != nil {
		t.Fatalf("ResolveToken returned error: %v", err)
	}
	if access.Guest.ID != guest.ID || access.Event.ID != event.ID {
		t.Fatal("resolved wrong guest or event")
	}
}

func TestResolveTokenUnknown(t *testing.T) {
	f := newGalleryFixture(t)
	_, err := f.svc.ResolveToken(context.Background(), "tok-missing")
	requireUnauthorized(t, err)
}

func TestResolveTokenEmpty(t *testing.T) {
	f := newGalleryFixture(t)
	_, err := f.svc.ResolveToken(context.Background(), "   ")
	requireUnauthorized(t, err)
}

func TestResolveTokenRevoked(t *testing.T) {
	f := newGalleryFixture(t)
	event := &models.Event{ID: uuid.New()}
	revoked := time.Now().Add(-time.Hour)
	guest := &models.Guest{ID: uuid.New(), RevokedAt: &revoked}
	f.addGuest("tok-revoked", guest, event)

	_, err := f.svc.ResolveToken(context.Background(), "tok-revoked")
	requireUnauthorized(t, err)
}

func TestResolveTokenExpired(t *testing.T) {
	f := newGalleryFixture(t)
	event := &models.Event{ID: uuid.New()}
	expires := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	guest := &models.Guest{ID: uuid.New(), InviteExpiresAt: &expires}
	f.addGuest("tok-expired", guest, event)

	f.svc.now = func() time.Time { return expires.Add(time.Minute) }
	_, err := f.svc.ResolveToken(context.Background(), "tok-expired")
	requireUnauthorized(t, err)

	f.svc.now = func() time.Time { return expires.Add(-time.Minute) }
	if _, err := f.svc.ResolveToken(context.Background(), "tok-expired"); err != nil {
		t.Fatalf("token should still be valid before expiry: %v", err)
	}
}

func TestPhotosAreScopedToTokenEvent(t *testing.T) {
	f := newGalleryFixture(t)
	eventA := &models.Event{ID: uuid.New(), Name: "Evento A"}
	eventB := &models.Event{ID: uuid.New(), Name: "Evento B"}
	f.addGuest("tok-a", &models.Guest{ID: uuid.New()}, eventA)
	f.addGuest("tok-b", &models.Guest{ID: uuid.New()}, eventB)

	f.photos.byEvent[eventA.ID] = []models.Photo{{ID: uuid.New(), EventID: eventA.ID, URL: "https://cdn/a.jpg"}}
	f.photos.byEvent[eventB.ID] = []models.Photo{
		{ID: uuid.New(), EventID: eventB.ID, URL: "https://cdn/b1.jpg"},
		{ID: uuid.New(), EventID: eventB.ID, URL: "https://cdn/b2.jpg"},
	}

	list, err := f.svc.Photos(context.Background(), "tok-a")
	if err != nil {
		t.Fatalf("Photos returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 photo for event A, got %d", len(list))
	}
	if f.photos.lastEventID != eventA.ID {
		t.Fatal("photos were listed for the wrong event")
	}
}

func TestViewShapesGuestAndEvent(t *testing.T) {
	f := newGalleryFixture(t)
	location := "São Paulo"
	event := &models.Event{
		ID:       uuid.New(),
		Name:     "Casamento",
		Date:     time.Date(2026, 6, 20, 18, 0, 0, 0, time.UTC),
		Location: &location,
	}
	f.addGuest("tok-view", &models.Guest{ID: uuid.New(), Name: "Maria"}, event)

	view, err := f.svc.View(context.Background(), "tok-view")
	if err != nil {
		t.Fatalf("View returned error: %v", err)
	}
	if view.Event.Name != "Casamento" || view.Guest.Name != "Maria" {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Event.Date != "2026-06-20T18:00:00Z" {
		t.Fatalf("unexpected date format %q", view.Event.Date)
	}
	if view.Event.Location == nil || *view.Event.Location != location {
		t.Fatal("expected location to pass through")
	}
}
