package photos

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/events"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
)

type stubPhotosRepo struct {
	created *models.Photo
	rows    []models.Photo
}

func (s *stubPhotosRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPhotosRepo) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	if photo.ID == uuid.Nil {
		photo.ID = uuid.New()
	}
	s.created = photo
	return photo, nil
}

func (s *stubPhotosRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPhotosRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Photo, error) {
	return nil, nil
}

func (s *stubPhotosRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error) {
	return s.rows, nil
}

type stubEventsRepo struct {
	event *models.Event
}

func (s *stubEventsRepo) WithTx(tx *gorm.DB) events.Repository { return s }

func (s *stubEventsRepo) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	return event, nil
}

func (s *stubEventsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if s.event == nil || s.event.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.event, nil
}

func (s *stubEventsRepo) ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]models.Event, error) {
	return nil, nil
}

func (s *stubEventsRepo) Update(ctx context.Context, event *models.Event) error { return nil }

type stubSigner struct {
	lastObject      string
	lastContentType string
	lastTTL         time.Duration
	err             error
}

func (s *stubSigner) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	s.lastObject = object
	s.lastContentType = contentType
	s.lastTTL = expires
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s?signed", bucket, object), nil
}

func (s *stubSigner) DefaultBucket() string { return "eventoclique-media" }

func newPhotosServiceForTests(t *testing.T, event *models.Event) (*Service, *stubPhotosRepo, *stubSigner) {
	t.Helper()
	repo := &stubPhotosRepo{}
	gcsStub := &stubSigner{}
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		EventsRepo: &stubEventsRepo{event: event},
		Signer:     gcsStub,
		UploadTTL:  10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, repo, gcsStub
}

func TestPresignUploadSuccess(t *testing.T) {
	photographerID := uuid.New()
	event := &models.Event{ID: uuid.New(), PhotographerID: photographerID}
	svc, _, gcsStub := newPhotosServiceForTests(t, event)

	out, err := svc.PresignUpload(context.Background(), photographerID, event.ID, PresignInput{
		Filename:  "retrato.jpg",
		MimeType:  "image/jpeg",
		SizeBytes: 1024,
	})
	if err != nil {
		t.Fatalf("PresignUpload returned error: %v", err)
	}

	prefix := fmt.Sprintf("photos/%s/", event.ID)
	if !strings.HasPrefix(out.ObjectKey, prefix) {
		t.Fatalf("object key %q must live under the event prefix", out.ObjectKey)
	}
	if !strings.HasSuffix(out.ObjectKey, ".jpg") {
		t.Fatalf("expected .jpg extension, got %q", out.ObjectKey)
	}
	if gcsStub.lastContentType != "image/jpeg" {
		t.Fatalf("expected content type to reach signer, got %q", gcsStub.lastContentType)
	}
	if gcsStub.lastTTL != 10*time.Minute {
		t.Fatalf("expected configured ttl, got %v", gcsStub.lastTTL)
	}
	if out.SignedPUTURL == "" {
		t.Fatal("expected signed url")
	}
}

func TestPresignUploadRejectsUnsupportedMime(t *testing.T) {
	photographerID := uuid.New()
	event := &models.Event{ID: uuid.New(), PhotographerID: photographerID}
	svc, _, _ := newPhotosServiceForTests(t, event)

	_, err := svc.PresignUpload(context.Background(), photographerID, event.ID, PresignInput{
		Filename:  "video.mp4",
		MimeType:  "video/mp4",
		SizeBytes: 1024,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestPresignUploadRejectsOversizedFile(t *testing.T) {
	photographerID := uuid.New()
	event := &models.Event{ID: uuid.New(), PhotographerID: photographerID}
	svc, _, _ := newPhotosServiceForTests(t, event)

	_, err := svc.PresignUpload(context.Background(), photographerID, event.ID, PresignInput{
		Filename:  "huge.jpg",
		MimeType:  "image/jpeg",
		SizeBytes: maxUploadBytes + 1,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestPresignUploadHidesForeignEvent(t *testing.T) {
	event := &models.Event{ID: uuid.New(), PhotographerID: uuid.New()}
	svc, _, _ := newPhotosServiceForTests(t, event)

	_, err := svc.PresignUpload(context.Background(), uuid.New(), event.ID, PresignInput{
		Filename:  "retrato.jpg",
		MimeType:  "image/jpeg",
		SizeBytes: 1024,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestRegisterPersistsPhotoUnderEventPrefix(t *testing.T) {
	photographerID := uuid.New()
	event := &models.Event{ID: uuid.New(), PhotographerID: photographerID}
	svc, repo, _ := newPhotosServiceForTests(t, event)

	key := fmt.Sprintf("photos/%s/%s.jpg", event.ID, uuid.NewString())
	photo, err := svc.Register(context.Background(), photographerID, event.ID, RegisterInput{
		ObjectKey: key,
		Metadata:  map[string]any{"width": 4000},
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if photo.StoragePath != key {
		t.Fatalf("unexpected storage path %q", photo.StoragePath)
	}
	if photo.EventID != event.ID {
		t.Fatal("photo bound to the wrong event")
	}
	if !strings.Contains(photo.URL, key) {
		t.Fatalf("public url %q must reference the object", photo.URL)
	}
	if repo.created == nil {
		t.Fatal("expected photo row to be created")
	}
}

func TestRegisterRejectsForeignObjectKey(t *testing.T) {
	photographerID := uuid.New()
	event := &models.Event{ID: uuid.New(), PhotographerID: photographerID}
	svc, _, _ := newPhotosServiceForTests(t, event)

	cases := []string{
		fmt.Sprintf("photos/%s/p.jpg", uuid.New()),
		fmt.Sprintf("photos/%s/../%s/p.jpg", event.ID, uuid.New()),
		"p.jpg",
		"",
	}
	for _, key := range cases {
		_, err := svc.Register(context.Background(), photographerID, event.ID, RegisterInput{ObjectKey: key})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("key %q: expected validation code, got %v", key, err)
		}
	}
}

func TestListRequiresOwnership(t *testing.T) {
	event := &models.Event{ID: uuid.New(), PhotographerID: uuid.New()}
	svc, repo, _ := newPhotosServiceForTests(t, event)
	repo.rows = []models.Photo{{ID: uuid.New(), EventID: event.ID}}

	if _, err := svc.List(context.Background(), event.PhotographerID, event.ID); err != nil {
		t.Fatalf("owner list failed: %v", err)
	}
	_, err := svc.List(context.Background(), uuid.New(), event.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}
