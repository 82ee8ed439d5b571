package photos

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/events"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
)

const maxUploadBytes = 50 * 1024 * 1024

var allowedMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// signer matches the slice of the GCS client used here.
type signer interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	DefaultBucket() string
}

// PresignInput describes the upload the photographer is about to perform.
type PresignInput struct {
	Filename  string
	MimeType  string
	SizeBytes int64
}

// PresignOutput hands back the object key plus a direct-to-bucket PUT URL.
type PresignOutput struct {
	ObjectKey    string `json:"object_key"`
	SignedPUTURL string `json:"signed_put_url"`
}

// RegisterInput records a completed upload as a gallery photo.
type RegisterInput struct {
	ObjectKey string
	Metadata  map[string]any
}

type ServiceParams struct {
	Repo       Repository
	EventsRepo events.Repository
	Signer     signer
	UploadTTL  time.Duration
}

type Service struct {
	repo       Repository
	eventsRepo events.Repository
	signer     signer
	uploadTTL  time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "photos repo required")
	}
	if params.EventsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "events repo required")
	}
	if params.UploadTTL <= 0 {
		params.UploadTTL = 15 * time.Minute
	}
	return &Service{
		repo:       params.Repo,
		eventsRepo: params.EventsRepo,
		signer:     params.Signer,
		uploadTTL:  params.UploadTTL,
	}, nil
}

// PresignUpload validates the upload and returns a signed PUT URL scoped to
// the event's prefix in the bucket.
func (s *Service) PresignUpload(ctx context.Context, photographerID, eventID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if _, err := s.ownedEvent(ctx, photographerID, eventID); err != nil {
		return nil, err
	}
	if s.signer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "storage signer unavailable")
	}

	ext, ok := allowedMimeTypes[strings.ToLower(strings.TrimSpace(input.MimeType))]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported mime type").WithDetails(map[string]any{"mime_type": input.MimeType})
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes is required")
	}
	if input.SizeBytes > maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be at most %d", maxUploadBytes))
	}

	objectKey := fmt.Sprintf("photos/%s/%s%s", eventID, uuid.NewString(), ext)
	signedURL, err := s.signer.SignedURL(s.signer.DefaultBucket(), objectKey, input.MimeType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		ObjectKey:    objectKey,
		SignedPUTURL: signedURL,
	}, nil
}

// Register persists an uploaded object as a photo of the event.
func (s *Service) Register(ctx context.Context, photographerID, eventID uuid.UUID, input RegisterInput) (*models.Photo, error) {
	if _, err := s.ownedEvent(ctx, photographerID, eventID); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.ObjectKey)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "object_key is required")
	}
	expectedPrefix := fmt.Sprintf("photos/%s/", eventID)
	if !strings.HasPrefix(key, expectedPrefix) || path.Clean(key) != key {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "object_key does not belong to the event")
	}

	photo := &models.Photo{
		EventID:     eventID,
		StoragePath: key,
		URL:         fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket(), key),
		Metadata:    input.Metadata,
	}
	created, err := s.repo.Create(ctx, photo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create photo")
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, photographerID, eventID uuid.UUID) ([]models.Photo, error) {
	if _, err := s.ownedEvent(ctx, photographerID, eventID); err != nil {
		return nil, err
	}
	photos, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos")
	}
	return photos, nil
}

func (s *Service) bucket() string {
	if s.signer == nil {
		return ""
	}
	return s.signer.DefaultBucket()
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
