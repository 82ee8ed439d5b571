package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
)

// CreateInput captures the fields a photographer supplies for a new event.
type CreateInput struct {
	Name        string
	Date        time.Time
	Location    *string
	Description *string
	PriceCents  *int
}

// UpdateInput holds optional patches; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Date        *time.Time
	Location    *string
	Description *string
	PriceCents  *int
}

type ServiceParams struct {
	Repo Repository
}

type Service struct {
	repo Repository
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "events repo required")
	}
	return &Service{repo: params.Repo}, nil
}

func (s *Service) Create(ctx context.Context, photographerID uuid.UUID, input CreateInput) (*models.Event, error) {
	if photographerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "photographer required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name is required")
	}
	if input.Date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event date is required")
	}
	if input.PriceCents != nil && *input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be positive")
	}

	event := &models.Event{
		PhotographerID: photographerID,
		Name:           strings.TrimSpace(input.Name),
		Date:           input.Date,
		Location:       input.Location,
		Description:    input.Description,
		PriceCents:     input.PriceCents,
	}
	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
	}
	return created, nil
}

// Get loads an event and enforces ownership.
func (s *Service) Get(ctx context.Context, photographerID, eventID uuid.UUID) (*models.Event, error) {
	event, err := s.findOwned(ctx, photographerID, eventID)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) List(ctx context.Context, photographerID uuid.UUID) ([]models.Event, error) {
	if photographerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "photographer required")
	}
	events, err := s.repo.ListByPhotographer(ctx, photographerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}
	return events, nil
}

func (s *Service) Update(ctx context.Context, photographerID, eventID uuid.UUID, input UpdateInput) (*models.Event, error) {
	event, err := s.findOwned(ctx, photographerID, eventID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name cannot be empty")
		}
		event.Name = strings.TrimSpace(*input.Name)
	}
	if input.Date != nil {
		if input.Date.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "event date cannot be empty")
		}
		event.Date = *input.Date
	}
	if input.Location != nil {
		event.Location = input.Location
	}
	if input.Description != nil {
		event.Description = input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be positive")
		}
		event.PriceCents = input.PriceCents
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event")
	}
	return event, nil
}

func (s *Service) findOwned(ctx context.Context, photographerID, eventID uuid.UUID) (*models.Event, error) {
	if photographerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "photographer required")
	}
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	if event.PhotographerID != photographerID {
		// Ownership failures surface as not-found so event ids stay unguessable.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return event, nil
}
