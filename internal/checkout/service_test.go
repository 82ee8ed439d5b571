package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/gallery"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/orders"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/photos"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/enums"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/pagination"
)

type stubResolver struct {
	access *gallery.Access
	err    error
}

func (s *stubResolver) ResolveToken(ctx context.Context, token string) (*gallery.Access, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.access, nil
}

type stubPhotosRepo struct {
	rows []models.Photo
	err  error
}

func (s *stubPhotosRepo) WithTx(tx *gorm.DB) photos.Repository { return s }

func (s *stubPhotosRepo) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	return photo, nil
}

func (s *stubPhotosRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPhotosRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Photo, error) {
	if s.err != nil {
		return nil, s.err
	}
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Photo
	for _, row := range s.rows {
		if want[row.ID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubPhotosRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error) {
	return nil, nil
}

type stubOrdersRepo struct {
	created   *models.Order
	createErr error
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.created = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListByGuest(ctx context.Context, guestID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) ListByPhotographer(ctx context.Context, photographerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) Update(ctx context.Context, order *models.Order) error { return nil }

func (s *stubOrdersRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

type stubProvider struct {
	session *Session
	err     error
	last    SessionInput
	calls   int
}

func (s *stubProvider) CreateSession(ctx context.Context, input SessionInput) (*Session, error) {
	s.calls++
	s.last = input
	if s.err != nil {
		return nil, s.err
	}
	if s.session != nil {
		return s.session, nil
	}
	return &Session{ID: "cs_test_123", RedirectURL: "https://checkout.stripe.com/pay/cs_test_123"}, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type checkoutFixture struct {
	svc      *Service
	access   *gallery.Access
	photos   *stubPhotosRepo
	orders   *stubOrdersRepo
	provider *stubProvider
}

func newCheckoutFixture(t *testing.T, eventPrice *int) *checkoutFixture {
	t.Helper()
	access := &gallery.Access{
		Guest: &models.Guest{ID: uuid.New()},
		Event: &models.Event{ID: uuid.New(), PhotographerID: uuid.New(), PriceCents: eventPrice},
	}
	photosRepo := &stubPhotosRepo{}
	ordersRepo := &stubOrdersRepo{}
	provider := &stubProvider{}
	svc, err := NewService(ServiceParams{
		Gallery:           &stubResolver{access: access},
		PhotosRepo:        photosRepo,
		OrdersRepo:        ordersRepo,
		Provider:          provider,
		TransactionRunner: passthroughTx{},
		DefaultPriceCents: 5000,
		Currency:          "brl",
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return &checkoutFixture{svc: svc, access: access, photos: photosRepo, orders: ordersRepo, provider: provider}
}

func (f *checkoutFixture) addPhoto() uuid.UUID {
	id := uuid.New()
	f.photos.rows = append(f.photos.rows, models.Photo{ID: id, EventID: f.access.Event.ID})
	return id
}

func TestStartCreatesPendingOrder(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	p1 := f.addPhoto()
	p2 := f.addPhoto()

	result, err := f.svc.Start(context.Background(), "tok", StartInput{PhotoIDs: []uuid.UUID{p1, p2}})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if result.RedirectURL != "https://checkout.stripe.com/pay/cs_test_123" {
		t.Fatalf("unexpected redirect %q", result.RedirectURL)
	}

	order := f.orders.created
	if order == nil {
		t.Fatal("expected pending order to be persisted")
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.StripeSessionID != "cs_test_123" {
		t.Fatalf("unexpected session id %q", order.StripeSessionID)
	}
	if order.TotalCents != 10000 {
		t.Fatalf("expected 2 x 5000 cents, got %d", order.TotalCents)
	}
	if order.GuestID == nil || *order.GuestID != f.access.Guest.ID {
		t.Fatal("order not bound to the token's guest")
	}
	if len(order.PhotoIDs) != 2 {
		t.Fatalf("expected selection snapshot of 2 ids, got %d", len(order.PhotoIDs))
	}
	if len(f.provider.last.Items) != 2 {
		t.Fatalf("expected 2 session line items, got %d", len(f.provider.last.Items))
	}
}

func TestStartUsesEventPriceOverride(t *testing.T) {
	price := 7500
	f := newCheckoutFixture(t, &price)
	p1 := f.addPhoto()

	if _, err := f.svc.Start(context.Background(), "tok", StartInput{PhotoIDs: []uuid.UUID{p1}}); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if f.orders.created.TotalCents != 7500 {
		t.Fatalf("expected event price 7500, got %d", f.orders.created.TotalCents)
	}
	if f.provider.last.Items[0].UnitPriceCents != 7500 {
		t.Fatalf("expected line item at event price, got %d", f.provider.last.Items[0].UnitPriceCents)
	}
}

func TestStartDeduplicatesSelection(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	p1 := f.addPhoto()

	result, err := f.svc.Start(context.Background(), "tok", StartInput{PhotoIDs: []uuid.UUID{p1, p1, p1}})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected result")
	}
	if f.orders.created.TotalCents != 5000 {
		t.Fatalf("duplicates must not inflate the total, got %d", f.orders.created.TotalCents)
	}
	if len(f.provider.last.Items) != 1 {
		t.Fatalf("expected a single line item, got %d", len(f.provider.last.Items))
	}
}

func TestStartRejectsEmptySelection(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	_, err := f.svc.Start(context.Background(), "tok", StartInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	if f.provider.calls != 0 {
		t.Fatal("provider must not be called for an empty selection")
	}
}

func TestStartRejectsForeignEventPhoto(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	own := f.addPhoto()
	foreign := uuid.New()
	f.photos.rows = append(f.photos.rows, models.Photo{ID: foreign, EventID: uuid.New()})

	_, err := f.svc.Start(context.Background(), "tok", StartInput{PhotoIDs: []uuid.UUID{own, foreign}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	if f.provider.calls != 0 {
		t.Fatal("provider must not be called when the selection leaks across events")
	}
	if f.orders.created != nil {
		t.Fatal("no order may be created for a rejected selection")
	}
}

func TestStartRejectsUnknownPhoto(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	_, err := f.svc.Start(context.Background(), "tok", StartInput{PhotoIDs: []uuid.UUID{uuid.New()}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestStartProviderFailureLeavesNoOrder(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	p1 := f.addPhoto()
	f.provider.err = errors.New("stripe unavailable")

	_, err := f.svc.Start(context.Background(), "tok", StartInput{PhotoIDs: []uuid.UUID{p1}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %v", err)
	}
	if f.orders.created != nil {
		t.Fatal("no order may exist when the provider call fails")
	}
}

func TestStartInvalidTokenShortCircuits(t *testing.T) {
	photosRepo := &stubPhotosRepo{}
	provider := &stubProvider{}
	svc, err := NewService(ServiceParams{
		Gallery:           &stubResolver{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid gallery token")},
		PhotosRepo:        photosRepo,
		OrdersRepo:        &stubOrdersRepo{},
		Provider:          provider,
		TransactionRunner: passthroughTx{},
		DefaultPriceCents: 5000,
		Currency:          "brl",
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	_, err = svc.Start(context.Background(), "bad", StartInput{PhotoIDs: []uuid.UUID{uuid.New()}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatal("provider must not be called for an invalid token")
	}
}

func TestStartSelectionLimit(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ids := make([]uuid.UUID, 0, maxSelectionSize+1)
	for i := 0; i < maxSelectionSize+1; i++ {
		ids = append(ids, f.addPhoto())
	}

	_, err := f.svc.Start(context.Background(), "tok", StartInput{PhotoIDs: ids})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}
