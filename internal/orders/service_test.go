package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RogerEliel/evento-clique-digital-sub000/internal/photos"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/enums"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/pagination"
)

type stubOrdersRepo struct {
	byID        map[uuid.UUID]*models.Order
	guestRows   []models.Order
	photogRows  []models.Order
	listGuest   uuid.UUID
	listPhotog  uuid.UUID
	lastLimit   int
	lastCursor  *pagination.Cursor
	findErr     error
	listGuestEr error
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if order, ok := s.byID[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListByGuest(ctx context.Context, guestID uuid.UUID) ([]models.Order, error) {
	if s.listGuestEr != nil {
		return nil, s.listGuestEr
	}
	s.listGuest = guestID
	return s.guestRows, nil
}

func (s *stubOrdersRepo) ListByPhotographer(ctx context.Context, photographerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	s.listPhotog = photographerID
	s.lastLimit = limit
	s.lastCursor = cursor
	rows := s.photogRows
	if cursor != nil {
		var filtered []models.Order
		for _, row := range rows {
			if row.CreatedAt.Before(cursor.CreatedAt) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *stubOrdersRepo) Update(ctx context.Context, order *models.Order) error { return nil }

func (s *stubOrdersRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

type stubPhotosRepo struct {
	rows []models.Photo
}

func (s *stubPhotosRepo) WithTx(tx *gorm.DB) photos.Repository { return s }

func (s *stubPhotosRepo) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	return photo, nil
}

func (s *stubPhotosRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPhotosRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Photo, error) {
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

type stubSigner struct {
	err     error
	signed  []string
	lastTTL time.Duration
}

func (s *stubSigner) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	s.lastTTL = expires
	if s.err != nil {
		return "", s.err
	}
	url := "https://storage.signed/" + bucket + "/" + object
	s.signed = append(s.signed, url)
	return url, nil
}

func (s *stubSigner) DefaultBucket() string { return "eventoclique-media" }

func paidOrderFixture(guestID uuid.UUID, photoIDs ...uuid.UUID) *models.Order {
	order := &models.Order{
		ID:         uuid.New(),
		GuestID:    &guestID,
		Status:     enums.OrderStatusPaid,
		TotalCents: 5000 * len(photoIDs),
		Currency:   "brl",
	}
	for _, id := range photoIDs {
		photoID := id
		order.Items = append(order.Items, models.OrderItem{
			OrderID:        order.ID,
			PhotoID:        &photoID,
			UnitPriceCents: 5000,
			Quantity:       1,
		})
	}
	return order
}

func newOrdersServiceForTests(t *testing.T, repo *stubOrdersRepo, photosRepo *stubPhotosRepo, signer *stubSigner) *Service {
	t.Helper()
	params := ServiceParams{
		Repo:        repo,
		PhotosRepo:  photosRepo,
		DownloadTTL: 30 * time.Minute,
	}
	if signer != nil {
		params.Signer = signer
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestDownloadsPaidOrderSignsURLs(t *testing.T) {
	guestID := uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	order := paidOrderFixture(guestID, p1, p2)

	repo := &stubOrdersRepo{byID: map[uuid.UUID]*models.Order{order.ID: order}}
	photosRepo := &stubPhotosRepo{rows: []models.Photo{
		{ID: p1, StoragePath: "photos/e/p1.jpg", URL: "https://cdn/p1.jpg"},
		{ID: p2, StoragePath: "photos/e/p2.jpg", URL: "https://cdn/p2.jpg"},
	}}
	signer := &stubSigner{}
	svc := newOrdersServiceForTests(t, repo, photosRepo, signer)

	bundle, err := svc.Downloads(context.Background(), guestID, order.ID)
	if err != nil {
		t.Fatalf("Downloads returned error: %v", err)
	}
	if len(bundle.Photos) != 2 {
		t.Fatalf("expected 2 download links, got %d", len(bundle.Photos))
	}
	for _, link := range bundle.Photos {
		if link.DownloadURL == "" || link.DownloadURL[:23] != "https://storage.signed/" {
			t.Fatalf("expected signed url, got %q", link.DownloadURL)
		}
	}
	if signer.lastTTL != 30*time.Minute {
		t.Fatalf("expected configured ttl, got %v", signer.lastTTL)
	}
}

func TestDownloadsPendingOrderIsStateConflict(t *testing.T) {
	guestID := uuid.New()
	order := paidOrderFixture(guestID, uuid.New())
	order.Status = enums.OrderStatusPending

	repo := &stubOrdersRepo{byID: map[uuid.UUID]*models.Order{order.ID: order}}
	svc := newOrdersServiceForTests(t, repo, &stubPhotosRepo{}, nil)

	_, err := svc.Downloads(context.Background(), guestID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict code, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["status"] != "pending" {
		t.Fatalf("expected status detail, got %v", typed.Details())
	}
}

func TestDownloadsFailedOrderIsStateConflict(t *testing.T) {
	guestID := uuid.New()
	order := paidOrderFixture(guestID, uuid.New())
	order.Status = enums.OrderStatusFailed

	repo := &stubOrdersRepo{byID: map[uuid.UUID]*models.Order{order.ID: order}}
	svc := newOrdersServiceForTests(t, repo, &stubPhotosRepo{}, nil)

	_, err := svc.Downloads(context.Background(), guestID, order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict code, got %v", err)
	}
}

func TestDownloadsForeignOrderIsNotFound(t *testing.T) {
	order := paidOrderFixture(uuid.New(), uuid.New())
	repo := &stubOrdersRepo{byID: map[uuid.UUID]*models.Order{order.ID: order}}
	svc := newOrdersServiceForTests(t, repo, &stubPhotosRepo{}, nil)

	_, err := svc.Downloads(context.Background(), uuid.New(), order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestDownloadsUnknownOrderIsNotFound(t *testing.T) {
	repo := &stubOrdersRepo{byID: map[uuid.UUID]*models.Order{}}
	svc := newOrdersServiceForTests(t, repo, &stubPhotosRepo{}, nil)

	_, err := svc.Downloads(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestDownloadsWithoutSignerFallsBackToPhotoURL(t *testing.T) {
	guestID := uuid.New()
	photoID := uuid.New()
	order := paidOrderFixture(guestID, photoID)
	repo := &stubOrdersRepo{byID: map[uuid.UUID]*models.Order{order.ID: order}}
	photosRepo := &stubPhotosRepo{rows: []models.Photo{{ID: photoID, URL: "https://cdn/p.jpg"}}}
	svc := newOrdersServiceForTests(t, repo, photosRepo, nil)

	bundle, err := svc.Downloads(context.Background(), guestID, order.ID)
	if err != nil {
		t.Fatalf("Downloads returned error: %v", err)
	}
	if bundle.Photos[0].DownloadURL != "https://cdn/p.jpg" {
		t.Fatalf("expected photo url fallback, got %q", bundle.Photos[0].DownloadURL)
	}
}

func TestDownloadsSignFailureIsDependency(t *testing.T) {
	guestID := uuid.New()
	photoID := uuid.New()
	order := paidOrderFixture(guestID, photoID)
	repo := &stubOrdersRepo{byID: map[uuid.UUID]*models.Order{order.ID: order}}
	photosRepo := &stubPhotosRepo{rows: []models.Photo{{ID: photoID, StoragePath: "photos/p.jpg"}}}
	signer := &stubSigner{err: errors.New("key unavailable")}
	svc := newOrdersServiceForTests(t, repo, photosRepo, signer)

	_, err := svc.Downloads(context.Background(), guestID, order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %v", err)
	}
}

func TestListForGuestSummarizesOrders(t *testing.T) {
	guestID := uuid.New()
	photoID := uuid.New()
	order := paidOrderFixture(guestID, photoID)
	order.CreatedAt = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	repo := &stubOrdersRepo{guestRows: []models.Order{*order}}
	svc := newOrdersServiceForTests(t, repo, &stubPhotosRepo{}, nil)

	list, err := svc.ListForGuest(context.Background(), guestID)
	if err != nil {
		t.Fatalf("ListForGuest returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(list))
	}
	summary := list[0]
	if summary.Status != "paid" || summary.TotalCents != 5000 || summary.Currency != "brl" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.CreatedAt != "2026-05-01T10:00:00Z" {
		t.Fatalf("unexpected created_at %q", summary.CreatedAt)
	}
	if len(summary.Items) != 1 || summary.Items[0].PhotoID != photoID.String() {
		t.Fatalf("unexpected items %+v", summary.Items)
	}
	if repo.listGuest != guestID {
		t.Fatal("listed orders for the wrong guest")
	}
}

func TestListForPhotographerIncludesGuestName(t *testing.T) {
	photographerID := uuid.New()
	guestID := uuid.New()
	order := paidOrderFixture(guestID, uuid.New())
	order.PhotographerID = photographerID
	order.CreatedAt = time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	order.Guest = &models.Guest{ID: guestID, Name: "Marina Costa"}

	repo := &stubOrdersRepo{photogRows: []models.Order{*order}}
	svc := newOrdersServiceForTests(t, repo, &stubPhotosRepo{}, nil)

	page, err := svc.ListForPhotographer(context.Background(), photographerID, pagination.Params{})
	if err != nil {
		t.Fatalf("ListForPhotographer returned error: %v", err)
	}
	if len(page.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(page.Orders))
	}
	if page.Orders[0].GuestName != "Marina Costa" {
		t.Fatalf("expected guest name on photographer view, got %q", page.Orders[0].GuestName)
	}
	if page.NextCursor != "" {
		t.Fatalf("expected no next cursor for a single page, got %q", page.NextCursor)
	}
	if repo.listPhotog != photographerID {
		t.Fatal("listed orders for the wrong photographer")
	}
	if repo.lastLimit != pagination.DefaultLimit+1 {
		t.Fatalf("expected repo limit %d, got %d", pagination.DefaultLimit+1, repo.lastLimit)
	}
}

func TestListForPhotographerOmitsNameWhenGuestDeleted(t *testing.T) {
	photographerID := uuid.New()
	order := paidOrderFixture(uuid.New(), uuid.New())
	order.GuestID = nil
	order.Guest = nil

	repo := &stubOrdersRepo{photogRows: []models.Order{*order}}
	svc := newOrdersServiceForTests(t, repo, &stubPhotosRepo{}, nil)

	page, err := svc.ListForPhotographer(context.Background(), photographerID, pagination.Params{})
	if err != nil {
		t.Fatalf("ListForPhotographer returned error: %v", err)
	}
	if page.Orders[0].GuestName != "" {
		t.Fatalf("expected empty guest name, got %q", page.Orders[0].GuestName)
	}
}

func TestListForPhotographerPaginates(t *testing.T) {
	photographerID := uuid.New()
	base := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	var rows []models.Order
	for i := 0; i < 3; i++ {
		order := paidOrderFixture(uuid.New(), uuid.New())
		order.PhotographerID = photographerID
		order.CreatedAt = base.Add(-time.Duration(i) * time.Hour)
		rows = append(rows, *order)
	}

	repo := &stubOrdersRepo{photogRows: rows}
	svc := newOrdersServiceForTests(t, repo, &stubPhotosRepo{}, nil)

	page, err := svc.ListForPhotographer(context.Background(), photographerID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("ListForPhotographer returned error: %v", err)
	}
	if len(page.Orders) != 2 {
		t.Fatalf("expected 2 orders on the first page, got %d", len(page.Orders))
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor when more rows remain")
	}
	cursor, err := pagination.ParseCursor(page.NextCursor)
	if err != nil {
		t.Fatalf("next cursor did not parse: %v", err)
	}
	if cursor.ID != rows[1].ID {
		t.Fatalf("cursor points at %s, expected last returned row %s", cursor.ID, rows[1].ID)
	}

	second, err := svc.ListForPhotographer(context.Background(), photographerID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("second page returned error: %v", err)
	}
	if len(second.Orders) != 1 || second.NextCursor != "" {
		t.Fatalf("expected final page with 1 order, got %d orders and cursor %q", len(second.Orders), second.NextCursor)
	}
}

func TestListForPhotographerRejectsMalformedCursor(t *testing.T) {
	svc := newOrdersServiceForTests(t, &stubOrdersRepo{}, &stubPhotosRepo{}, nil)
	_, err := svc.ListForPhotographer(context.Background(), uuid.New(), pagination.Params{Cursor: "not-a-cursor"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestListForPhotographerRequiresPhotographer(t *testing.T) {
	svc := newOrdersServiceForTests(t, &stubOrdersRepo{}, &stubPhotosRepo{}, nil)
	_, err := svc.ListForPhotographer(context.Background(), uuid.Nil, pagination.Params{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}

func TestListForGuestRequiresGuest(t *testing.T) {
	svc := newOrdersServiceForTests(t, &stubOrdersRepo{}, &stubPhotosRepo{}, nil)
	_, err := svc.ListForGuest(context.Background(), uuid.Nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}
