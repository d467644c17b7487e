package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type fakeBookings struct {
	mu       sync.Mutex
	byID     map[string]*models.Booking
	overlaps bool
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byID: make(map[string]*models.Booking)}
}

func (f *fakeBookings) Create(ctx context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.byID[b.ID] = &cp
	return nil
}

func (f *fakeBookings) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) ListByRenter(ctx context.Context, renterID string) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) ListByGear(ctx context.Context, gearID string) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) ListForOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return pkg.ErrNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookings) HasOverlap(ctx context.Context, gearID string, start, end time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlaps, nil
}

type fakeGearRepo struct {
	byID map[string]*models.Gear
}

func (f *fakeGearRepo) Create(ctx context.Context, g *models.Gear) error { return nil }

func (f *fakeGearRepo) GetByID(ctx context.Context, id string) (*models.Gear, error) {
	g, ok := f.byID[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return g, nil
}

func (f *fakeGearRepo) List(ctx context.Context, filter models.GearFilter) ([]models.Gear, error) {
	return nil, nil
}

func (f *fakeGearRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Gear, error) {
	return nil, nil
}

func (f *fakeGearRepo) Update(ctx context.Context, g *models.Gear) error { return nil }

func (f *fakeGearRepo) Delete(ctx context.Context, id string) error { return nil }

type bookingFixture struct {
	svc      BookingService
	bookings *fakeBookings
	notifier *fakeNotifier
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookings: newFakeBookings(),
		notifier: &fakeNotifier{},
	}
	gear := &fakeGearRepo{byID: map[string]*models.Gear{
		"g1": {ID: "g1", OwnerID: "owner", Title: "Drone", DailyPriceCents: 2500, IsListed: true},
		"g2": {ID: "g2", OwnerID: "owner", Title: "Kamera", DailyPriceCents: 1000, IsListed: false},
	}}
	f.svc = NewBookingService(f.bookings, gear, fakeCallUsers{}, &fakeMailer{}, f.notifier)
	return f
}

func TestCreateBookingComputesTotal(t *testing.T) {
	f := newBookingFixture()

	b, err := f.svc.Create(context.Background(), "renter", &models.CreateBookingRequest{
		GearID: "g1", StartDate: "2026-03-01", EndDate: "2026-03-03",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Status != models.BookingPending {
		t.Fatalf("status = %s, want pending", b.Status)
	}
	// 3 gün (başlangıç ve bitiş dahil) x 2500.
	if b.TotalCents != 7500 {
		t.Fatalf("TotalCents = %d, want 7500", b.TotalCents)
	}
}

func TestCreateBookingRejectsOwnGear(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Create(context.Background(), "owner", &models.CreateBookingRequest{
		GearID: "g1", StartDate: "2026-03-01", EndDate: "2026-03-03",
	})
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

func TestCreateBookingRejectsUnlisted(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Create(context.Background(), "renter", &models.CreateBookingRequest{
		GearID: "g2", StartDate: "2026-03-01", EndDate: "2026-03-03",
	})
	if !errors.Is(err, pkg.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	f := newBookingFixture()
	f.bookings.overlaps = true

	_, err := f.svc.Create(context.Background(), "renter", &models.CreateBookingRequest{
		GearID: "g1", StartDate: "2026-03-01", EndDate: "2026-03-03",
	})
	if !errors.Is(err, pkg.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestTransitionAuthorization(t *testing.T) {
	tests := []struct {
		name      string
		actor     string
		newStatus string
		wantErr   error
	}{
		{"owner confirms", "owner", models.BookingConfirmed, nil},
		{"renter cannot confirm", "renter", models.BookingConfirmed, pkg.ErrForbidden},
		{"renter cancels", "renter", models.BookingCancelled, nil},
		{"owner cannot cancel", "owner", models.BookingCancelled, pkg.ErrForbidden},
		{"stranger cannot decline", "u9", models.BookingDeclined, pkg.ErrForbidden},
		{"unknown status", "owner", "paused", pkg.ErrBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture()
			b, err := f.svc.Create(context.Background(), "renter", &models.CreateBookingRequest{
				GearID: "g1", StartDate: "2026-03-01", EndDate: "2026-03-03",
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			updated, err := f.svc.Transition(context.Background(), tc.actor, b.ID, tc.newStatus)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition: %v", err)
			}
			if updated.Status != tc.newStatus {
				t.Fatalf("status = %s, want %s", updated.Status, tc.newStatus)
			}
		})
	}
}

func TestTransitionRespectsStateMachine(t *testing.T) {
	f := newBookingFixture()
	b, err := f.svc.Create(context.Background(), "renter", &models.CreateBookingRequest{
		GearID: "g1", StartDate: "2026-03-01", EndDate: "2026-03-03",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// pending -> completed atlanamaz.
	if _, err := f.svc.Transition(context.Background(), "owner", b.ID, models.BookingCompleted); !errors.Is(err, pkg.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	for _, status := range []string{models.BookingConfirmed, models.BookingActive, models.BookingCompleted} {
		if _, err := f.svc.Transition(context.Background(), "owner", b.ID, status); err != nil {
			t.Fatalf("Transition(%s): %v", status, err)
		}
	}

	// Tamamlanmış booking'ten geri dönüş yok.
	if _, err := f.svc.Transition(context.Background(), "renter", b.ID, models.BookingCancelled); !errors.Is(err, pkg.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestConfirmRechecksOverlap(t *testing.T) {
	f := newBookingFixture()
	b, err := f.svc.Create(context.Background(), "renter", &models.CreateBookingRequest{
		GearID: "g1", StartDate: "2026-03-01", EndDate: "2026-03-03",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Pending beklerken aynı aralık başka bir booking'le kapatıldı.
	f.bookings.overlaps = true
	if _, err := f.svc.Transition(context.Background(), "owner", b.ID, models.BookingConfirmed); !errors.Is(err, pkg.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestMyBookingVisibility(t *testing.T) {
	f := newBookingFixture()
	b, err := f.svc.Create(context.Background(), "renter", &models.CreateBookingRequest{
		GearID: "g1", StartDate: "2026-03-01", EndDate: "2026-03-03",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Get(context.Background(), "renter", b.ID); err != nil {
		t.Fatalf("renter görebilmeli: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), "owner", b.ID); err != nil {
		t.Fatalf("gear sahibi görebilmeli: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), "u9", b.ID); !errors.Is(err, pkg.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
