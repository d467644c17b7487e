package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/pkg/email"
	"github.com/nomadnotes/nomadnotes/pkg/metrics"
	"github.com/nomadnotes/nomadnotes/repository"
)

type BookingService interface {
	Create(ctx context.Context, renterID string, req *models.CreateBookingRequest) (*models.Booking, error)
	Get(ctx context.Context, requesterID, bookingID string) (*models.Booking, error)
	ListMine(ctx context.Context, renterID string) ([]models.Booking, error)
	ListForMyGear(ctx context.Context, ownerID string) ([]models.Booking, error)

	// Transition, durum makinesine göre geçiş yapar. Confirm/decline gear
	// sahibine, cancel renter'a aittir; activate/complete sahibi yapar.
	Transition(ctx context.Context, actorID, bookingID, newStatus string) (*models.Booking, error)
}

type bookingService struct {
	bookings      repository.BookingRepository
	gear          repository.GearRepository
	users         repository.UserRepository
	mailer        email.EmailSender
	notifications NotificationService
}

func NewBookingService(
	bookings repository.BookingRepository,
	gear repository.GearRepository,
	users repository.UserRepository,
	mailer email.EmailSender,
	notifications NotificationService,
) BookingService {
	return &bookingService{
		bookings:      bookings,
		gear:          gear,
		users:         users,
		mailer:        mailer,
		notifications: notifications,
	}
}

func (s *bookingService) Create(ctx context.Context, renterID string, req *models.CreateBookingRequest) (*models.Booking, error) {
	start, end, err := req.Validate()
	if err != nil {
		return nil, err
	}

	g, err := s.gear.GetByID(ctx, req.GearID)
	if err != nil {
		return nil, err
	}
	if !g.IsListed {
		return nil, pkg.Wrap(pkg.ErrConflict, "gear is not listed")
	}
	if g.OwnerID == renterID {
		return nil, pkg.Wrap(pkg.ErrBadRequest, "cannot book your own gear")
	}

	overlap, err := s.bookings.HasOverlap(ctx, g.ID, start, end)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, pkg.Wrap(pkg.ErrConflict, "gear is already booked for these dates")
	}

	b := &models.Booking{
		ID:         uuid.NewString(),
		GearID:     g.ID,
		RenterID:   renterID,
		StartDate:  start,
		EndDate:    end,
		Status:     models.BookingPending,
		TotalCents: models.RentalDays(start, end) * g.DailyPriceCents,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	metrics.BookingsTotal.WithLabelValues(models.BookingPending).Inc()

	s.notifyBooking(ctx, g.OwnerID, models.NotifBookingRequested, b)
	go s.emailRequested(b, g)

	log.Printf("[booking] created: id=%s gear=%s renter=%s", b.ID, g.ID, renterID)
	return b, nil
}

func (s *bookingService) Get(ctx context.Context, requesterID, bookingID string) (*models.Booking, error) {
	b, g, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.RenterID != requesterID && g.OwnerID != requesterID {
		return nil, pkg.Wrap(pkg.ErrForbidden, "not your booking")
	}
	return b, nil
}

func (s *bookingService) ListMine(ctx context.Context, renterID string) ([]models.Booking, error) {
	return s.bookings.ListByRenter(ctx, renterID)
}

func (s *bookingService) ListForMyGear(ctx context.Context, ownerID string) ([]models.Booking, error) {
	return s.bookings.ListForOwner(ctx, ownerID)
}

func (s *bookingService) Transition(ctx context.Context, actorID, bookingID, newStatus string) (*models.Booking, error) {
	b, g, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeTransition(actorID, b, g, newStatus); err != nil {
		return nil, err
	}
	if !models.CanTransition(b.Status, newStatus) {
		return nil, pkg.Wrap(pkg.ErrConflict, "invalid status transition from "+b.Status+" to "+newStatus)
	}

	// Confirm anında çakışma tekrar kontrol edilir; pending durumda başka bir
	// istek aynı aralığı kapatmış olabilir.
	if newStatus == models.BookingConfirmed {
		overlap, err := s.bookings.HasOverlap(ctx, b.GearID, b.StartDate, b.EndDate)
		if err != nil {
			return nil, err
		}
		if overlap {
			return nil, pkg.Wrap(pkg.ErrConflict, "gear is already booked for these dates")
		}
	}

	if err := s.bookings.UpdateStatus(ctx, b.ID, newStatus); err != nil {
		return nil, err
	}
	b.Status = newStatus
	metrics.BookingsTotal.WithLabelValues(newStatus).Inc()

	s.notifyTransition(ctx, b, g, newStatus)

	log.Printf("[booking] status changed: id=%s status=%s by=%s", b.ID, newStatus, actorID)
	return b, nil
}

func (s *bookingService) authorizeTransition(actorID string, b *models.Booking, g *models.Gear, newStatus string) error {
	switch newStatus {
	case models.BookingConfirmed, models.BookingDeclined, models.BookingActive, models.BookingCompleted:
		if g.OwnerID != actorID {
			return pkg.Wrap(pkg.ErrForbidden, "only the gear owner can do that")
		}
	case models.BookingCancelled:
		if b.RenterID != actorID {
			return pkg.Wrap(pkg.ErrForbidden, "only the renter can cancel")
		}
	default:
		return pkg.Wrap(pkg.ErrBadRequest, "unknown booking status")
	}
	return nil
}

func (s *bookingService) notifyTransition(ctx context.Context, b *models.Booking, g *models.Gear, newStatus string) {
	switch newStatus {
	case models.BookingConfirmed:
		s.notifyBooking(ctx, b.RenterID, models.NotifBookingConfirmed, b)
		go s.emailConfirmed(b, g)
	case models.BookingDeclined:
		s.notifyBooking(ctx, b.RenterID, models.NotifBookingDeclined, b)
	case models.BookingCancelled:
		s.notifyBooking(ctx, g.OwnerID, models.NotifBookingCancelled, b)
	}
}

func (s *bookingService) notifyBooking(ctx context.Context, userID, kind string, b *models.Booking) {
	s.notifications.Notify(ctx, userID, kind, map[string]any{
		"booking_id": b.ID,
		"gear_id":    b.GearID,
		"status":     b.Status,
	})
}

func (s *bookingService) emailRequested(b *models.Booking, g *models.Gear) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owner, err := s.users.GetByID(ctx, g.OwnerID)
	if err != nil {
		return
	}
	renter, err := s.users.GetByID(ctx, b.RenterID)
	if err != nil {
		return
	}

	if err := s.mailer.SendBookingRequested(owner.Email, owner.DisplayName, renter.DisplayName, g.Title, b.StartDate, b.EndDate); err != nil {
		log.Printf("[booking] request email failed: booking=%s err=%v", b.ID, err)
	}
}

func (s *bookingService) emailConfirmed(b *models.Booking, g *models.Gear) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	renter, err := s.users.GetByID(ctx, b.RenterID)
	if err != nil {
		return
	}

	if err := s.mailer.SendBookingConfirmed(renter.Email, renter.DisplayName, g.Title, b.StartDate, b.EndDate); err != nil {
		log.Printf("[booking] confirm email failed: booking=%s err=%v", b.ID, err)
	}
}

func (s *bookingService) loadBooking(ctx context.Context, bookingID string) (*models.Booking, *models.Gear, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.gear.GetByID(ctx, b.GearID)
	if err != nil {
		return nil, nil, err
	}
	return b, g, nil
}
