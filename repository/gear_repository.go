package repository

import (
	"context"
	"time"

	"github.com/nomadnotes/nomadnotes/models"
)

type GearRepository interface {
	Create(ctx context.Context, gear *models.Gear) error
	GetByID(ctx context.Context, id string) (*models.Gear, error)
	List(ctx context.Context, filter models.GearFilter) ([]models.Gear, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Gear, error)
	Update(ctx context.Context, gear *models.Gear) error
	Delete(ctx context.Context, id string) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByRenter(ctx context.Context, renterID string) ([]models.Booking, error)
	ListByGear(ctx context.Context, gearID string) ([]models.Booking, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id, status string) error

	// HasOverlap, verilen aralıkta çakışan confirmed/active booking var mı.
	// Çift booking'i engelleyen kontrol; create akışında transaction içinde
	// çağrılır.
	HasOverlap(ctx context.Context, gearID string, start, end time.Time) (bool, error)
}
