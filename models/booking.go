package models

import (
	"time"

	"github.com/nomadnotes/nomadnotes/pkg"
)

// Booking durum makinesi:
//
//	pending -> confirmed -> active -> completed
//	pending -> declined
//	pending/confirmed -> cancelled (renter tarafından)
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingActive    = "active"
	BookingCompleted = "completed"
	BookingDeclined  = "declined"
	BookingCancelled = "cancelled"
)

// bookingTransitions, izin verilen durum geçişleri.
var bookingTransitions = map[string][]string{
	BookingPending:   {BookingConfirmed, BookingDeclined, BookingCancelled},
	BookingConfirmed: {BookingActive, BookingCancelled},
	BookingActive:    {BookingCompleted},
}

// CanTransition, from durumundan to durumuna geçiş geçerli mi.
func CanTransition(from, to string) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID         string    `json:"id"`
	GearID     string    `json:"gear_id"`
	RenterID   string    `json:"renter_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     string    `json:"status"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateBookingRequest struct {
	GearID    string `json:"gear_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r *CreateBookingRequest) Validate() (start, end time.Time, err error) {
	if r.GearID == "" {
		return start, end, pkg.Wrap(pkg.ErrBadRequest, "gear_id is required")
	}
	start, err = time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return start, end, pkg.Wrap(pkg.ErrBadRequest, "start_date must be YYYY-MM-DD")
	}
	end, err = time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return start, end, pkg.Wrap(pkg.ErrBadRequest, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return start, end, pkg.Wrap(pkg.ErrBadRequest, "end_date must not be before start_date")
	}
	return start, end, nil
}

// RentalDays, başlangıç ve bitiş dahil gün sayısı.
func RentalDays(start, end time.Time) int64 {
	return int64(end.Sub(start).Hours()/24) + 1
}
