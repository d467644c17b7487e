package models

import (
	"strings"
	"time"

	"github.com/nomadnotes/nomadnotes/pkg"
)

type Trip struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Destination string    `json:"destination"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Notes       *string   `json:"notes,omitempty"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ItineraryItem struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	Day       int       `json:"day"`
	Title     string    `json:"title"`
	Location  *string   `json:"location,omitempty"`
	StartTime *string   `json:"start_time,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// TripWithItinerary, detay endpoint'inin yanıtı.
type TripWithItinerary struct {
	Trip
	Itinerary []ItineraryItem `json:"itinerary"`
}

type CreateTripRequest struct {
	Title       string  `json:"title"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Notes       *string `json:"notes,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// Validate, alanları kontrol eder ve tarihleri parse eder.
func (r *CreateTripRequest) Validate() (start, end time.Time, err error) {
	r.Title = strings.TrimSpace(r.Title)
	r.Destination = strings.TrimSpace(r.Destination)

	if r.Title == "" || len(r.Title) > 120 {
		return start, end, pkg.Wrap(pkg.ErrBadRequest, "title must be 1-120 characters")
	}
	if r.Destination == "" {
		return start, end, pkg.Wrap(pkg.ErrBadRequest, "destination is required")
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

// TripOverlap, keşfet akışı için aday: başka bir kullanıcının gezisi ve
// istek sahibinin gezileriyle kesişimi.
type TripOverlap struct {
	Trip        Trip   `json:"trip"`
	Destination string `json:"destination"`
	OverlapDays int    `json:"overlap_days"`
}

type CreateItineraryItemRequest struct {
	Day       int     `json:"day"`
	Title     string  `json:"title"`
	Location  *string `json:"location,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

func (r *CreateItineraryItemRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Day < 1 {
		return pkg.Wrap(pkg.ErrBadRequest, "day must be at least 1")
	}
	if r.Title == "" || len(r.Title) > 120 {
		return pkg.Wrap(pkg.ErrBadRequest, "title must be 1-120 characters")
	}
	return nil
}
