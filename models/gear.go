package models

import (
	"strings"
	"time"

	"github.com/nomadnotes/nomadnotes/pkg"
)

// Gear kategorileri.
var GearCategories = map[string]bool{
	"camera":      true,
	"drone":       true,
	"laptop":      true,
	"camping":     true,
	"sports":      true,
	"electronics": true,
	"other":       true,
}

type Gear struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	Category        string    `json:"category"`
	DailyPriceCents int64     `json:"daily_price_cents"`
	Currency        string    `json:"currency"`
	Location        string    `json:"location"`
	Lat             *float64  `json:"lat,omitempty"`
	Lon             *float64  `json:"lon,omitempty"`
	ImageURL        *string   `json:"image_url,omitempty"`
	IsListed        bool      `json:"is_listed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateGearRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	Category        string  `json:"category"`
	DailyPriceCents int64   `json:"daily_price_cents"`
	Currency        string  `json:"currency"`
	Location        string  `json:"location"`
}

func (r *CreateGearRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	if r.Currency == "" {
		r.Currency = "USD"
	}

	if r.Title == "" || len(r.Title) > 120 {
		return pkg.Wrap(pkg.ErrBadRequest, "title must be 1-120 characters")
	}
	if !GearCategories[r.Category] {
		return pkg.Wrap(pkg.ErrBadRequest, "unknown gear category")
	}
	if r.DailyPriceCents <= 0 {
		return pkg.Wrap(pkg.ErrBadRequest, "daily price must be positive")
	}
	if r.Location == "" {
		return pkg.Wrap(pkg.ErrBadRequest, "location is required")
	}
	return nil
}

// GearFilter, listeleme sorgusu parametreleri.
type GearFilter struct {
	Category string
	Location string
	Query    string
	Limit    int
	Offset   int
}
