package repository

import (
	"context"

	"github.com/nomadnotes/nomadnotes/models"
)

type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, id string) (*models.Trip, error)
	ListByUser(ctx context.Context, userID string) ([]models.Trip, error)
	Update(ctx context.Context, trip *models.Trip) error
	Delete(ctx context.Context, id string) error

	AddItineraryItem(ctx context.Context, item *models.ItineraryItem) error
	ListItinerary(ctx context.Context, tripID string) ([]models.ItineraryItem, error)
	DeleteItineraryItem(ctx context.Context, tripID, itemID string) error

	// FindOverlapping, istek sahibinin gezileriyle destinasyon ve tarih
	// bazında kesişen, başka kullanıcılara ait public gezileri döner.
	// Keşfet akışının aday kaynağıdır.
	FindOverlapping(ctx context.Context, userID string, excludeUserIDs []string, limit int) ([]models.TripOverlap, error)
}
