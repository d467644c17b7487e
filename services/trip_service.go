package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/pkg/geo"
	"github.com/nomadnotes/nomadnotes/repository"
)

type TripService interface {
	Create(ctx context.Context, userID string, req *models.CreateTripRequest) (*models.Trip, error)
	Get(ctx context.Context, requesterID, tripID string) (*models.TripWithItinerary, error)
	ListMine(ctx context.Context, userID string) ([]models.Trip, error)
	Update(ctx context.Context, userID, tripID string, req *models.CreateTripRequest) (*models.Trip, error)
	Delete(ctx context.Context, userID, tripID string) error

	AddItineraryItem(ctx context.Context, userID, tripID string, req *models.CreateItineraryItemRequest) (*models.ItineraryItem, error)
	DeleteItineraryItem(ctx context.Context, userID, tripID, itemID string) error
}

type tripService struct {
	trips    repository.TripRepository
	geocoder geo.Geocoder
}

func NewTripService(trips repository.TripRepository, geocoder geo.Geocoder) TripService {
	return &tripService{trips: trips, geocoder: geocoder}
}

func (s *tripService) Create(ctx context.Context, userID string, req *models.CreateTripRequest) (*models.Trip, error) {
	start, end, err := req.Validate()
	if err != nil {
		return nil, err
	}

	trip := &models.Trip{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       req.Title,
		Destination: req.Destination,
		StartDate:   start,
		EndDate:     end,
		Notes:       req.Notes,
		IsPublic:    true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if req.IsPublic != nil {
		trip.IsPublic = *req.IsPublic
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}

	// Geocoding yanıtı bekletmez; koordinat arka planda doldurulur.
	go s.geocodeTrip(trip.ID, trip.Destination)

	return trip, nil
}

func (s *tripService) geocodeTrip(tripID, destination string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pt, err := s.geocoder.Geocode(ctx, destination)
	if err != nil {
		log.Printf("[trip] geocode failed: trip=%s dest=%q err=%v", tripID, destination, err)
		return
	}

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return
	}
	trip.Lat = &pt.Lat
	trip.Lon = &pt.Lon
	if err := s.trips.Update(ctx, trip); err != nil {
		log.Printf("[trip] coordinate update failed: trip=%s err=%v", tripID, err)
	}
}

func (s *tripService) Get(ctx context.Context, requesterID, tripID string) (*models.TripWithItinerary, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if !trip.IsPublic && trip.UserID != requesterID {
		return nil, pkg.Wrap(pkg.ErrForbidden, "trip is private")
	}

	items, err := s.trips.ListItinerary(ctx, tripID)
	if err != nil {
		return nil, err
	}

	return &models.TripWithItinerary{Trip: *trip, Itinerary: items}, nil
}

func (s *tripService) ListMine(ctx context.Context, userID string) ([]models.Trip, error) {
	return s.trips.ListByUser(ctx, userID)
}

func (s *tripService) Update(ctx context.Context, userID, tripID string, req *models.CreateTripRequest) (*models.Trip, error) {
	start, end, err := req.Validate()
	if err != nil {
		return nil, err
	}

	trip, err := s.ownedTrip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	destinationChanged := trip.Destination != req.Destination

	trip.Title = req.Title
	trip.Destination = req.Destination
	trip.StartDate = start
	trip.EndDate = end
	trip.Notes = req.Notes
	if req.IsPublic != nil {
		trip.IsPublic = *req.IsPublic
	}
	if destinationChanged {
		trip.Lat = nil
		trip.Lon = nil
	}

	if err := s.trips.Update(ctx, trip); err != nil {
		return nil, err
	}

	if destinationChanged {
		go s.geocodeTrip(trip.ID, trip.Destination)
	}
	return trip, nil
}

func (s *tripService) Delete(ctx context.Context, userID, tripID string) error {
	if _, err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return err
	}
	return s.trips.Delete(ctx, tripID)
}

func (s *tripService) AddItineraryItem(ctx context.Context, userID, tripID string, req *models.CreateItineraryItemRequest) (*models.ItineraryItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return nil, err
	}

	item := &models.ItineraryItem{
		ID:        uuid.NewString(),
		TripID:    tripID,
		Day:       req.Day,
		Title:     req.Title,
		Location:  req.Location,
		StartTime: req.StartTime,
		Notes:     req.Notes,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.trips.AddItineraryItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *tripService) DeleteItineraryItem(ctx context.Context, userID, tripID, itemID string) error {
	if _, err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return err
	}
	return s.trips.DeleteItineraryItem(ctx, tripID, itemID)
}

func (s *tripService) ownedTrip(ctx context.Context, userID, tripID string) (*models.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, pkg.Wrap(pkg.ErrForbidden, "not your trip")
	}
	return trip, nil
}
