package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/repository"
)

type GearService interface {
	Create(ctx context.Context, ownerID string, req *models.CreateGearRequest) (*models.Gear, error)
	Get(ctx context.Context, id string) (*models.Gear, error)
	List(ctx context.Context, filter models.GearFilter) ([]models.Gear, error)
	ListMine(ctx context.Context, ownerID string) ([]models.Gear, error)
	Update(ctx context.Context, ownerID, gearID string, req *models.CreateGearRequest) (*models.Gear, error)
	SetListed(ctx context.Context, ownerID, gearID string, listed bool) error
	SetImage(ctx context.Context, ownerID, gearID, imageURL string) error
	Delete(ctx context.Context, ownerID, gearID string) error
}

type gearService struct {
	gear repository.GearRepository
}

func NewGearService(gear repository.GearRepository) GearService {
	return &gearService{gear: gear}
}

func (s *gearService) Create(ctx context.Context, ownerID string, req *models.CreateGearRequest) (*models.Gear, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g := &models.Gear{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		DailyPriceCents: req.DailyPriceCents,
		Currency:        req.Currency,
		Location:        req.Location,
		IsListed:        true,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}

	if err := s.gear.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *gearService) Get(ctx context.Context, id string) (*models.Gear, error) {
	return s.gear.GetByID(ctx, id)
}

func (s *gearService) List(ctx context.Context, filter models.GearFilter) ([]models.Gear, error) {
	return s.gear.List(ctx, filter)
}

func (s *gearService) ListMine(ctx context.Context, ownerID string) ([]models.Gear, error) {
	return s.gear.ListByOwner(ctx, ownerID)
}

func (s *gearService) Update(ctx context.Context, ownerID, gearID string, req *models.CreateGearRequest) (*models.Gear, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g, err := s.ownedGear(ctx, ownerID, gearID)
	if err != nil {
		return nil, err
	}

	g.Title = req.Title
	g.Description = req.Description
	g.Category = req.Category
	g.DailyPriceCents = req.DailyPriceCents
	g.Currency = req.Currency
	g.Location = req.Location

	if err := s.gear.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *gearService) SetListed(ctx context.Context, ownerID, gearID string, listed bool) error {
	g, err := s.ownedGear(ctx, ownerID, gearID)
	if err != nil {
		return err
	}
	g.IsListed = listed
	return s.gear.Update(ctx, g)
}

func (s *gearService) SetImage(ctx context.Context, ownerID, gearID, imageURL string) error {
	g, err := s.ownedGear(ctx, ownerID, gearID)
	if err != nil {
		return err
	}
	g.ImageURL = &imageURL
	return s.gear.Update(ctx, g)
}

func (s *gearService) Delete(ctx context.Context, ownerID, gearID string) error {
	if _, err := s.ownedGear(ctx, ownerID, gearID); err != nil {
		return err
	}
	return s.gear.Delete(ctx, gearID)
}

func (s *gearService) ownedGear(ctx context.Context, ownerID, gearID string) (*models.Gear, error) {
	g, err := s.gear.GetByID(ctx, gearID)
	if err != nil {
		return nil, err
	}
	if g.OwnerID != ownerID {
		return nil, pkg.Wrap(pkg.ErrForbidden, "not your gear")
	}
	return g, nil
}
