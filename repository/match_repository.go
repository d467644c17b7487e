package repository

import (
	"context"

	"github.com/nomadnotes/nomadnotes/models"
)

type MatchRepository interface {
	// RecordSwipe, swipe'ı kaydeder; aynı hedefe ikinci swipe ErrAlreadyExists
	// döner. Karşı taraf daha önce like attıysa match oluşturulur ve döner.
	RecordSwipe(ctx context.Context, swipe *models.Swipe) (*models.Match, error)
	ListMatches(ctx context.Context, userID string) ([]models.Match, error)
	GetMatch(ctx context.Context, userA, userB string) (*models.Match, error)
	ListSwipedTargets(ctx context.Context, userID string) ([]string, error)
	DeleteMatch(ctx context.Context, userID, otherID string) error
}
