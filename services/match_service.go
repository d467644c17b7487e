package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/pkg/email"
	"github.com/nomadnotes/nomadnotes/repository"
)

type MatchService interface {
	// Discover, kullanıcının gezileriyle kesişen gezileri olan, henüz swipe
	// edilmemiş kullanıcıları döner.
	Discover(ctx context.Context, userID string, limit int) ([]models.CandidateProfile, error)
	Swipe(ctx context.Context, userID string, req *models.SwipeRequest) (*models.SwipeResult, error)
	ListMatches(ctx context.Context, userID string) ([]models.MatchWithProfile, error)
	Unmatch(ctx context.Context, userID, otherID string) error
	AreMatched(ctx context.Context, userA, userB string) (bool, error)
}

type matchService struct {
	matches       repository.MatchRepository
	trips         repository.TripRepository
	users         repository.UserRepository
	mailer        email.EmailSender
	notifications NotificationService
}

func NewMatchService(
	matches repository.MatchRepository,
	trips repository.TripRepository,
	users repository.UserRepository,
	mailer email.EmailSender,
	notifications NotificationService,
) MatchService {
	return &matchService{
		matches:       matches,
		trips:         trips,
		users:         users,
		mailer:        mailer,
		notifications: notifications,
	}
}

func (s *matchService) Discover(ctx context.Context, userID string, limit int) ([]models.CandidateProfile, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	swiped, err := s.matches.ListSwipedTargets(ctx, userID)
	if err != nil {
		return nil, err
	}

	overlaps, err := s.trips.FindOverlapping(ctx, userID, swiped, limit)
	if err != nil {
		return nil, err
	}
	if len(overlaps) == 0 {
		return []models.CandidateProfile{}, nil
	}

	ids := make([]string, 0, len(overlaps))
	for _, o := range overlaps {
		ids = append(ids, o.Trip.UserID)
	}
	profiles, err := s.users.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateProfile, 0, len(overlaps))
	for _, o := range overlaps {
		profile, ok := profiles[o.Trip.UserID]
		if !ok {
			continue
		}
		candidates = append(candidates, models.CandidateProfile{
			Profile:            profile,
			OverlapDestination: o.Destination,
			OverlapDays:        o.OverlapDays,
		})
	}
	return candidates, nil
}

func (s *matchService) Swipe(ctx context.Context, userID string, req *models.SwipeRequest) (*models.SwipeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.TargetID == userID {
		return nil, pkg.Wrap(pkg.ErrBadRequest, "cannot swipe on yourself")
	}

	if _, err := s.users.GetByID(ctx, req.TargetID); err != nil {
		return nil, err
	}

	swipe := &models.Swipe{
		ID:        uuid.NewString(),
		UserID:    userID,
		TargetID:  req.TargetID,
		Action:    req.Action,
		CreatedAt: time.Now().UTC(),
	}

	match, err := s.matches.RecordSwipe(ctx, swipe)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return &models.SwipeResult{Matched: false}, nil
	}

	log.Printf("[match] new match: %s <-> %s", match.UserA, match.UserB)
	s.announceMatch(ctx, match)

	return &models.SwipeResult{Matched: true, Match: match}, nil
}

// announceMatch, her iki tarafa bildirim ve e-posta gönderir.
func (s *matchService) announceMatch(ctx context.Context, match *models.Match) {
	profiles, err := s.users.GetProfiles(ctx, []string{match.UserA, match.UserB})
	if err != nil {
		log.Printf("[match] profile load failed: %v", err)
		return
	}

	for _, pair := range [][2]string{{match.UserA, match.UserB}, {match.UserB, match.UserA}} {
		target, other := pair[0], pair[1]
		s.notifications.Notify(ctx, target, models.NotifNewMatch, map[string]any{
			"match_id": match.ID,
			"user_id":  other,
		})

		go func(targetID, otherName string) {
			emailCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			user, err := s.users.GetByID(emailCtx, targetID)
			if err != nil {
				return
			}
			if err := s.mailer.SendNewMatch(user.Email, user.DisplayName, otherName); err != nil {
				log.Printf("[match] email failed: user=%s err=%v", targetID, err)
			}
		}(target, profiles[other].DisplayName)
	}
}

func (s *matchService) ListMatches(ctx context.Context, userID string) ([]models.MatchWithProfile, error) {
	matches, err := s.matches.ListMatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []models.MatchWithProfile{}, nil
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Other(userID))
	}
	profiles, err := s.users.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]models.MatchWithProfile, 0, len(matches))
	for _, m := range matches {
		result = append(result, models.MatchWithProfile{
			Match:   m,
			Profile: profiles[m.Other(userID)],
		})
	}
	return result, nil
}

func (s *matchService) Unmatch(ctx context.Context, userID, otherID string) error {
	return s.matches.DeleteMatch(ctx, userID, otherID)
}

func (s *matchService) AreMatched(ctx context.Context, userA, userB string) (bool, error) {
	_, err := s.matches.GetMatch(ctx, userA, userB)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pkg.ErrNotFound) {
		return false, nil
	}
	return false, err
}
