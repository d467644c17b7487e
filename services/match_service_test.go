package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/repository"
)

// fakeMatchRepo, RecordSwipe'ın karşılıklı-like semantiğini sqlite
// implementasyonuyla aynı şekilde taklit eder.
type fakeMatchRepo struct {
	mu      sync.Mutex
	swipes  map[string]map[string]string // userID -> targetID -> action
	matches []models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{swipes: make(map[string]map[string]string)}
}

func (f *fakeMatchRepo) RecordSwipe(ctx context.Context, swipe *models.Swipe) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.swipes[swipe.UserID] == nil {
		f.swipes[swipe.UserID] = make(map[string]string)
	}
	if _, dup := f.swipes[swipe.UserID][swipe.TargetID]; dup {
		return nil, pkg.Wrap(pkg.ErrAlreadyExists, "already swiped")
	}
	f.swipes[swipe.UserID][swipe.TargetID] = swipe.Action

	if swipe.Action != models.SwipeLike {
		return nil, nil
	}
	if f.swipes[swipe.TargetID][swipe.UserID] != models.SwipeLike {
		return nil, nil
	}

	a, b := swipe.UserID, swipe.TargetID
	if b < a {
		a, b = b, a
	}
	match := models.Match{ID: uuid.NewString(), UserA: a, UserB: b, CreatedAt: time.Now().UTC()}
	f.matches = append(f.matches, match)
	return &match, nil
}

func (f *fakeMatchRepo) ListMatches(ctx context.Context, userID string) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Match
	for _, m := range f.matches {
		if m.UserA == userID || m.UserB == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMatchRepo) GetMatch(ctx context.Context, userA, userB string) (*models.Match, error) {
	if userB < userA {
		userA, userB = userB, userA
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.matches {
		if f.matches[i].UserA == userA && f.matches[i].UserB == userB {
			return &f.matches[i], nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (f *fakeMatchRepo) ListSwipedTargets(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for target := range f.swipes[userID] {
		out = append(out, target)
	}
	return out, nil
}

func (f *fakeMatchRepo) DeleteMatch(ctx context.Context, userID, otherID string) error {
	if otherID < userID {
		userID, otherID = otherID, userID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.matches {
		if f.matches[i].UserA == userID && f.matches[i].UserB == otherID {
			f.matches = append(f.matches[:i], f.matches[i+1:]...)
			return nil
		}
	}
	return pkg.ErrNotFound
}

// fakeTripRepo sadece FindOverlapping'i anlamlı implemente eder; keşfet
// testleri için sabit bir aday listesi döner.
type fakeTripRepo struct {
	overlaps []models.TripOverlap
}

func (f *fakeTripRepo) Create(ctx context.Context, trip *models.Trip) error { return nil }

func (f *fakeTripRepo) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	return nil, pkg.ErrNotFound
}

func (f *fakeTripRepo) ListByUser(ctx context.Context, userID string) ([]models.Trip, error) {
	return nil, nil
}

func (f *fakeTripRepo) Update(ctx context.Context, trip *models.Trip) error { return nil }

func (f *fakeTripRepo) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeTripRepo) AddItineraryItem(ctx context.Context, item *models.ItineraryItem) error {
	return nil
}

func (f *fakeTripRepo) ListItinerary(ctx context.Context, tripID string) ([]models.ItineraryItem, error) {
	return nil, nil
}

func (f *fakeTripRepo) DeleteItineraryItem(ctx context.Context, tripID, itemID string) error {
	return nil
}

func (f *fakeTripRepo) FindOverlapping(ctx context.Context, userID string, excludeUserIDs []string, limit int) ([]models.TripOverlap, error) {
	excluded := make(map[string]bool, len(excludeUserIDs))
	for _, id := range excludeUserIDs {
		excluded[id] = true
	}
	var out []models.TripOverlap
	for _, o := range f.overlaps {
		if !excluded[o.Trip.UserID] {
			out = append(out, o)
		}
	}
	return out, nil
}

// fakeMatchUsers, istenen her ID için profil üretir.
type fakeMatchUsers struct {
	fakeCallUsers
}

func (fakeMatchUsers) GetProfiles(ctx context.Context, ids []string) (map[string]models.PublicProfile, error) {
	out := make(map[string]models.PublicProfile, len(ids))
	for _, id := range ids {
		out[id] = models.PublicProfile{ID: id, DisplayName: id}
	}
	return out, nil
}

type matchFixture struct {
	svc      MatchService
	repo     *fakeMatchRepo
	trips    *fakeTripRepo
	notifier *fakeNotifier
}

func newMatchFixture() *matchFixture {
	f := &matchFixture{
		repo:     newFakeMatchRepo(),
		trips:    &fakeTripRepo{},
		notifier: &fakeNotifier{},
	}
	f.svc = NewMatchService(f.repo, f.trips, fakeMatchUsers{}, &fakeMailer{}, f.notifier)
	return f
}

var _ repository.MatchRepository = (*fakeMatchRepo)(nil)
var _ repository.TripRepository = (*fakeTripRepo)(nil)

func TestMutualLikeCreatesMatch(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()

	res, err := f.svc.Swipe(ctx, "u1", &models.SwipeRequest{TargetID: "u2", Action: models.SwipeLike})
	if err != nil {
		t.Fatal(err)
	}
	if res.Matched {
		t.Fatal("tek taraflı like match oluşturmamalı")
	}

	res, err = f.svc.Swipe(ctx, "u2", &models.SwipeRequest{TargetID: "u1", Action: models.SwipeLike})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Matched || res.Match == nil {
		t.Fatal("karşılıklı like match oluşturmalı")
	}

	matched, err := f.svc.AreMatched(ctx, "u1", "u2")
	if err != nil || !matched {
		t.Fatalf("AreMatched true dönmeli, got %v %v", matched, err)
	}
	// Sıra bağımsız olmalı.
	matched, _ = f.svc.AreMatched(ctx, "u2", "u1")
	if !matched {
		t.Fatal("AreMatched sıra bağımsız olmalı")
	}

	f.notifier.mu.Lock()
	kinds := append([]string(nil), f.notifier.kinds...)
	f.notifier.mu.Unlock()
	if len(kinds) != 2 || kinds[0] != models.NotifNewMatch {
		t.Fatalf("iki tarafa new_match bildirimi beklenir, got %v", kinds)
	}
}

func TestPassDoesNotMatch(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()

	if _, err := f.svc.Swipe(ctx, "u1", &models.SwipeRequest{TargetID: "u2", Action: models.SwipeLike}); err != nil {
		t.Fatal(err)
	}
	res, err := f.svc.Swipe(ctx, "u2", &models.SwipeRequest{TargetID: "u1", Action: models.SwipePass})
	if err != nil {
		t.Fatal(err)
	}
	if res.Matched {
		t.Fatal("pass match oluşturmamalı")
	}
}

func TestSwipeSelfAndDuplicate(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()

	if _, err := f.svc.Swipe(ctx, "u1", &models.SwipeRequest{TargetID: "u1", Action: models.SwipeLike}); !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("kendine swipe ErrBadRequest olmalı, got %v", err)
	}

	if _, err := f.svc.Swipe(ctx, "u1", &models.SwipeRequest{TargetID: "u2", Action: models.SwipeLike}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Swipe(ctx, "u1", &models.SwipeRequest{TargetID: "u2", Action: models.SwipeLike}); !errors.Is(err, pkg.ErrAlreadyExists) {
		t.Fatalf("ikinci swipe ErrAlreadyExists olmalı, got %v", err)
	}
}

func TestUnmatchRemovesMatch(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()

	f.svc.Swipe(ctx, "u1", &models.SwipeRequest{TargetID: "u2", Action: models.SwipeLike})
	f.svc.Swipe(ctx, "u2", &models.SwipeRequest{TargetID: "u1", Action: models.SwipeLike})

	if err := f.svc.Unmatch(ctx, "u2", "u1"); err != nil {
		t.Fatal(err)
	}
	matched, err := f.svc.AreMatched(ctx, "u1", "u2")
	if err != nil {
		t.Fatal(err)
	}
	if matched {
		t.Fatal("unmatch sonrası AreMatched false dönmeli")
	}
}

func TestDiscoverExcludesSwiped(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	f.trips.overlaps = []models.TripOverlap{
		{Trip: models.Trip{ID: "t2", UserID: "u2"}, Destination: "Lisbon", OverlapDays: 4},
		{Trip: models.Trip{ID: "t3", UserID: "u3"}, Destination: "Chiang Mai", OverlapDays: 9},
	}

	candidates, err := f.svc.Discover(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("2 aday beklenir, got %d", len(candidates))
	}
	if candidates[1].OverlapDays != 9 || candidates[1].OverlapDestination != "Chiang Mai" {
		t.Fatalf("overlap bilgisi kart üzerinde taşınmalı, got %+v", candidates[1])
	}

	f.svc.Swipe(ctx, "u1", &models.SwipeRequest{TargetID: "u2", Action: models.SwipePass})

	candidates, err = f.svc.Discover(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].Profile.ID != "u3" {
		t.Fatalf("swipe edilen kullanıcı keşfetten düşmeli, got %+v", candidates)
	}
}

func TestListMatchesCarriesProfiles(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()

	f.svc.Swipe(ctx, "u1", &models.SwipeRequest{TargetID: "u2", Action: models.SwipeLike})
	f.svc.Swipe(ctx, "u2", &models.SwipeRequest{TargetID: "u1", Action: models.SwipeLike})

	list, err := f.svc.ListMatches(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Profile.ID != "u2" {
		t.Fatalf("u1'in match listesi u2 profilini taşımalı, got %+v", list)
	}
}
