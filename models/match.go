package models

import (
	"time"

	"github.com/nomadnotes/nomadnotes/pkg"
)

// Swipe aksiyonları.
const (
	SwipeLike = "like"
	SwipePass = "pass"
)

type Swipe struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TargetID  string    `json:"target_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// Match, iki kullanıcı birbirini beğendiğinde oluşur. user_a < user_b
// sıralaması repository'de garanti edilir; aynı çift için tek kayıt olur.
type Match struct {
	ID        string    `json:"id"`
	UserA     string    `json:"user_a"`
	UserB     string    `json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

// Other, match'teki karşı tarafın ID'sini döner.
func (m *Match) Other(userID string) string {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// MatchWithProfile, match listesi yanıtı.
type MatchWithProfile struct {
	Match
	Profile PublicProfile `json:"profile"`
}

type SwipeRequest struct {
	TargetID string `json:"target_id"`
	Action   string `json:"action"`
}

func (r *SwipeRequest) Validate() error {
	if r.TargetID == "" {
		return pkg.Wrap(pkg.ErrBadRequest, "target_id is required")
	}
	if r.Action != SwipeLike && r.Action != SwipePass {
		return pkg.Wrap(pkg.ErrBadRequest, "action must be like or pass")
	}
	return nil
}

// SwipeResult, swipe sonucu. Matched true ise karşılıklı beğeni oluşmuştur.
type SwipeResult struct {
	Matched bool   `json:"matched"`
	Match   *Match `json:"match,omitempty"`
}

// CandidateProfile, keşfet akışındaki kart. Overlap alanları, kullanıcının
// gezileriyle kesişen gezi bilgisini taşır.
type CandidateProfile struct {
	Profile            PublicProfile `json:"profile"`
	OverlapDestination string        `json:"overlap_destination,omitempty"`
	OverlapDays        int           `json:"overlap_days,omitempty"`
}
