package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats, admin panelindeki özet sayılar.
type Stats struct {
	Users         int64 `json:"users"`
	Trips         int64 `json:"trips"`
	GearListings  int64 `json:"gear_listings"`
	Bookings      int64 `json:"bookings"`
	Matches       int64 `json:"matches"`
	Messages      int64 `json:"messages"`
	CallsRecorded int64 `json:"calls_recorded"`
}

type StatsRepository interface {
	Collect(ctx context.Context) (*Stats, error)
}

type sqliteStatsRepository struct {
	db *sql.DB
}

func NewSQLiteStatsRepository(db *sql.DB) StatsRepository {
	return &sqliteStatsRepository{db: db}
}

func (r *sqliteStatsRepository) Collect(ctx context.Context) (*Stats, error) {
	var s Stats
	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM users`, &s.Users},
		{`SELECT COUNT(*) FROM trips`, &s.Trips},
		{`SELECT COUNT(*) FROM gear WHERE is_listed = 1`, &s.GearListings},
		{`SELECT COUNT(*) FROM bookings`, &s.Bookings},
		{`SELECT COUNT(*) FROM matches`, &s.Matches},
		{`SELECT COUNT(*) FROM messages`, &s.Messages},
		{`SELECT COUNT(*) FROM call_logs`, &s.CallsRecorded},
	}

	for _, c := range counts {
		if err := r.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats query failed: %w", err)
		}
	}
	return &s, nil
}
