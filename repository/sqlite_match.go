package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/database"
	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type sqliteMatchRepository struct {
	db *sql.DB
}

func NewSQLiteMatchRepository(db *sql.DB) MatchRepository {
	return &sqliteMatchRepository{db: db}
}

func (r *sqliteMatchRepository) RecordSwipe(ctx context.Context, swipe *models.Swipe) (*models.Match, error) {
	var match *models.Match

	// Swipe insert'i ve olası match insert'i aynı transaction'da yapılır,
	// aksi halde iki kullanıcı aynı anda like atınca match kaybolabilir.
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO swipes (id, user_id, target_id, action, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			swipe.ID, swipe.UserID, swipe.TargetID, swipe.Action, formatTime(time.Now()))
		if err != nil {
			if isUniqueViolation(err) {
				return pkg.Wrap(pkg.ErrAlreadyExists, "already swiped on this user")
			}
			return fmt.Errorf("swipe insert failed: %w", err)
		}

		if swipe.Action != models.SwipeLike {
			return nil
		}

		// Karşılıklı like kontrolü.
		var count int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM swipes
			WHERE user_id = ? AND target_id = ? AND action = ?`,
			swipe.TargetID, swipe.UserID, models.SwipeLike).Scan(&count)
		if err != nil {
			return fmt.Errorf("mutual like check failed: %w", err)
		}
		if count == 0 {
			return nil
		}

		a, b := sortPair(swipe.UserID, swipe.TargetID)
		m := &models.Match{
			ID:        uuid.NewString(),
			UserA:     a,
			UserB:     b,
			CreatedAt: time.Now().UTC(),
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO matches (id, user_a, user_b, created_at)
			VALUES (?, ?, ?, ?)`,
			m.ID, m.UserA, m.UserB, formatTime(m.CreatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return fmt.Errorf("match insert failed: %w", err)
		}

		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *sqliteMatchRepository) ListMatches(ctx context.Context, userID string) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_a, user_b, created_at FROM matches
		WHERE user_a = ? OR user_b = ?
		ORDER BY created_at DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("match list failed: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		var createdAt string
		if err := rows.Scan(&m.ID, &m.UserA, &m.UserB, &createdAt); err != nil {
			return nil, fmt.Errorf("match scan failed: %w", err)
		}
		m.CreatedAt = parseTime(createdAt)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *sqliteMatchRepository) GetMatch(ctx context.Context, userA, userB string) (*models.Match, error) {
	a, b := sortPair(userA, userB)

	var m models.Match
	var createdAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_a, user_b, created_at FROM matches
		WHERE user_a = ? AND user_b = ?`, a, b).
		Scan(&m.ID, &m.UserA, &m.UserB, &createdAt)
	if err == sql.ErrNoRows {
		return nil, pkg.Wrap(pkg.ErrNotFound, "match not found")
	}
	if err != nil {
		return nil, fmt.Errorf("match scan failed: %w", err)
	}

	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

func (r *sqliteMatchRepository) ListSwipedTargets(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT target_id FROM swipes WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("swiped targets query failed: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("swiped target scan failed: %w", err)
		}
		targets = append(targets, id)
	}
	return targets, rows.Err()
}

func (r *sqliteMatchRepository) DeleteMatch(ctx context.Context, userID, otherID string) error {
	a, b := sortPair(userID, otherID)
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM matches WHERE user_a = ? AND user_b = ?`, a, b)
	if err != nil {
		return fmt.Errorf("match delete failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "match not found")
	}
	return nil
}
