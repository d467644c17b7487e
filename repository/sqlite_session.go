package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type sqliteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) SessionRepository {
	return &sqliteSessionRepository{db: db}
}

func (r *sqliteSessionRepository) Create(ctx context.Context, s *models.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, refresh_token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.RefreshTokenHash, formatTime(s.ExpiresAt), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("session create failed: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	var s models.Session
	var expiresAt, createdAt string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, refresh_token_hash, expires_at, created_at
		FROM sessions WHERE refresh_token_hash = ?`, tokenHash).
		Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, pkg.Wrap(pkg.ErrUnauthorized, "session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("session scan failed: %w", err)
	}

	s.ExpiresAt = parseTime(expiresAt)
	s.CreatedAt = parseTime(createdAt)
	return &s, nil
}

func (r *sqliteSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session delete failed: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("session delete failed: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("expired session cleanup failed: %w", err)
	}
	return res.RowsAffected()
}

type sqliteResetTokenRepository struct {
	db *sql.DB
}

func NewSQLiteResetTokenRepository(db *sql.DB) ResetTokenRepository {
	return &sqliteResetTokenRepository{db: db}
}

func (r *sqliteResetTokenRepository) Create(ctx context.Context, t *models.PasswordResetToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, formatTime(t.ExpiresAt), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("reset token create failed: %w", err)
	}
	return nil
}

func (r *sqliteResetTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	var expiresAt, createdAt string
	var usedAt sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_reset_tokens WHERE token_hash = ?`, tokenHash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &expiresAt, &usedAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, pkg.Wrap(pkg.ErrNotFound, "reset token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("reset token scan failed: %w", err)
	}

	t.ExpiresAt = parseTime(expiresAt)
	t.UsedAt = parseTimePtr(usedAt)
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

func (r *sqliteResetTokenRepository) MarkUsed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used_at = ? WHERE id = ?`,
		formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("reset token update failed: %w", err)
	}
	return nil
}
