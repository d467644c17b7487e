package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type sqliteUserRepository struct {
	db *sql.DB
}

func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

const userColumns = `id, email, password_hash, display_name, bio, avatar_url, home_base, created_at, updated_at`

func (r *sqliteUserRepository) Create(ctx context.Context, user *models.User) error {
	now := formatTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, display_name, bio, avatar_url, home_base, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.DisplayName,
		nullStr(user.Bio), nullStr(user.AvatarURL), nullStr(user.HomeBase), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return pkg.Wrap(pkg.ErrAlreadyExists, "email already registered")
		}
		return fmt.Errorf("user create failed: %w", err)
	}
	return nil
}

func (r *sqliteUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *sqliteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *sqliteUserRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET display_name = ?, bio = ?, avatar_url = ?, home_base = ?, updated_at = ?
		WHERE id = ?`,
		user.DisplayName, nullStr(user.Bio), nullStr(user.AvatarURL), nullStr(user.HomeBase),
		formatTime(time.Now()), user.ID)
	if err != nil {
		return fmt.Errorf("user update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "user not found")
	}
	return nil
}

func (r *sqliteUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, formatTime(time.Now()), userID)
	if err != nil {
		return fmt.Errorf("password update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "user not found")
	}
	return nil
}

func (r *sqliteUserRepository) GetProfiles(ctx context.Context, ids []string) (map[string]models.PublicProfile, error) {
	if len(ids) == 0 {
		return map[string]models.PublicProfile{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, display_name, bio, avatar_url, home_base
		FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("profiles query failed: %w", err)
	}
	defer rows.Close()

	profiles := make(map[string]models.PublicProfile, len(ids))
	for rows.Next() {
		var p models.PublicProfile
		var bio, avatar, home sql.NullString
		if err := rows.Scan(&p.ID, &p.DisplayName, &bio, &avatar, &home); err != nil {
			return nil, fmt.Errorf("profile scan failed: %w", err)
		}
		p.Bio = strPtr(bio)
		p.AvatarURL = strPtr(avatar)
		p.HomeBase = strPtr(home)
		profiles[p.ID] = p
	}
	return profiles, rows.Err()
}

func (r *sqliteUserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	var bio, avatar, home sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName,
		&bio, &avatar, &home, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, pkg.Wrap(pkg.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("user scan failed: %w", err)
	}

	u.Bio = strPtr(bio)
	u.AvatarURL = strPtr(avatar)
	u.HomeBase = strPtr(home)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}
