package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type sqliteNotificationRepository struct {
	db *sql.DB
}

func NewSQLiteNotificationRepository(db *sql.DB) NotificationRepository {
	return &sqliteNotificationRepository{db: db}
}

func (r *sqliteNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Kind, string(n.Payload), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("notification create failed: %w", err)
	}
	return nil
}

func (r *sqliteNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, user_id, kind, payload, read_at, created_at FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("notification list failed: %w", err)
	}
	defer rows.Close()

	var notifs []models.Notification
	for rows.Next() {
		var n models.Notification
		var payload, createdAt string
		var readAt sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &payload, &readAt, &createdAt); err != nil {
			return nil, fmt.Errorf("notification scan failed: %w", err)
		}
		n.Payload = []byte(payload)
		n.ReadAt = parseTimePtr(readAt)
		n.CreatedAt = parseTime(createdAt)
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

func (r *sqliteNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = ?
		WHERE id = ? AND user_id = ? AND read_at IS NULL`,
		formatTime(time.Now()), notificationID, userID)
	if err != nil {
		return fmt.Errorf("notification mark read failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "notification not found")
	}
	return nil
}

func (r *sqliteNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = ?
		WHERE user_id = ? AND read_at IS NULL`,
		formatTime(time.Now()), userID)
	if err != nil {
		return 0, fmt.Errorf("notification mark all read failed: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqliteNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread notification count failed: %w", err)
	}
	return count, nil
}

type sqliteCallLogRepository struct {
	db *sql.DB
}

func NewSQLiteCallLogRepository(db *sql.DB) CallLogRepository {
	return &sqliteCallLogRepository{db: db}
}

func (r *sqliteCallLogRepository) Create(ctx context.Context, log *models.CallLog) error {
	var endedAt any
	if log.EndedAt != nil {
		endedAt = formatTime(*log.EndedAt)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO call_logs (id, caller_id, callee_id, call_type, outcome, started_at, ended_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.CallerID, log.CalleeID, log.CallType, log.Outcome,
		formatTime(log.StartedAt), endedAt, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("call log create failed: %w", err)
	}
	return nil
}

func (r *sqliteCallLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.CallLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, caller_id, callee_id, call_type, outcome, started_at, ended_at, created_at
		FROM call_logs
		WHERE caller_id = ? OR callee_id = ?
		ORDER BY started_at DESC LIMIT ?`, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("call log list failed: %w", err)
	}
	defer rows.Close()

	var logs []models.CallLog
	for rows.Next() {
		var l models.CallLog
		var startedAt, createdAt string
		var endedAt sql.NullString
		if err := rows.Scan(&l.ID, &l.CallerID, &l.CalleeID, &l.CallType,
			&l.Outcome, &startedAt, &endedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("call log scan failed: %w", err)
		}
		l.StartedAt = parseTime(startedAt)
		l.EndedAt = parseTimePtr(endedAt)
		l.CreatedAt = parseTime(createdAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
