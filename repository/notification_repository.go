package repository

import (
	"context"

	"github.com/nomadnotes/nomadnotes/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

type CallLogRepository interface {
	Create(ctx context.Context, log *models.CallLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.CallLog, error)
}
