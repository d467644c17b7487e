package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/repository"
	"github.com/nomadnotes/nomadnotes/ws"
)

type NotificationService interface {
	// Notify, bildirimi kaydeder ve kullanıcı online ise WebSocket'ten iter.
	Notify(ctx context.Context, userID, kind string, payload any)
	List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
	publisher     ws.EventPublisher
}

func NewNotificationService(notifications repository.NotificationRepository, publisher ws.EventPublisher) NotificationService {
	return &notificationService{notifications: notifications, publisher: publisher}
}

func (s *notificationService) Notify(ctx context.Context, userID, kind string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[notification] payload marshal failed: kind=%s err=%v", kind, err)
		return
	}

	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		log.Printf("[notification] create failed: user=%s kind=%s err=%v", userID, kind, err)
		return
	}

	s.publisher.SendToUser(userID, ws.OpNotification, n)
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly, 50)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.notifications.MarkRead(ctx, userID, notificationID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}
