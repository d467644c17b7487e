package repository

import (
	"context"

	"github.com/nomadnotes/nomadnotes/models"
)

type ConversationRepository interface {
	// GetOrCreate, iki kullanıcı arasındaki sohbeti döner; yoksa oluşturur.
	GetOrCreate(ctx context.Context, userA, userB string) (*models.Conversation, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]models.Conversation, error)

	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	UpdateMessageBody(ctx context.Context, id, body string) error
	DeleteMessage(ctx context.Context, id string) error
	ListMessages(ctx context.Context, conversationID string, before string, limit int) ([]models.Message, error)
	GetLastMessage(ctx context.Context, conversationID string) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int64, error)
	CountUnread(ctx context.Context, conversationID, readerID string) (int, error)

	// SearchMessages, kullanıcının sohbetlerinde FTS5 ile tam metin arama yapar.
	SearchMessages(ctx context.Context, userID, query string, limit int) ([]models.Message, error)
}
