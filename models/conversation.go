package models

import (
	"strings"
	"time"

	"github.com/nomadnotes/nomadnotes/pkg"
)

// Conversation, iki kullanıcı arasındaki 1:1 sohbet. user_a < user_b
// sıralaması repository'de garanti edilir.
type Conversation struct {
	ID            string     `json:"id"`
	UserA         string     `json:"user_a"`
	UserB         string     `json:"user_b"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// HasMember, kullanıcı bu sohbetin tarafı mı.
func (c *Conversation) HasMember(userID string) bool {
	return c.UserA == userID || c.UserB == userID
}

// Other, sohbetteki karşı tarafın ID'sini döner.
func (c *Conversation) Other(userID string) string {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Body           string     `json:"body"`
	ImageURL       *string    `json:"image_url,omitempty"`
	ClientTag      *string    `json:"client_tag,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// ConversationSummary, sohbet listesi satırı.
type ConversationSummary struct {
	Conversation
	Peer        PublicProfile `json:"peer"`
	LastMessage *Message      `json:"last_message,omitempty"`
	UnreadCount int           `json:"unread_count"`
}

type SendMessageRequest struct {
	Body      string  `json:"body"`
	ImageURL  *string `json:"image_url,omitempty"`
	ClientTag *string `json:"client_tag,omitempty"`
}

func (r *SendMessageRequest) Validate() error {
	r.Body = strings.TrimSpace(r.Body)
	if r.Body == "" && r.ImageURL == nil {
		return pkg.Wrap(pkg.ErrBadRequest, "message body or image is required")
	}
	if len(r.Body) > 4000 {
		return pkg.Wrap(pkg.ErrBadRequest, "message body must be at most 4000 characters")
	}
	return nil
}
