package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/pkg/metrics"
	"github.com/nomadnotes/nomadnotes/repository"
	"github.com/nomadnotes/nomadnotes/ws"
)

type MessageService interface {
	// OpenConversation, karşı tarafla sohbet açar. Taraflar match değilse ve
	// aralarında booking yoksa izin verilmez.
	OpenConversation(ctx context.Context, userID, otherID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	Send(ctx context.Context, userID, conversationID string, req *models.SendMessageRequest) (*models.Message, error)
	// Edit, gönderenin kendi mesajının gövdesini değiştirir.
	Edit(ctx context.Context, userID, conversationID, messageID, body string) (*models.Message, error)
	// Delete, gönderenin kendi mesajını siler.
	Delete(ctx context.Context, userID, conversationID, messageID string) error
	History(ctx context.Context, userID, conversationID, before string, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, userID, conversationID string) error
	Search(ctx context.Context, userID, query string) ([]models.Message, error)

	// NotifyTyping, yazıyor göstergesini karşı tarafa iletir.
	NotifyTyping(ctx context.Context, userID string, p ws.TypingPayload)
}

// matchChecker, mesaj ve arama servislerinin MatchService'e olan dar
// bağımlılığı.
type matchChecker interface {
	AreMatched(ctx context.Context, userA, userB string) (bool, error)
}

type messageService struct {
	conversations repository.ConversationRepository
	bookings      repository.BookingRepository
	gear          repository.GearRepository
	users         repository.UserRepository
	matches       matchChecker
	publisher     ws.EventPublisher
	notifications NotificationService
}

func NewMessageService(
	conversations repository.ConversationRepository,
	bookings repository.BookingRepository,
	gear repository.GearRepository,
	users repository.UserRepository,
	matches matchChecker,
	publisher ws.EventPublisher,
	notifications NotificationService,
) MessageService {
	return &messageService{
		conversations: conversations,
		bookings:      bookings,
		gear:          gear,
		users:         users,
		matches:       matches,
		publisher:     publisher,
		notifications: notifications,
	}
}

func (s *messageService) OpenConversation(ctx context.Context, userID, otherID string) (*models.Conversation, error) {
	if userID == otherID {
		return nil, pkg.Wrap(pkg.ErrBadRequest, "cannot message yourself")
	}
	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	allowed, err := s.canConverse(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, pkg.Wrap(pkg.ErrForbidden, "you can only message matches or booking partners")
	}

	return s.conversations.GetOrCreate(ctx, userID, otherID)
}

// canConverse: match varsa veya taraflar arasında bir booking varsa true.
func (s *messageService) canConverse(ctx context.Context, userID, otherID string) (bool, error) {
	matched, err := s.matches.AreMatched(ctx, userID, otherID)
	if err != nil {
		return false, err
	}
	if matched {
		return true, nil
	}

	// Booking ilişkisi iki yönlü kontrol edilir: userID renter olabilir,
	// otherID gear sahibi olabilir — veya tersi.
	for _, pair := range [][2]string{{userID, otherID}, {otherID, userID}} {
		renter, owner := pair[0], pair[1]
		bookings, err := s.bookings.ListByRenter(ctx, renter)
		if err != nil {
			return false, err
		}
		for _, b := range bookings {
			g, err := s.gear.GetByID(ctx, b.GearID)
			if err != nil {
				continue
			}
			if g.OwnerID == owner {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *messageService) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	convs, err := s.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return []models.ConversationSummary{}, nil
	}

	peerIDs := make([]string, 0, len(convs))
	for _, c := range convs {
		peerIDs = append(peerIDs, c.Other(userID))
	}
	profiles, err := s.users.GetProfiles(ctx, peerIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		last, err := s.conversations.GetLastMessage(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		unread, err := s.conversations.CountUnread(ctx, c.ID, userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.ConversationSummary{
			Conversation: c,
			Peer:         profiles[c.Other(userID)],
			LastMessage:  last,
			UnreadCount:  unread,
		})
	}
	return summaries, nil
}

func (s *messageService) Send(ctx context.Context, userID, conversationID string, req *models.SendMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	conv, err := s.memberConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       userID,
		Body:           req.Body,
		ImageURL:       req.ImageURL,
		ClientTag:      req.ClientTag,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.conversations.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.Inc()

	// Karşı taraf online ise anında iletilir, değilse bildirim düşer.
	other := conv.Other(userID)
	if !s.publisher.SendToUser(other, ws.OpMessageReceive, msg) {
		s.notifications.Notify(ctx, other, models.NotifNewMessage, map[string]any{
			"conversation_id": conv.ID,
			"message_id":      msg.ID,
			"sender_id":       userID,
		})
	}

	return msg, nil
}

func (s *messageService) Edit(ctx context.Context, userID, conversationID, messageID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > 4000 {
		return nil, pkg.Wrap(pkg.ErrBadRequest, "body must be 1-4000 characters")
	}

	conv, msg, err := s.ownMessage(ctx, userID, conversationID, messageID)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.UpdateMessageBody(ctx, msg.ID, body); err != nil {
		return nil, err
	}

	updated, err := s.conversations.GetMessage(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	s.publisher.SendToUser(conv.Other(userID), ws.OpMessageUpdate, updated)
	return updated, nil
}

func (s *messageService) Delete(ctx context.Context, userID, conversationID, messageID string) error {
	conv, msg, err := s.ownMessage(ctx, userID, conversationID, messageID)
	if err != nil {
		return err
	}

	if err := s.conversations.DeleteMessage(ctx, msg.ID); err != nil {
		return err
	}

	s.publisher.SendToUser(conv.Other(userID), ws.OpMessageDelete, map[string]string{
		"conversation_id": conv.ID,
		"message_id":      msg.ID,
	})
	return nil
}

// ownMessage, mesajın sohbete ait olduğunu ve göndereninin userID olduğunu
// doğrular.
func (s *messageService) ownMessage(ctx context.Context, userID, conversationID, messageID string) (*models.Conversation, *models.Message, error) {
	conv, err := s.memberConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, nil, err
	}
	msg, err := s.conversations.GetMessage(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	if msg.ConversationID != conv.ID {
		return nil, nil, pkg.Wrap(pkg.ErrNotFound, "message not found")
	}
	if msg.SenderID != userID {
		return nil, nil, pkg.Wrap(pkg.ErrForbidden, "not your message")
	}
	return conv, msg, nil
}

func (s *messageService) History(ctx context.Context, userID, conversationID, before string, limit int) ([]models.Message, error) {
	if _, err := s.memberConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.conversations.ListMessages(ctx, conversationID, before, limit)
}

func (s *messageService) MarkRead(ctx context.Context, userID, conversationID string) error {
	if _, err := s.memberConversation(ctx, userID, conversationID); err != nil {
		return err
	}

	n, err := s.conversations.MarkRead(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[message] marked read: conversation=%s reader=%s count=%d", conversationID, userID, n)
	}
	return nil
}

func (s *messageService) Search(ctx context.Context, userID, query string) ([]models.Message, error) {
	if query == "" {
		return nil, pkg.Wrap(pkg.ErrBadRequest, "search query is required")
	}
	return s.conversations.SearchMessages(ctx, userID, query, 20)
}

func (s *messageService) NotifyTyping(ctx context.Context, userID string, p ws.TypingPayload) {
	conv, err := s.memberConversation(ctx, userID, p.ConversationID)
	if err != nil {
		return
	}

	s.publisher.SendToUser(conv.Other(userID), ws.OpTyping, ws.TypingPayload{
		To:             conv.Other(userID),
		ConversationID: conv.ID,
	})
}

func (s *messageService) memberConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasMember(userID) {
		return nil, pkg.Wrap(pkg.ErrForbidden, "not your conversation")
	}
	return conv, nil
}
