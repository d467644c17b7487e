package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type sqliteConversationRepository struct {
	db *sql.DB
}

func NewSQLiteConversationRepository(db *sql.DB) ConversationRepository {
	return &sqliteConversationRepository{db: db}
}

const conversationColumns = `id, user_a, user_b, last_message_at, created_at`

func (r *sqliteConversationRepository) GetOrCreate(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	a, b := sortPair(userA, userB)

	conv, err := r.getByPair(ctx, a, b)
	if err == nil {
		return conv, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("conversation lookup failed: %w", err)
	}

	c := &models.Conversation{
		ID:        uuid.NewString(),
		UserA:     a,
		UserB:     b,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_a, user_b, created_at)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.UserA, c.UserB, formatTime(c.CreatedAt))
	if err != nil {
		// İki istek aynı anda oluşturmaya çalışırsa kazanan kayıt okunur.
		if isUniqueViolation(err) {
			conv, lookupErr := r.getByPair(ctx, a, b)
			if lookupErr != nil {
				return nil, fmt.Errorf("conversation lookup after conflict failed: %w", lookupErr)
			}
			return conv, nil
		}
		return nil, fmt.Errorf("conversation create failed: %w", err)
	}
	return c, nil
}

func (r *sqliteConversationRepository) getByPair(ctx context.Context, a, b string) (*models.Conversation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE user_a = ? AND user_b = ?`, a, b)
	return scanConversation(row.Scan)
}

func (r *sqliteConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	c, err := scanConversation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, pkg.Wrap(pkg.ErrNotFound, "conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("conversation scan failed: %w", err)
	}
	return c, nil
}

func (r *sqliteConversationRepository) ListByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE user_a = ? OR user_b = ?
		ORDER BY COALESCE(last_message_at, created_at) DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("conversation list failed: %w", err)
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("conversation scan failed: %w", err)
		}
		convs = append(convs, *c)
	}
	return convs, rows.Err()
}

func (r *sqliteConversationRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	now := formatTime(m.CreatedAt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, body, image_url, client_tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.SenderID, m.Body,
		nullStr(m.ImageURL), nullStr(m.ClientTag), now)
	if err != nil {
		return fmt.Errorf("message create failed: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE conversations SET last_message_at = ? WHERE id = ?`,
		now, m.ConversationID)
	if err != nil {
		return fmt.Errorf("conversation touch failed: %w", err)
	}
	return nil
}

const messageColumns = `id, conversation_id, sender_id, body, image_url, client_tag, created_at, edited_at, read_at`

func (r *sqliteConversationRepository) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, pkg.Wrap(pkg.ErrNotFound, "message not found")
	}
	if err != nil {
		return nil, fmt.Errorf("message scan failed: %w", err)
	}
	return m, nil
}

func (r *sqliteConversationRepository) UpdateMessageBody(ctx context.Context, id, body string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET body = ?, edited_at = ? WHERE id = ?`,
		body, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("message update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "message not found")
	}
	return nil
}

func (r *sqliteConversationRepository) DeleteMessage(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("message delete failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "message not found")
	}
	return nil
}

func (r *sqliteConversationRepository) ListMessages(ctx context.Context, conversationID, before string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = ?`
	args := []any{conversationID}

	// Keyset pagination: before, bir mesaj ID'sidir; o mesajdan eskiler döner.
	if before != "" {
		query += ` AND created_at < (SELECT created_at FROM messages WHERE id = ?)`
		args = append(args, before)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("message list failed: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (r *sqliteConversationRepository) GetLastMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC LIMIT 1`, conversationID)
	m, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last message scan failed: %w", err)
	}
	return m, nil
}

func (r *sqliteConversationRepository) MarkRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET read_at = ?
		WHERE conversation_id = ? AND sender_id != ? AND read_at IS NULL`,
		formatTime(time.Now()), conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark read failed: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqliteConversationRepository) CountUnread(ctx context.Context, conversationID, readerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = ? AND sender_id != ? AND read_at IS NULL`,
		conversationID, readerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread count failed: %w", err)
	}
	return count, nil
}

func (r *sqliteConversationRepository) SearchMessages(ctx context.Context, userID, query string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.sender_id, m.body, m.image_url, m.client_tag, m.created_at, m.edited_at, m.read_at
		FROM messages_fts f
		JOIN messages m ON m.rowid = f.rowid
		JOIN conversations c ON c.id = m.conversation_id
		WHERE messages_fts MATCH ?
		  AND (c.user_a = ? OR c.user_b = ?)
		ORDER BY m.created_at DESC
		LIMIT ?`, query, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("message search failed: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]models.Message, error) {
	var msgs []models.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("message scan failed: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func scanMessage(scan func(dest ...any) error) (*models.Message, error) {
	var m models.Message
	var imageURL, clientTag, editedAt, readAt sql.NullString
	var createdAt string

	err := scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body,
		&imageURL, &clientTag, &createdAt, &editedAt, &readAt)
	if err != nil {
		return nil, err
	}

	m.ImageURL = strPtr(imageURL)
	m.ClientTag = strPtr(clientTag)
	m.CreatedAt = parseTime(createdAt)
	m.EditedAt = parseTimePtr(editedAt)
	m.ReadAt = parseTimePtr(readAt)
	return &m, nil
}

func scanConversation(scan func(dest ...any) error) (*models.Conversation, error) {
	var c models.Conversation
	var lastMessageAt sql.NullString
	var createdAt string

	err := scan(&c.ID, &c.UserA, &c.UserB, &lastMessageAt, &createdAt)
	if err != nil {
		return nil, err
	}

	c.LastMessageAt = parseTimePtr(lastMessageAt)
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}
