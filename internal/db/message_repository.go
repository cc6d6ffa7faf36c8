package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/models"
)

// MessageRepository defines the message data access contract. Messages are
// an append-only log: no update or delete operations exist.
type MessageRepository interface {
	Add(msg *models.Message) error
	ListByConversation(conversationID int64, limit, offset int) ([]*models.Message, error)
	CountByConversation(conversationID int64) (int, error)
}

type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Add appends a message to its conversation's log.
func (r *messageRepository) Add(msg *models.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if msg.ConversationID == 0 {
		return fmt.Errorf("conversation id is required")
	}
	if msg.Direction != models.DirectionInbound && msg.Direction != models.DirectionOutbound {
		return fmt.Errorf("invalid direction %q", msg.Direction)
	}
	if msg.Content == "" {
		return fmt.Errorf("message content is required")
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().Unix()
	}
	if msg.Status == "" {
		msg.Status = "received"
	}

	result, err := r.db.Exec(
		`INSERT INTO messages (conversation_id, direction, content, sent_by, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ConversationID, msg.Direction, msg.Content, msg.SentBy, msg.Status, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}

	msg.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get message id: %w", err)
	}
	return nil
}

// ListByConversation returns a page of a conversation's messages, newest
// first.
func (r *messageRepository) ListByConversation(conversationID int64, limit, offset int) ([]*models.Message, error) {
	if conversationID == 0 {
		return nil, fmt.Errorf("conversation id is required")
	}
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(
		`SELECT id, conversation_id, direction, content, sent_by, status, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		conversationID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Direction, &msg.Content, &msg.SentBy, &msg.Status, &msg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// CountByConversation returns the number of messages in a conversation.
func (r *messageRepository) CountByConversation(conversationID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
