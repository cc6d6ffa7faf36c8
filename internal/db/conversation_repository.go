package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/models"
)

// ConversationRepository defines the conversation data access contract.
type ConversationRepository interface {
	FindOrCreate(sender, recipient, bankID, simPort string) (*models.Conversation, error)
	GetByPair(sender, recipient string) (*models.Conversation, error)
	GetByID(id int64) (*models.Conversation, error)
	FindLatestByPhone(phone string) (*models.Conversation, error)
	UpdateThreadRef(id int64, threadRef string) error
	Touch(id int64) error
	UpdateICCID(id int64, iccid string) error
}

type conversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *sql.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

const conversationColumns = `id, sender_phone, recipient_phone, bank_id, sim_port, thread_ref, iccid, last_activity`

// FindOrCreate returns the conversation for the (sender, recipient) pair,
// creating it if absent. The insert is a no-op on a uniqueness conflict and
// is always followed by a re-read, so concurrent calls for a brand-new pair
// race to insert, exactly one insert wins, and every caller converges on the
// same row.
func (r *conversationRepository) FindOrCreate(sender, recipient, bankID, simPort string) (*models.Conversation, error) {
	if sender == "" || recipient == "" {
		return nil, fmt.Errorf("sender and recipient are required")
	}

	conv, err := r.GetByPair(sender, recipient)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	_, err = r.db.Exec(
		`INSERT OR IGNORE INTO conversations
			(sender_phone, recipient_phone, bank_id, sim_port, last_activity)
		VALUES (?, ?, ?, ?, ?)`,
		sender, recipient, bankID, simPort, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	conv, err = r.GetByPair(sender, recipient)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation for %s/%s missing after insert", sender, recipient)
	}
	return conv, nil
}

// GetByPair retrieves a conversation by its unique phone pair. Returns
// (nil, nil) when no row exists.
func (r *conversationRepository) GetByPair(sender, recipient string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE sender_phone = ? AND recipient_phone = ?`
	return r.scanOne(r.db.QueryRow(query, sender, recipient))
}

// GetByID retrieves a conversation by row id. Returns (nil, nil) when no row
// exists.
func (r *conversationRepository) GetByID(id int64) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// FindLatestByPhone retrieves the most recently active conversation
// involving the given phone on either side. Returns (nil, nil) when none
// exists.
func (r *conversationRepository) FindLatestByPhone(phone string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE sender_phone = ? OR recipient_phone = ?
		ORDER BY last_activity DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, phone, phone))
}

func (r *conversationRepository) scanOne(row *sql.Row) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := row.Scan(
		&conv.ID,
		&conv.SenderPhone,
		&conv.RecipientPhone,
		&conv.BankID,
		&conv.SimPort,
		&conv.ThreadRef,
		&conv.ICCID,
		&conv.LastActivity,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	return conv, nil
}

// UpdateThreadRef stores the chat thread reference after the first
// successful post.
func (r *conversationRepository) UpdateThreadRef(id int64, threadRef string) error {
	return r.exec(`UPDATE conversations SET thread_ref = ?, last_activity = ? WHERE id = ?`,
		threadRef, time.Now().Unix(), id)
}

// Touch refreshes the last-activity timestamp.
func (r *conversationRepository) Touch(id int64) error {
	return r.exec(`UPDATE conversations SET last_activity = ? WHERE id = ?`, time.Now().Unix(), id)
}

// UpdateICCID records the SIM serial reported with an inbound message.
func (r *conversationRepository) UpdateICCID(id int64, iccid string) error {
	return r.exec(`UPDATE conversations SET iccid = ? WHERE id = ?`, iccid, id)
}

func (r *conversationRepository) exec(query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("conversation not found")
	}
	return nil
}
