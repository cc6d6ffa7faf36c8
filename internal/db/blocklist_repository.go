package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/models"
)

// BlocklistRepository gates phone numbers out of routing.
type BlocklistRepository interface {
	IsBlocked(phone string) (bool, error)
	Block(phone, blockedBy string, reason *string) error
	Unblock(phone string) error
	List() ([]*models.BlockedNumber, error)
}

type blocklistRepository struct {
	db *sql.DB
}

// NewBlocklistRepository creates a new BlocklistRepository
func NewBlocklistRepository(db *sql.DB) BlocklistRepository {
	return &blocklistRepository{db: db}
}

// IsBlocked reports whether the phone number is on the blocklist.
func (r *blocklistRepository) IsBlocked(phone string) (bool, error) {
	if phone == "" {
		return false, fmt.Errorf("phone cannot be empty")
	}

	var exists int
	err := r.db.QueryRow(`SELECT 1 FROM blocked_numbers WHERE phone = ?`, phone).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blocklist: %w", err)
	}
	return true, nil
}

// Block adds a phone to the blocklist. Blocking an already-blocked number is
// a no-op.
func (r *blocklistRepository) Block(phone, blockedBy string, reason *string) error {
	if phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}
	if blockedBy == "" {
		return fmt.Errorf("blockedBy cannot be empty")
	}

	_, err := r.db.Exec(
		`INSERT OR IGNORE INTO blocked_numbers (phone, blocked_by, reason, created_at) VALUES (?, ?, ?, ?)`,
		phone, blockedBy, reason, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to block number: %w", err)
	}
	return nil
}

// Unblock removes a phone from the blocklist.
func (r *blocklistRepository) Unblock(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}

	result, err := r.db.Exec(`DELETE FROM blocked_numbers WHERE phone = ?`, phone)
	if err != nil {
		return fmt.Errorf("failed to unblock number: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("number not blocked")
	}
	return nil
}

// List returns all blocked numbers, newest first.
func (r *blocklistRepository) List() ([]*models.BlockedNumber, error) {
	rows, err := r.db.Query(`SELECT phone, blocked_by, reason, created_at FROM blocked_numbers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked numbers: %w", err)
	}
	defer rows.Close()

	var blocked []*models.BlockedNumber
	for rows.Next() {
		b := &models.BlockedNumber{}
		if err := rows.Scan(&b.Phone, &b.BlockedBy, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blocked number: %w", err)
		}
		blocked = append(blocked, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocked numbers: %w", err)
	}
	return blocked, nil
}
