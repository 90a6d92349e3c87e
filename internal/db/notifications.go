package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Notification kinds. The set is open: producers may introduce new kinds
// without a schema change.
const (
	KindLike         = "LIKE"
	KindComplaint    = "COMPLAINT"
	KindExpiringSoon = "EXPIRING_SOON"
	KindExpired      = "EXPIRED"
)

// DefaultPageSize is used when the list endpoint receives no size parameter.
const DefaultPageSize = 20

type Notification struct {
	ID          string          `db:"id" json:"id"`
	RecipientID int64           `db:"recipient_id" json:"recipient_id"`
	Kind        string          `db:"kind" json:"kind"`
	Title       string          `db:"title" json:"title"`
	Message     string          `db:"message" json:"message"`
	Payload     json.RawMessage `db:"payload" json:"payload,omitempty"`
	Read        bool            `db:"read" json:"read"`
	ReadAt      *time.Time      `db:"read_at" json:"read_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// NotificationStore is the durable side of the subsystem: records survive
// process restarts and disconnected recipients, the push channel does not.
type NotificationStore struct {
	db *sqlx.DB
}

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Create inserts an unread notification record and returns it.
func (s *NotificationStore) Create(ctx context.Context, recipientID int64, kind, title, message string, payload json.RawMessage) (*Notification, error) {
	n := &Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Kind:        kind,
		Title:       title,
		Message:     message,
		Payload:     payload,
		Read:        false,
		CreatedAt:   time.Now().UTC(),
	}

	var payloadText any
	if len(n.Payload) > 0 {
		payloadText = string(n.Payload)
	}

	query := s.db.Rebind(`
		INSERT INTO notifications (id, recipient_id, kind, title, message, payload, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.RecipientID, n.Kind, n.Title, n.Message, payloadText, n.Read, n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

// ListByRecipient returns one page of the recipient's notifications, newest
// first. Pages are 0-indexed.
func (s *NotificationStore) ListByRecipient(ctx context.Context, recipientID int64, page, size int) ([]Notification, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	notifications := []Notification{}
	query := s.db.Rebind(`
		SELECT * FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`)
	if err := s.db.SelectContext(ctx, &notifications, query, recipientID, size, page*size); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationStore) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	var count int
	query := s.db.Rebind(`
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = ? AND read = ?
	`)
	if err := s.db.GetContext(ctx, &count, query, recipientID, false); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead sets read=true and stamps read_at. Marking an already-read
// record again is a no-op success: read_at keeps its original value.
func (s *NotificationStore) MarkRead(ctx context.Context, id string, requesterID int64) error {
	var record struct {
		RecipientID int64 `db:"recipient_id"`
		Read        bool  `db:"read"`
	}
	query := s.db.Rebind(`SELECT recipient_id, read FROM notifications WHERE id = ?`)
	err := s.db.GetContext(ctx, &record, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load notification: %w", err)
	}
	if record.RecipientID != requesterID {
		return ErrAccessDenied
	}
	if record.Read {
		return nil
	}

	query = s.db.Rebind(`UPDATE notifications SET read = ?, read_at = ? WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, true, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread record owned by the recipient in one
// statement.
func (s *NotificationStore) MarkAllRead(ctx context.Context, recipientID int64) error {
	query := s.db.Rebind(`
		UPDATE notifications SET read = ?, read_at = ?
		WHERE recipient_id = ? AND read = ?
	`)
	if _, err := s.db.ExecContext(ctx, query, true, time.Now().UTC(), recipientID, false); err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

func (s *NotificationStore) Delete(ctx context.Context, id string, requesterID int64) error {
	var recipientID int64
	query := s.db.Rebind(`SELECT recipient_id FROM notifications WHERE id = ?`)
	err := s.db.GetContext(ctx, &recipientID, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load notification: %w", err)
	}
	if recipientID != requesterID {
		return ErrAccessDenied
	}

	query = s.db.Rebind(`DELETE FROM notifications WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// DeleteOlderThan bulk-deletes records created strictly before cutoff and
// returns the number deleted. A record aged exactly at the cutoff survives
// until the next sweep.
func (s *NotificationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := s.db.Rebind(`DELETE FROM notifications WHERE created_at < ?`)
	result, err := s.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted row count: %w", err)
	}
	return deleted, nil
}
