package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Pantry item statuses. The state machine is monotone:
// NORMAL -> EXPIRING_SOON -> EXPIRED, never backward.
const (
	StatusNormal       = "NORMAL"
	StatusExpiringSoon = "EXPIRING_SOON"
	StatusExpired      = "EXPIRED"
)

// ExpiringSoonWindow is how far ahead of the expiration date an item is
// flagged as expiring soon.
const ExpiringSoonWindow = 3 * 24 * time.Hour

type PantryItem struct {
	ID             int64     `db:"id" json:"id"`
	OwnerID        int64     `db:"owner_id" json:"owner_id"`
	IngredientName string    `db:"ingredient_name" json:"ingredient_name"`
	ExpirationDate time.Time `db:"expiration_date" json:"expiration_date"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PantryStore reads and advances the inventory-item projection that the
// expiration scanner works on. Item CRUD beyond this minimal write path
// belongs to the surrounding application.
type PantryStore struct {
	db *sqlx.DB
}

func NewPantryStore(db *sqlx.DB) *PantryStore {
	return &PantryStore{db: db}
}

func (s *PantryStore) CreateItem(ctx context.Context, ownerID int64, ingredientName string, expirationDate time.Time) (*PantryItem, error) {
	item := &PantryItem{
		OwnerID:        ownerID,
		IngredientName: ingredientName,
		ExpirationDate: expirationDate.UTC(),
		Status:         StatusNormal,
		CreatedAt:      time.Now().UTC(),
	}

	query := s.db.Rebind(`
		INSERT INTO pantry_items (owner_id, ingredient_name, expiration_date, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query,
		item.OwnerID, item.IngredientName, item.ExpirationDate, item.Status, item.CreatedAt).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pantry item: %w", err)
	}
	return item, nil
}

func (s *PantryStore) ListByOwner(ctx context.Context, ownerID int64) ([]PantryItem, error) {
	items := []PantryItem{}
	query := s.db.Rebind(`
		SELECT * FROM pantry_items
		WHERE owner_id = ?
		ORDER BY expiration_date ASC
	`)
	if err := s.db.SelectContext(ctx, &items, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list pantry items: %w", err)
	}
	return items, nil
}

func (s *PantryStore) DeleteItem(ctx context.Context, id, ownerID int64) error {
	var itemOwner int64
	query := s.db.Rebind(`SELECT owner_id FROM pantry_items WHERE id = ?`)
	err := s.db.GetContext(ctx, &itemOwner, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load pantry item: %w", err)
	}
	if itemOwner != ownerID {
		return ErrAccessDenied
	}

	query = s.db.Rebind(`DELETE FROM pantry_items WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete pantry item: %w", err)
	}
	return nil
}

// MarkExpiringSoon transitions NORMAL items whose expiration date falls in
// [now, now+3d) to EXPIRING_SOON and returns the transitioned items. The
// select and the bulk status write share one transaction, so a crash never
// leaves an item half-transitioned; the status predicate makes each item
// transition at most once across scan runs.
func (s *PantryStore) MarkExpiringSoon(ctx context.Context, now time.Time) ([]PantryItem, error) {
	now = now.UTC()
	return s.transition(ctx, StatusExpiringSoon, `
		SELECT * FROM pantry_items
		WHERE status = ? AND expiration_date >= ? AND expiration_date < ?
		ORDER BY id
	`, StatusNormal, now, now.Add(ExpiringSoonWindow))
}

// MarkExpired transitions every not-yet-expired item with an expiration
// date before the deadline (tomorrow's midnight) to the terminal EXPIRED
// status and returns the transitioned items.
func (s *PantryStore) MarkExpired(ctx context.Context, deadline time.Time) ([]PantryItem, error) {
	return s.transition(ctx, StatusExpired, `
		SELECT * FROM pantry_items
		WHERE status <> ? AND expiration_date < ?
		ORDER BY id
	`, StatusExpired, deadline.UTC())
}

func (s *PantryStore) transition(ctx context.Context, newStatus, selectQuery string, args ...any) ([]PantryItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	items := []PantryItem{}
	if err := tx.SelectContext(ctx, &items, tx.Rebind(selectQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to select transition candidates: %w", err)
	}
	if len(items) == 0 {
		return nil, tx.Commit()
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	query, inArgs, err := sqlx.In(`UPDATE pantry_items SET status = ? WHERE id IN (?)`, newStatus, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build bulk status update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("failed to bulk-update item status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status transition: %w", err)
	}

	for i := range items {
		items[i].Status = newStatus
	}
	return items, nil
}
