// Package scanner detects pantry-item expiration transitions and drives
// the dispatcher once per transition.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"freshkeeper/internal/db"
)

// Notifier is the slice of the dispatcher the scanner needs.
// *dispatch.Dispatcher implements it.
type Notifier interface {
	NotifyExpiringSoon(ctx context.Context, ownerID int64, ingredientName string, expirationDate time.Time) error
	NotifyExpired(ctx context.Context, ownerID int64, ingredientName string, expirationDate time.Time) error
}

type Scanner struct {
	pantry   *db.PantryStore
	notifier Notifier
}

func New(pantry *db.PantryStore, notifier Notifier) *Scanner {
	return &Scanner{pantry: pantry, notifier: notifier}
}

// Run executes one scan cycle against the current wall clock.
func (s *Scanner) Run(ctx context.Context) error {
	return s.runCycle(ctx, time.Now().UTC())
}

// runCycle processes the EXPIRING_SOON phase to completion before starting
// the EXPIRED phase. Each phase's status write is transactional; per-item
// dispatch failures are logged and skipped so one bad item never blocks
// the rest of the batch.
func (s *Scanner) runCycle(ctx context.Context, now time.Time) error {
	expiringSoon, err := s.pantry.MarkExpiringSoon(ctx, now)
	if err != nil {
		return fmt.Errorf("expiring-soon phase failed: %w", err)
	}
	for _, item := range expiringSoon {
		if err := s.notifier.NotifyExpiringSoon(ctx, item.OwnerID, item.IngredientName, item.ExpirationDate); err != nil {
			slog.Error("failed to dispatch expiring-soon notification",
				"error", err, "item_id", item.ID, "owner_id", item.OwnerID)
		}
	}

	expired, err := s.pantry.MarkExpired(ctx, tomorrowMidnight(now))
	if err != nil {
		return fmt.Errorf("expired phase failed: %w", err)
	}
	for _, item := range expired {
		if err := s.notifier.NotifyExpired(ctx, item.OwnerID, item.IngredientName, item.ExpirationDate); err != nil {
			slog.Error("failed to dispatch expired notification",
				"error", err, "item_id", item.ID, "owner_id", item.OwnerID)
		}
	}

	slog.Info("expiration scan cycle completed",
		"expiring_soon", len(expiringSoon), "expired", len(expired))
	return nil
}

// tomorrowMidnight is the day boundary for the EXPIRED transition: items
// whose expiration date falls before it are on or past today's date.
func tomorrowMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}
