// Package sweeper bounds notification-store growth by retiring records
// older than the retention window.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"freshkeeper/internal/db"
)

// DefaultRetention is how long a notification record is kept before the
// sweeper deletes it.
const DefaultRetention = 30 * 24 * time.Hour

type Sweeper struct {
	store     *db.NotificationStore
	retention time.Duration
}

func New(store *db.NotificationStore, retention time.Duration) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Sweeper{store: store, retention: retention}
}

// Run deletes every record created strictly before now minus the retention
// window and logs the deleted count.
func (s *Sweeper) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.retention)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	slog.Info("retention sweep completed", "deleted", deleted, "cutoff", cutoff)
	return nil
}
