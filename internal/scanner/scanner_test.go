package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"freshkeeper/internal/db"
	"freshkeeper/internal/testutil"
)

// recordingNotifier captures dispatched transitions and can be told to
// fail for particular owners.
type recordingNotifier struct {
	expiringSoon []int64
	expired      []int64
	failOwners   map[int64]bool
}

func (n *recordingNotifier) NotifyExpiringSoon(_ context.Context, ownerID int64, _ string, _ time.Time) error {
	if n.failOwners[ownerID] {
		return errors.New("dispatch failed")
	}
	n.expiringSoon = append(n.expiringSoon, ownerID)
	return nil
}

func (n *recordingNotifier) NotifyExpired(_ context.Context, ownerID int64, _ string, _ time.Time) error {
	if n.failOwners[ownerID] {
		return errors.New("dispatch failed")
	}
	n.expired = append(n.expired, ownerID)
	return nil
}

func createOwner(t *testing.T, conn *sqlx.DB) int64 {
	t.Helper()
	var id int64
	err := conn.QueryRow(
		`INSERT INTO users (email, password, created_at) VALUES (?, ?, ?) RETURNING id`,
		fmt.Sprintf("%s@example.com", uuid.New().String()), "hashed", time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("creating owner: %v", err)
	}
	return id
}

func itemStatus(t *testing.T, conn *sqlx.DB, id int64) string {
	t.Helper()
	var status string
	if err := conn.Get(&status, `SELECT status FROM pantry_items WHERE id = ?`, id); err != nil {
		t.Fatalf("reading item status: %v", err)
	}
	return status
}

func TestScanFlagsExpiringSoonOnce(t *testing.T) {
	conn := testutil.NewTestDB(t)
	pantry := db.NewPantryStore(conn)
	notifier := &recordingNotifier{}
	s := New(pantry, notifier)
	ctx := context.Background()

	owner := createOwner(t, conn)
	now := time.Now().UTC()
	item, err := pantry.CreateItem(ctx, owner, "milk", now.Add(2*24*time.Hour))
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	if err := s.runCycle(ctx, now); err != nil {
		t.Fatalf("running scan cycle: %v", err)
	}

	if got := itemStatus(t, conn, item.ID); got != db.StatusExpiringSoon {
		t.Fatalf("expected status %s, got %s", db.StatusExpiringSoon, got)
	}
	if len(notifier.expiringSoon) != 1 || notifier.expiringSoon[0] != owner {
		t.Fatalf("expected exactly one expiring-soon notification for the owner, got %v", notifier.expiringSoon)
	}
	if len(notifier.expired) != 0 {
		t.Fatalf("expected no expired notifications, got %v", notifier.expired)
	}

	// Repeated hourly runs must not re-notify an already-flagged item.
	for i := 0; i < 3; i++ {
		if err := s.runCycle(ctx, now.Add(time.Duration(i+1)*time.Hour)); err != nil {
			t.Fatalf("running scan cycle: %v", err)
		}
	}
	if len(notifier.expiringSoon) != 1 {
		t.Fatalf("expected the transition to fire exactly once, got %d notifications", len(notifier.expiringSoon))
	}
}

func TestScanExpiresFlaggedItem(t *testing.T) {
	conn := testutil.NewTestDB(t)
	pantry := db.NewPantryStore(conn)
	notifier := &recordingNotifier{}
	s := New(pantry, notifier)
	ctx := context.Background()

	owner := createOwner(t, conn)
	now := time.Now().UTC()
	item, err := pantry.CreateItem(ctx, owner, "milk", now.Add(2*24*time.Hour))
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	// First cycle: NORMAL -> EXPIRING_SOON.
	if err := s.runCycle(ctx, now); err != nil {
		t.Fatalf("running first scan cycle: %v", err)
	}

	// Second cycle runs after the expiration date has passed the day
	// boundary: EXPIRING_SOON -> EXPIRED.
	later := now.Add(3 * 24 * time.Hour)
	if err := s.runCycle(ctx, later); err != nil {
		t.Fatalf("running second scan cycle: %v", err)
	}

	if got := itemStatus(t, conn, item.ID); got != db.StatusExpired {
		t.Fatalf("expected status %s, got %s", db.StatusExpired, got)
	}
	if len(notifier.expiringSoon) != 1 {
		t.Fatalf("expected one expiring-soon notification, got %d", len(notifier.expiringSoon))
	}
	if len(notifier.expired) != 1 || notifier.expired[0] != owner {
		t.Fatalf("expected exactly one expired notification for the owner, got %v", notifier.expired)
	}

	// EXPIRED is terminal.
	if err := s.runCycle(ctx, later.Add(time.Hour)); err != nil {
		t.Fatalf("running third scan cycle: %v", err)
	}
	if len(notifier.expired) != 1 {
		t.Fatalf("expected no further expired notifications, got %d", len(notifier.expired))
	}
}

func TestScanIsolatesPerItemDispatchFailures(t *testing.T) {
	conn := testutil.NewTestDB(t)
	pantry := db.NewPantryStore(conn)
	ctx := context.Background()

	badOwner := createOwner(t, conn)
	goodOwner := createOwner(t, conn)
	notifier := &recordingNotifier{failOwners: map[int64]bool{badOwner: true}}
	s := New(pantry, notifier)

	now := time.Now().UTC()
	if _, err := pantry.CreateItem(ctx, badOwner, "milk", now.Add(24*time.Hour)); err != nil {
		t.Fatalf("creating item: %v", err)
	}
	good, err := pantry.CreateItem(ctx, goodOwner, "eggs", now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	if err := s.runCycle(ctx, now); err != nil {
		t.Fatalf("scan cycle must not fail on per-item dispatch errors: %v", err)
	}

	if len(notifier.expiringSoon) != 1 || notifier.expiringSoon[0] != goodOwner {
		t.Fatalf("expected the remaining item to be dispatched, got %v", notifier.expiringSoon)
	}
	if got := itemStatus(t, conn, good.ID); got != db.StatusExpiringSoon {
		t.Fatalf("expected status %s, got %s", db.StatusExpiringSoon, got)
	}
}

func TestTomorrowMidnight(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 42, 7, 0, time.UTC)
	want := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	if got := tomorrowMidnight(now); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// Month boundary.
	now = time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	want = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if got := tomorrowMidnight(now); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
