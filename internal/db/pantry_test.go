package db

import (
	"context"
	"testing"
	"time"

	"freshkeeper/internal/testutil"
)

func TestMarkExpiringSoonSelectsOnlyWindowedNormalItems(t *testing.T) {
	conn := testutil.NewTestDB(t)
	store := NewPantryStore(conn)
	ctx := context.Background()
	owner := createTestUser(t, conn)
	now := time.Now().UTC()

	inWindow, err := store.CreateItem(ctx, owner, "milk", now.Add(2*24*time.Hour))
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	if _, err := store.CreateItem(ctx, owner, "rice", now.Add(10*24*time.Hour)); err != nil {
		t.Fatalf("creating item: %v", err)
	}

	transitioned, err := store.MarkExpiringSoon(ctx, now)
	if err != nil {
		t.Fatalf("marking expiring soon: %v", err)
	}
	if len(transitioned) != 1 || transitioned[0].ID != inWindow.ID {
		t.Fatalf("expected only the in-window item to transition, got %v", transitioned)
	}
	if transitioned[0].Status != StatusExpiringSoon {
		t.Fatalf("expected status %s, got %s", StatusExpiringSoon, transitioned[0].Status)
	}

	// A second run over the same window must not re-select the item: the
	// transition fires once per state, not once per scan tick.
	again, err := store.MarkExpiringSoon(ctx, now)
	if err != nil {
		t.Fatalf("marking expiring soon again: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no items on repeat run, got %d", len(again))
	}
}

func TestMarkExpiredCatchesNormalAndExpiringSoon(t *testing.T) {
	conn := testutil.NewTestDB(t)
	store := NewPantryStore(conn)
	ctx := context.Background()
	owner := createTestUser(t, conn)
	now := time.Now().UTC()

	// One item already flagged, one that was never in the 3-day window
	// (e.g. created moments before expiring).
	flagged, err := store.CreateItem(ctx, owner, "yogurt", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	if _, err := store.MarkExpiringSoon(ctx, now); err != nil {
		t.Fatalf("marking expiring soon: %v", err)
	}
	skipped, err := store.CreateItem(ctx, owner, "fish", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	deadline := now.Add(24 * time.Hour)
	expired, err := store.MarkExpired(ctx, deadline)
	if err != nil {
		t.Fatalf("marking expired: %v", err)
	}
	if len(expired) != 2 {
		t.Fatalf("expected both items to expire, got %d", len(expired))
	}
	for _, item := range expired {
		if item.ID != flagged.ID && item.ID != skipped.ID {
			t.Fatalf("unexpected expired item %d", item.ID)
		}
		if item.Status != StatusExpired {
			t.Fatalf("expected status %s, got %s", StatusExpired, item.Status)
		}
	}

	// EXPIRED is terminal: repeat runs find nothing.
	again, err := store.MarkExpired(ctx, deadline)
	if err != nil {
		t.Fatalf("marking expired again: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no items on repeat run, got %d", len(again))
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	conn := testutil.NewTestDB(t)
	store := NewPantryStore(conn)
	ctx := context.Background()
	owner := createTestUser(t, conn)
	now := time.Now().UTC()

	item, err := store.CreateItem(ctx, owner, "cheese", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	if _, err := store.MarkExpired(ctx, now.Add(24*time.Hour)); err != nil {
		t.Fatalf("marking expired: %v", err)
	}

	// The expiring-soon scan over a window that happens to include the
	// expired item's date must leave it alone.
	if _, err := store.MarkExpiringSoon(ctx, now.Add(-2*24*time.Hour)); err != nil {
		t.Fatalf("marking expiring soon: %v", err)
	}

	items, err := store.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("listing items: %v", err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("unexpected items: %v", items)
	}
	if items[0].Status != StatusExpired {
		t.Fatalf("status regressed from EXPIRED to %s", items[0].Status)
	}
}

func TestDeleteItemOwnership(t *testing.T) {
	conn := testutil.NewTestDB(t)
	store := NewPantryStore(conn)
	ctx := context.Background()
	owner := createTestUser(t, conn)
	stranger := createTestUser(t, conn)

	item, err := store.CreateItem(ctx, owner, "milk", time.Now().UTC().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	if err := store.DeleteItem(ctx, item.ID, stranger); err != ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if err := store.DeleteItem(ctx, item.ID+999, owner); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteItem(ctx, item.ID, owner); err != nil {
		t.Fatalf("deleting own item: %v", err)
	}
}
