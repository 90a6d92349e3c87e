// Package testutil provides an in-memory SQLite database wired through
// sqlx for tests, with the same logical schema the Postgres migrations
// create.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	password TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE notifications (
	id TEXT PRIMARY KEY,
	recipient_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	payload TEXT,
	read BOOLEAN NOT NULL DEFAULT 0,
	read_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_notifications_recipient_created ON notifications (recipient_id, created_at DESC);
CREATE INDEX idx_notifications_recipient_read ON notifications (recipient_id, read);

CREATE TABLE pantry_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	ingredient_name TEXT NOT NULL,
	expiration_date TIMESTAMP NOT NULL,
	status TEXT NOT NULL DEFAULT 'NORMAL',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_pantry_items_status_expiration ON pantry_items (status, expiration_date);
`

// NewTestDB creates an in-memory SQLite database with the full schema
// applied. It is closed automatically when the test completes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})

	// The sqlite driver opens one connection per concurrent caller; with
	// :memory: each connection would see its own empty database.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		t.Fatalf("applying test schema: %v", err)
	}

	return conn
}
