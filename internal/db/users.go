package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserStore is the recipient directory: every notification recipient is a
// row in the users table.
type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, email, hashedPassword string) (*User, error) {
	user := &User{
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: time.Now().UTC(),
	}

	query := s.db.Rebind(`
		INSERT INTO users (email, password, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`)
	if err := s.db.QueryRowContext(ctx, query, user.Email, user.Password, user.CreatedAt).Scan(&user.ID); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	query := s.db.Rebind(`SELECT * FROM users WHERE email = ?`)
	err := s.db.GetContext(ctx, user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Exists reports whether a recipient with the given id is registered.
func (s *UserStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := s.db.Rebind(`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`)
	if err := s.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}
