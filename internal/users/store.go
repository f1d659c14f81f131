// Package users persists API accounts in SQLite with bcrypt-hashed
// passwords.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrExists is returned when a username or email is already taken.
	ErrExists = errors.New("users: username or email already exists")

	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("users: user not found")

	// ErrInvalidCredentials covers wrong password and inactive accounts;
	// callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
)

// User is one API account. HashedPassword never leaves this package in
// API responses.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          *string   `json:"email"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	IsAdmin        bool      `json:"is_admin"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store wraps the SQLite database holding user accounts.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	username        TEXT NOT NULL UNIQUE,
	email           TEXT UNIQUE,
	hashed_password TEXT NOT NULL,
	is_active       INTEGER NOT NULL DEFAULT 1,
	is_admin        INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
`

// Open opens (creating if needed) the user database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open user database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise user schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create adds a new user with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, username, password string, email *string, isAdmin bool) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("users: username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("users: password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, hashed_password, is_admin) VALUES (?, ?, ?, ?)`,
		username, email, string(hash), isAdmin)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new user id: %w", err)
	}
	return s.ByID(ctx, id)
}

// ByID fetches a user by primary key.
func (s *Store) ByID(ctx context.Context, id int64) (*User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, hashed_password, is_active, is_admin, created_at FROM users WHERE id = ?`, id))
}

// ByUsername fetches a user by username.
func (s *Store) ByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, hashed_password, is_active, is_admin, created_at FROM users WHERE username = ?`, username))
}

// Verify checks a username and password pair. Unknown users, wrong
// passwords and deactivated accounts all return ErrInvalidCredentials.
func (s *Store) Verify(ctx context.Context, username, password string) (*User, error) {
	user, err := s.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetActive toggles an account without deleting it.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns up to limit users ordered by id, skipping offset rows.
func (s *Store) List(ctx context.Context, offset, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email, hashed_password, is_active, is_admin, created_at FROM users ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []User
	for rows.Next() {
		var u User
		var email sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &email, &u.HashedPassword, &u.IsActive, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if email.Valid {
			u.Email = &email.String
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) scanOne(row *sql.Row) (*User, error) {
	var u User
	var email sql.NullString
	err := row.Scan(&u.ID, &u.Username, &email, &u.HashedPassword, &u.IsActive, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if email.Valid {
		u.Email = &email.String
	}
	return &u, nil
}
