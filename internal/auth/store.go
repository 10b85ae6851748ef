// Package auth persists login sessions and hands out bearer tokens for them.
package auth

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

// Keys of the three entries kept per session.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpires = "token_expires"
)

var ErrNoSession = errors.New("no session")

//go:embed migrations/*.sql
var migrations embed.FS

// Tokens is the persisted credential set of one session.
type Tokens struct {
	Access  string
	Refresh string
	Expires time.Time
}

// Expired reports whether the access token is past its expiry, allowing for
// skew. A zero expiry never expires.
func (t Tokens) Expired(now time.Time, skew time.Duration) bool {
	if t.Expires.IsZero() {
		return false
	}
	return !now.Add(skew).Before(t.Expires)
}

type TokenStore struct {
	db *sql.DB
}

func NewTokenStore(dbPath string) (*TokenStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &TokenStore{db: db}, nil
}

func (s *TokenStore) RunMigrations() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// Load returns the tokens of a session, or ErrNoSession when no access
// token is stored for it.
func (s *TokenStore) Load(ctx context.Context, sessionID string) (Tokens, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM session_entries WHERE session_id = ?`, sessionID)
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to query session: %w", err)
	}
	defer rows.Close()

	var t Tokens
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Tokens{}, fmt.Errorf("failed to scan session entry: %w", err)
		}
		switch key {
		case KeyAccessToken:
			t.Access = value
		case KeyRefreshToken:
			t.Refresh = value
		case KeyTokenExpires:
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Tokens{}, fmt.Errorf("invalid %s %q: %w", KeyTokenExpires, value, err)
			}
			if ms > 0 {
				t.Expires = time.UnixMilli(ms)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return Tokens{}, fmt.Errorf("row iteration error: %w", err)
	}

	if t.Access == "" {
		return Tokens{}, ErrNoSession
	}
	return t, nil
}

// Save replaces all three entries of a session atomically.
func (s *TokenStore) Save(ctx context.Context, sessionID string, t Tokens) error {
	var expires int64
	if !t.Expires.IsZero() {
		expires = t.Expires.UnixMilli()
	}
	entries := [][2]string{
		{KeyAccessToken, t.Access},
		{KeyRefreshToken, t.Refresh},
		{KeyTokenExpires, strconv.FormatInt(expires, 10)},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO session_entries (session_id, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (session_id, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, upsert, sessionID, e[0], e[1]); err != nil {
			return fmt.Errorf("failed to save %s: %w", e[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// Clear removes every entry of a session. Clearing an unknown session is not
// an error.
func (s *TokenStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_entries WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	return s.db.Close()
}
