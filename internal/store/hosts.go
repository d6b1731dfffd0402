// internal/store/hosts.go
//
// Host accounts gate the administrative routes (planet deletion, objective
// creation, game reset). Passwords are bcrypt hashes; session tokens are
// minted by the HTTP layer.

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ti4table/companion/internal/apperr"
)

// Host is an administrative account row.
type Host struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateHost registers a host account. Duplicate usernames fail with Conflict.
func (s *Store) CreateHost(ctx context.Context, username, password string) (*Host, error) {
	if len(username) < 3 || len(username) > 24 {
		return nil, apperr.Validation("username must be 3-24 chars")
	}
	if len(password) < 8 || len(password) > 100 {
		return nil, apperr.Validation("password must be 8-100 chars")
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM hosts WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if err == nil {
		return nil, apperr.Conflict("username %q already taken", username)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Store(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Store(err)
	}

	h := &Host{ID: newID(), Username: username, PasswordHash: string(hash), CreatedAt: time.Now().UTC()}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO hosts (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		h.ID, h.Username, h.PasswordHash, h.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, apperr.Store(err)
	}
	return h, nil
}

// FindHostByUsername loads a host row by username (case-insensitive).
func (s *Store) FindHostByUsername(ctx context.Context, username string) (*Host, error) {
	return s.scanHost(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM hosts WHERE lower(username)=lower(?)`, username))
}

// FindHostByID loads a host row by ID.
func (s *Store) FindHostByID(ctx context.Context, id string) (*Host, error) {
	return s.scanHost(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM hosts WHERE id=?`, id))
}

func (s *Store) scanHost(row *sql.Row) (*Host, error) {
	var h Host
	var created string
	if err := row.Scan(&h.ID, &h.Username, &h.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("host not found")
		}
		return nil, apperr.Store(err)
	}
	h.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &h, nil
}

// CheckPassword verifies a candidate password against the stored hash.
func (h *Host) CheckPassword(pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(pw)) == nil
}
