// internal/store/store.go
//
// SQLite-backed persistence for the companion app.
// The Store is constructed once in main and passed by reference into the HTTP
// server; there is no package-level database handle.

package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"

	"github.com/ti4table/companion/internal/apperr"
)

// Store wraps the shared *sql.DB. All methods take a context and return
// errors from the apperr taxonomy (or raw store errors wrapped as StoreError
// by callers that care).
type Store struct {
	db *sql.DB
}

// New wraps an opened database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the raw handle (used by tests and the seeder).
func (s *Store) DB() *sql.DB { return s.db }

// withTx runs fn inside a transaction. Rollback is automatic whenever fn
// returns an error or panics; Commit only happens on the nil-error path.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Store(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Store(err)
	}
	return nil
}

// newID creates a 22-char URL-safe, crypto-random identifier (no padding).
func newID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}
