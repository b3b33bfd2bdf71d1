package claims

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"blugr/internal/config"
	"blugr/internal/services"
)

// Store is a SQLite-backed claim ledger. A claim on a content id grants one
// worker the right to run the pipeline for that id; a second worker asking
// for the same id is turned away until the claim is released or goes stale.
// The insert is the atomicity point, so two concurrent requests for the same
// id cannot both win.
type Store struct {
	db    *sql.DB
	path  string
	owner string
	ttl   time.Duration
	now   func() time.Time
}

// Open initializes or connects to the claim database and applies migrations.
func Open(cfg *config.Config, owner string) (*Store, error) {
	dbPath := cfg.ClaimDBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure claim db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	ttl := time.Duration(cfg.Workflow.ClaimTTLMinutes) * time.Minute
	store := &Store{db: db, path: dbPath, owner: owner, ttl: ttl, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Acquire claims a content id for this store's owner. It returns a
// resource-exhausted error when another owner holds a live claim. A claim
// older than the TTL is treated as abandoned and taken over.
func (s *Store) Acquire(ctx context.Context, contentID string) error {
	if contentID == "" {
		return services.Wrap(services.ErrInvalidInput, "claims", "acquire", "empty content id", nil)
	}

	now := s.now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO claims (content_id, owner, acquired_at) VALUES (?, ?, ?)
         ON CONFLICT(content_id) DO UPDATE
             SET owner = excluded.owner, acquired_at = excluded.acquired_at
             WHERE claims.owner = excluded.owner OR claims.acquired_at < ?`,
		contentID,
		s.owner,
		now.Format(time.RFC3339Nano),
		now.Add(-s.ttl).Format(time.RFC3339Nano),
	)
	if err != nil {
		return services.Wrap(services.ErrTransient, "claims", "acquire", "claim insert failed", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrTransient, "claims", "acquire", "claim insert result", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrResourceExhausted, "claims", "acquire",
			fmt.Sprintf("content %s already claimed", contentID), nil)
	}
	return nil
}

// Release drops this owner's claim on a content id. Releasing an id that is
// not claimed, or claimed by another owner, is a no-op.
func (s *Store) Release(ctx context.Context, contentID string) error {
	_, err := s.db.ExecContext(
		ctx,
		"DELETE FROM claims WHERE content_id = ? AND owner = ?",
		contentID,
		s.owner,
	)
	if err != nil {
		return services.Wrap(services.ErrTransient, "claims", "release", "claim delete failed", err)
	}
	return nil
}

// Holder reports the current owner of a claim, or empty when unclaimed.
func (s *Store) Holder(ctx context.Context, contentID string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, "SELECT owner FROM claims WHERE content_id = ?", contentID).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "claims", "holder", "claim lookup failed", err)
	}
	return owner, nil
}
