// store/local.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"endotrack/models"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// LocalStore is the node-local SQLite database. It serves as the Cache
// and as the PendingQueue of failed remote writes.
type LocalStore struct {
	db *sqlx.DB
}

// NewLocalStore opens (or creates) the SQLite database at dbPath, enables
// WAL mode, and runs pending migrations. ":memory:" is allowed.
func NewLocalStore(dbPath string) (*LocalStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// Every connection to ":memory:" would see its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &LocalStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (s *LocalStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("writing %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("writing %s: %w", key, err)
	}
	return n == 1, nil
}

func (s *LocalStore) Enqueue(ctx context.Context, w models.PendingWrite) (bool, error) {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO pending_writes (
			key, collection, doc_id, op, payload, field, delta, attempts, last_error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, '', ?)`,
		w.Key, w.Collection, w.DocID, w.Op, w.Payload, w.Field, w.Delta, w.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("queueing write %s: %w", w.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("queueing write %s: %w", w.Key, err)
	}
	return n == 1, nil
}

func (s *LocalStore) Pending(ctx context.Context, limit int) ([]models.PendingWrite, error) {
	query := "SELECT * FROM pending_writes ORDER BY id ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	var writes []models.PendingWrite
	if err := s.db.SelectContext(ctx, &writes, query); err != nil {
		return nil, fmt.Errorf("listing pending writes: %w", err)
	}
	return writes, nil
}

func (s *LocalStore) PendingFor(ctx context.Context, collection, docID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM pending_writes WHERE collection = ? AND doc_id = ?",
		collection, docID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting pending writes of %s/%s: %w", collection, docID, err)
	}
	return n, nil
}

func (s *LocalStore) Complete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pending_writes WHERE id = ?", id); err != nil {
		return fmt.Errorf("completing pending write %d: %w", id, err)
	}
	return nil
}

func (s *LocalStore) Fail(ctx context.Context, id int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE pending_writes SET attempts = attempts + 1, last_error = ? WHERE id = ?",
		msg, id,
	)
	if err != nil {
		return fmt.Errorf("recording failure of pending write %d: %w", id, err)
	}
	return nil
}
