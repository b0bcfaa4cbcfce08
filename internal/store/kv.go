package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrConflict indicates a lost compare-and-swap: another writer updated
// the record since the caller read it. Callers should re-read and retry.
var ErrConflict = errors.New("version conflict")

// KV is a keyed store with versioned records. Versions start at 1 on
// first write and increment on every successful swap, which is enough to
// implement per-user write serialization across processes.
type KV interface {
	// Get returns the value and version for key, or (nil, 0, nil) if the
	// key does not exist.
	Get(ctx context.Context, key string) ([]byte, int64, error)

	// Put unconditionally writes the value, bumping the version.
	Put(ctx context.Context, key string, value []byte) error

	// CompareAndSwap writes the value only if the stored version equals
	// expect (0 means "key must not exist"). Returns the new version, or
	// ErrConflict if the precondition failed.
	CompareAndSwap(ctx context.Context, key string, value []byte, expect int64) (int64, error)
}

type sqliteKV struct {
	db *sql.DB
}

func (s *sqliteKV) Get(ctx context.Context, key string) ([]byte, int64, error) {
	var data []byte
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT data, version FROM kv_records WHERE key = ?`, key,
	).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get %q: %w", key, err)
	}
	return data, version, nil
}

func (s *sqliteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_records (key, version, data, updated_at) VALUES (?, 1, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
			version = version + 1,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (s *sqliteKV) CompareAndSwap(ctx context.Context, key string, value []byte, expect int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if expect == 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO kv_records (key, version, data, updated_at) VALUES (?, 1, ?, ?)`,
			key, value, now,
		)
		if err != nil {
			// Unique violation means someone created the key first.
			return 0, fmt.Errorf("create %q: %w", key, ErrConflict)
		}
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE kv_records SET version = version + 1, data = ?, updated_at = ?
		 WHERE key = ? AND version = ?`,
		value, now, key, expect,
	)
	if err != nil {
		return 0, fmt.Errorf("swap %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("swap %q: %w", key, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("swap %q: %w", key, ErrConflict)
	}
	return expect + 1, nil
}
