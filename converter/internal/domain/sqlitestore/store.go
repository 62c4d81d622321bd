// Package sqlitestore implements domain.Store on a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/macterm/prefs-converter/converter/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS settings (
		domain TEXT NOT NULL,
		key    TEXT NOT NULL,
		value  TEXT NOT NULL,
		PRIMARY KEY (domain, key)
	);
`

var _ domain.Store = (*Store)(nil)

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path. Parent directories are created
// if needed.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The converter is the only writer. A single connection keeps
	// transactions from contending for the database lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger = logger.With("component", "sqlite_store")
	logger.Debug("sqlite store initialized", "path", path)

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Read(ctx context.Context, name, key string) (domain.Value, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.Value{}, err
	}
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE domain = ? AND key = ?`,
		name, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Value{}, fmt.Errorf("%s/%s: %w", name, key, domain.ErrKeyNotFound)
	}
	if err != nil {
		return domain.Value{}, fmt.Errorf("failed to read %s/%s: %w", name, key, err)
	}
	var v domain.Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return domain.Value{}, fmt.Errorf("failed to decode %s/%s: %w", name, key, err)
	}
	return v, nil
}

func (s *Store) Write(ctx context.Context, name, key string, value domain.Value) error {
	if err := domain.ValidateWrite(name, key, value); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", name, key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (domain, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (domain, key) DO UPDATE SET value = excluded.value`,
		name, key, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", name, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name, key string) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM settings WHERE domain = ? AND key = ?`,
		name, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", name, key, err)
	}
	return nil
}

func (s *Store) ListKeys(ctx context.Context, name string) ([]string, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	return s.queryStrings(ctx,
		`SELECT key FROM settings WHERE domain = ? ORDER BY key`,
		name,
	)
}

func (s *Store) ListDomains(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT domain FROM settings ORDER BY domain`)
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}

func (s *Store) CopyDomain(ctx context.Context, src, dst string) error {
	if err := domain.ValidateName(src); err != nil {
		return err
	}
	if err := domain.ValidateName(dst); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM settings WHERE domain = ?`,
			src,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count %q: %w", src, err)
		}
		if count == 0 {
			return fmt.Errorf("%q: %w", src, domain.ErrDomainNotFound)
		}
		if src == dst {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE domain = ?`, dst); err != nil {
			return fmt.Errorf("failed to clear %q: %w", dst, err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO settings (domain, key, value)
			 SELECT ?, key, value FROM settings WHERE domain = ?`,
			dst, src,
		)
		if err != nil {
			return fmt.Errorf("failed to copy %q to %q: %w", src, dst, err)
		}
		copied, _ := res.RowsAffected()
		s.logger.Debug("copied domain", "src", src, "dst", dst, "keys", copied)
		return nil
	})
}

func (s *Store) DeleteDomain(ctx context.Context, name string) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE domain = ?`, name); err != nil {
			return fmt.Errorf("failed to delete %q: %w", name, err)
		}
		return nil
	})
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := domain.ValidateName(name); err != nil {
		return false, err
	}
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM settings WHERE domain = ?)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %q: %w", name, err)
	}
	return exists, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
