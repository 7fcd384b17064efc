// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/huddle/lib/clock"
	"github.com/bureau-foundation/huddle/lib/sqlitepool"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT    NOT NULL,
		key        TEXT    NOT NULL,
		data       BLOB    NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (collection, key)
	);
`

// SQLiteConfig configures OpenSQLite.
type SQLiteConfig struct {
	// Path is the database file. Required.
	Path string

	// Clock stamps updated_at. Defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// SQLite stores records in a single table of a local database.
type SQLite struct {
	pool  *sqlitepool.Pool
	clock clock.Clock
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at cfg.Path.
func OpenSQLite(cfg SQLiteConfig) (*SQLite, error) {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   cfg.Path,
		Schema: sqliteSchema,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("recordstore: %w", err)
	}
	return &SQLite{pool: pool, clock: clk}, nil
}

func (s *SQLite) Put(ctx context.Context, collection, key string, data []byte) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("recordstore: put %s/%s: %w", collection, key, err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO records (collection, key, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, key)
		DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{
			Args: []any{collection, key, data, s.clock.Now().UnixMilli()},
		})
	if err != nil {
		return fmt.Errorf("recordstore: put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, collection, key string) ([]byte, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("recordstore: get %s/%s: %w", collection, key, err)
	}
	defer s.pool.Put(conn)

	var data []byte
	var found bool
	err = sqlitex.Execute(conn,
		"SELECT data FROM records WHERE collection = ? AND key = ?",
		&sqlitex.ExecOptions{
			Args: []any{collection, key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				data = columnBlob(stmt, 0)
				found = true
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("recordstore: get %s/%s: %w", collection, key, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return data, nil
}

func (s *SQLite) Delete(ctx context.Context, collection, key string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("recordstore: delete %s/%s: %w", collection, key, err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM records WHERE collection = ? AND key = ?",
		&sqlitex.ExecOptions{Args: []any{collection, key}})
	if err != nil {
		return fmt.Errorf("recordstore: delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *SQLite) ListAll(ctx context.Context, collection string) (map[string][]byte, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("recordstore: list %s: %w", collection, err)
	}
	defer s.pool.Put(conn)

	records := make(map[string][]byte)
	err = sqlitex.Execute(conn,
		"SELECT key, data FROM records WHERE collection = ? ORDER BY key",
		&sqlitex.ExecOptions{
			Args: []any{collection},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				records[stmt.ColumnText(0)] = columnBlob(stmt, 1)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("recordstore: list %s: %w", collection, err)
	}
	return records, nil
}

func (s *SQLite) Close() error {
	return s.pool.Close()
}

// columnBlob copies a BLOB column out of the statement; the column
// memory is only valid until the next step.
func columnBlob(stmt *sqlite.Stmt, column int) []byte {
	data := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, data)
	return data
}
