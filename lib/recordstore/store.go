// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/huddle/lib/clock"
)

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("recordstore: record not found")

// Store is a collection-keyed byte record store.
type Store interface {
	// Put writes data under (collection, key), replacing any existing
	// record.
	Put(ctx context.Context, collection, key string, data []byte) error

	// Get returns the record for (collection, key), or ErrNotFound.
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// Delete removes the record. Deleting a missing record is not an
	// error.
	Delete(ctx context.Context, collection, key string) error

	// ListAll returns every record in collection keyed by record key.
	ListAll(ctx context.Context, collection string) (map[string][]byte, error)

	// Close releases the backend's connections.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend for Open.
type Options struct {
	// Backend is BackendSQLite or BackendRedis.
	Backend string

	// Path is the SQLite database file (sqlite backend).
	Path string

	// RedisURL is a redis:// or rediss:// URL (redis backend).
	RedisURL string

	// KeyPrefix namespaces Redis keys. Defaults to "huddle:".
	KeyPrefix string

	Clock  clock.Clock
	Logger *slog.Logger
}

// Open constructs the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		store, err := OpenSQLite(SQLiteConfig{
			Path:   opts.Path,
			Clock:  opts.Clock,
			Logger: opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRedis:
		store, err := OpenRedis(ctx, RedisConfig{
			URL:       opts.RedisURL,
			KeyPrefix: opts.KeyPrefix,
			Logger:    opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("recordstore: unknown backend %q", opts.Backend)
	}
}
