// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/huddle/lib/clock"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	store, err := OpenSQLite(SQLiteConfig{
		Path:  filepath.Join(t.TempDir(), "records.db"),
		Clock: clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestSQLitePutGetReplace(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	if err := store.Put(ctx, "active_meetings", "alices_room_1", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "active_meetings", "alices_room_1", []byte{4, 5}); err != nil {
		t.Fatalf("Put (replace): %v", err)
	}

	data, err := store.Get(ctx, "active_meetings", "alices_room_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(data, []byte{4, 5}) {
		t.Errorf("Get = %v, want [4 5]", data)
	}
}

func TestSQLiteGetMissing(t *testing.T) {
	store := openTestSQLite(t)
	_, err := store.Get(context.Background(), "active_meetings", "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteListAllScopesByCollection(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	puts := []struct {
		collection, key string
		data            []byte
	}{
		{"active_meetings", "a", []byte("one")},
		{"active_meetings", "b", []byte("two")},
		{"verified_users", "a", []byte("other")},
	}
	for _, put := range puts {
		if err := store.Put(ctx, put.collection, put.key, put.data); err != nil {
			t.Fatalf("Put %s/%s: %v", put.collection, put.key, err)
		}
	}

	records, err := store.ListAll(ctx, "active_meetings")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListAll returned %d records, want 2", len(records))
	}
	if string(records["a"]) != "one" || string(records["b"]) != "two" {
		t.Errorf("ListAll = %q", records)
	}
}

func TestSQLiteDelete(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	if err := store.Put(ctx, "active_meetings", "a", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, "active_meetings", "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "active_meetings", "a"); err != nil {
		t.Fatalf("Delete of missing record: %v", err)
	}
	records, err := store.ListAll(ctx, "active_meetings")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ListAll after delete = %v, want empty", records)
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	ctx := context.Background()

	first, err := OpenSQLite(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := first.Put(ctx, "active_meetings", "a", []byte("persisted")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := OpenSQLite(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	data, err := second.Get(ctx, "active_meetings", "a")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(data) != "persisted" {
		t.Errorf("Get after reopen = %q", data)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "mongo"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
