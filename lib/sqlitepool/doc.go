// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind
// huddle's default record store.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool and applies the same
// pragmas to every connection:
//
//   - journal_mode=WAL: the admin CLI can read while the bot writes.
//   - synchronous=FULL: a committed room record survives power loss.
//     Room writes are rare (create, extend, teardown) so the fsync per
//     commit is not a throughput concern.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock.
//   - temp_store=MEMORY
//
// Schema setup goes in Config.Schema, which runs once per connection
// after the pragmas. Callers Take a connection, run statements with
// sqlitex, and Put it back.
package sqlitepool
