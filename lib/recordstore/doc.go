// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordstore implements the persistent store contract the
// rooms package consumes: opaque byte records grouped into named
// collections and addressed by key.
//
// Two backends exist. [SQLite] is the default and keeps everything in
// one local database file through lib/sqlitepool. [Redis] stores each
// collection as a hash, for deployments that run several bot replicas
// against shared state or already operate a Redis instance.
//
// Records are written whole; there are no partial updates. Both
// backends satisfy [Store], and [Open] picks one from configuration.
package recordstore
