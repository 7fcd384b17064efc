// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for huddle binaries.
//
// Release builds inject [GitCommit], [GitDirty], [BuildTime], and
// [Version] via -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/huddle/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Without injection, [Info] falls back to the VCS stamp the go command
// records in the binary, and to "unknown" when there is none (test
// binaries, for instance).
package version
