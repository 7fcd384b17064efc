// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for huddle packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests that wait on goroutines never hang forever and do
// not scatter time.After calls. [UniqueID] produces distinct names
// (owners, rooms, Redis key prefixes) without reading the clock.
package testutil
