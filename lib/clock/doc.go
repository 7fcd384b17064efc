// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Room teardown timers are the main consumer: the rooms package arms
// one AfterFunc per idle room and cancels it on rejoin. In production,
// Real() provides the standard library behavior. In tests, Fake()
// provides a deterministic clock that advances only when Advance is
// called, so a five-minute idle timeout fires in microseconds and in
// a known order.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	manager := rooms.NewManager(rooms.Config{Clock: c, ...})
//	// ... drive presence events ...
//	c.Advance(5 * time.Minute) // fires the teardown synchronously
package clock
