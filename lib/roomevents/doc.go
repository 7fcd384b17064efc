// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package roomevents publishes room lifecycle events to NATS.
//
// Each event is JSON on the subject "{prefix}.{type}", for example
// "huddle.rooms.teardown". Consumers subscribe to "{prefix}.>" for
// everything. Publishing is fire-and-forget core NATS: an event
// published while no subscriber is listening is lost.
package roomevents
