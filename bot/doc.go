// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot assembles the meeting room subsystem from configuration.
//
// [New] opens the configured record store, builds the identity
// directory over it, connects the lifecycle event publisher when NATS
// is configured, and starts a [rooms.Manager] rehydrated from the
// store. The chat transport and the mailer are supplied by the host
// bot; this package only wires them in.
package bot
