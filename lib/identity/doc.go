// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity maps verified community members to mail addresses.
//
// The verification workflow (outside this module) writes one [User]
// record per verified member into a record store collection, keyed by
// member ID. [Directory] reads those records to resolve where a
// member's meeting transcripts go: the stored email if there is one,
// otherwise the member's shortcode at the configured mail domain.
// Members with no record have no address and receive no transcript.
package identity
