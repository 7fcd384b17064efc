// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides huddle's CBOR encoding for stored records.
//
// Persisted room records and verified-user records are CBOR blobs in
// the record store. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2), so re-persisting an unchanged room writes identical
// bytes. The decoder ignores unknown fields, which lets an older
// binary rehydrate records written by a newer one.
//
// Types that are only ever stored use `cbor` struct tags. Types that
// are also printed as JSON by huddle-admin use `json` tags, which
// fxamacker/cbor reads as a fallback.
package codec
