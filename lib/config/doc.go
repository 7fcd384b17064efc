// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads huddle's configuration.
//
// Configuration is read from a single YAML file named by the
// HUDDLE_CONFIG environment variable or the --config flag. There is no
// discovery and no environment-variable override of individual values.
//
// The file may contain development, staging, and production sections
// whose non-empty values override the base values when the
// environment field selects them.
package config
