// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the master configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Rooms  RoomsConfig  `yaml:"rooms"`
	Store  StoreConfig  `yaml:"store"`
	Mail   MailConfig   `yaml:"mail"`
	Events EventsConfig `yaml:"events"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains the sections that can be overridden per
// environment.
type Overrides struct {
	Rooms  *RoomsConfig  `yaml:"rooms,omitempty"`
	Store  *StoreConfig  `yaml:"store,omitempty"`
	Mail   *MailConfig   `yaml:"mail,omitempty"`
	Events *EventsConfig `yaml:"events,omitempty"`
}

// RoomsConfig configures the room lifecycle manager.
type RoomsConfig struct {
	// IdleTimeoutSeconds is how long a room's voice channel may stay
	// empty before the room is torn down.
	// Default: 300
	IdleTimeoutSeconds int `yaml:"idle_timeout_seconds"`

	// CategoryID is the channel category rooms are created under.
	CategoryID string `yaml:"category_id"`

	// EveryoneGroupID is the group denied visibility of room text
	// channels.
	EveryoneGroupID string `yaml:"everyone_group_id"`

	// LogChannelID, when set, receives a copy of every room error.
	LogChannelID string `yaml:"log_channel_id"`

	// ArmOnCreate starts new rooms in the idle countdown, so a room
	// nobody joins still expires.
	// Default: false
	ArmOnCreate bool `yaml:"arm_on_create"`

	// Collection is the store collection holding active rooms.
	// Default: active_meetings
	Collection string `yaml:"collection"`
}

// IdleTimeout returns IdleTimeoutSeconds as a duration.
func (r RoomsConfig) IdleTimeout() time.Duration {
	return time.Duration(r.IdleTimeoutSeconds) * time.Second
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "redis".
	// Default: sqlite
	Backend string `yaml:"backend"`

	// Path is the SQLite database file.
	// Default: ${HOME}/.local/state/huddle/huddle.db
	Path string `yaml:"path"`

	// RedisURL is used by the redis backend.
	RedisURL string `yaml:"redis_url"`

	// KeyPrefix namespaces redis keys.
	// Default: huddle:
	KeyPrefix string `yaml:"key_prefix"`
}

// MailConfig configures transcript mail.
type MailConfig struct {
	// From is the sender address on transcript mail.
	From string `yaml:"from"`

	// Domain is appended to a verified user's shortcode when no
	// explicit email is stored for them.
	Domain string `yaml:"domain"`

	// SubjectPrefix prefixes transcript subjects.
	// Default: "Meeting Room"
	SubjectPrefix string `yaml:"subject_prefix"`

	// UsersCollection holds verified-user records.
	// Default: verified_users
	UsersCollection string `yaml:"users_collection"`
}

// EventsConfig configures lifecycle event publishing. Publishing is
// disabled when NATSURL is empty.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`

	// SubjectPrefix is prepended to event types.
	// Default: huddle.rooms
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Default returns the configuration used as a base before the file is
// loaded.
func Default() *Config {
	return &Config{
		Environment: Development,
		Rooms: RoomsConfig{
			IdleTimeoutSeconds: 300,
			Collection:         "active_meetings",
		},
		Store: StoreConfig{
			Backend:   "sqlite",
			Path:      "${HOME}/.local/state/huddle/huddle.db",
			KeyPrefix: "huddle:",
		},
		Mail: MailConfig{
			SubjectPrefix:   "Meeting Room",
			UsersCollection: "verified_users",
		},
		Events: EventsConfig{
			SubjectPrefix: "huddle.rooms",
		},
	}
}

// Load loads configuration from the file named by HUDDLE_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("HUDDLE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("HUDDLE_CONFIG environment variable not set; " +
			"set it to the path of your huddle.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path, applies the environment
// section, and expands ${VAR} references in paths.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if rooms := overrides.Rooms; rooms != nil {
		if rooms.IdleTimeoutSeconds != 0 {
			c.Rooms.IdleTimeoutSeconds = rooms.IdleTimeoutSeconds
		}
		overrideString(&c.Rooms.CategoryID, rooms.CategoryID)
		overrideString(&c.Rooms.EveryoneGroupID, rooms.EveryoneGroupID)
		overrideString(&c.Rooms.LogChannelID, rooms.LogChannelID)
		overrideString(&c.Rooms.Collection, rooms.Collection)
		// ArmOnCreate is a bool, so the override always applies.
		c.Rooms.ArmOnCreate = rooms.ArmOnCreate
	}

	if store := overrides.Store; store != nil {
		overrideString(&c.Store.Backend, store.Backend)
		overrideString(&c.Store.Path, store.Path)
		overrideString(&c.Store.RedisURL, store.RedisURL)
		overrideString(&c.Store.KeyPrefix, store.KeyPrefix)
	}

	if mail := overrides.Mail; mail != nil {
		overrideString(&c.Mail.From, mail.From)
		overrideString(&c.Mail.Domain, mail.Domain)
		overrideString(&c.Mail.SubjectPrefix, mail.SubjectPrefix)
		overrideString(&c.Mail.UsersCollection, mail.UsersCollection)
	}

	if events := overrides.Events; events != nil {
		overrideString(&c.Events.NATSURL, events.NATSURL)
		overrideString(&c.Events.SubjectPrefix, events.SubjectPrefix)
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{"HOME": os.Getenv("HOME")}
	c.Store.Path = expandVars(c.Store.Path, vars)
	c.Store.RedisURL = expandVars(c.Store.RedisURL, vars)
	c.Events.NATSURL = expandVars(c.Events.NATSURL, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Rooms.IdleTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("rooms.idle_timeout_seconds must be positive, got %d", c.Rooms.IdleTimeoutSeconds))
	}
	if c.Rooms.CategoryID == "" {
		errs = append(errs, fmt.Errorf("rooms.category_id is required"))
	}
	if c.Rooms.EveryoneGroupID == "" {
		errs = append(errs, fmt.Errorf("rooms.everyone_group_id is required"))
	}
	if c.Rooms.Collection == "" {
		errs = append(errs, fmt.Errorf("rooms.collection is required"))
	}

	switch c.Store.Backend {
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for the sqlite backend"))
		}
	case "redis":
		if c.Store.RedisURL == "" {
			errs = append(errs, fmt.Errorf("store.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be one of: [sqlite redis], got %q", c.Store.Backend))
	}

	if c.Mail.UsersCollection == "" {
		errs = append(errs, fmt.Errorf("mail.users_collection is required"))
	}

	return errors.Join(errs...)
}
