// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/huddle/lib/codec"
	"github.com/bureau-foundation/huddle/lib/recordstore"
	"github.com/bureau-foundation/huddle/rooms"
)

// DefaultCollection holds verified user records.
const DefaultCollection = "verified_users"

// User is a verified member's record.
type User struct {
	// Shortcode is the member's organisation login.
	Shortcode string `cbor:"shortcode"`

	// Email overrides the shortcode-derived address.
	Email string `cbor:"email,omitempty"`
}

// Records is the subset of recordstore.Store the directory uses.
type Records interface {
	Put(ctx context.Context, collection, key string, data []byte) error
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Delete(ctx context.Context, collection, key string) error
}

// Config configures a Directory.
type Config struct {
	Store Records

	// Collection defaults to DefaultCollection.
	Collection string

	// Domain completes shortcode addresses ("example.ac.uk").
	// Without it, only users with an Email have an address.
	Domain string

	Logger *slog.Logger
}

// Directory resolves member contact addresses from stored User
// records. It implements rooms.Directory.
type Directory struct {
	store      Records
	collection string
	domain     string
	logger     *slog.Logger
}

var _ rooms.Directory = (*Directory)(nil)

// New returns a Directory over config.Store.
func New(config Config) (*Directory, error) {
	if config.Store == nil {
		return nil, errors.New("identity: Config.Store is required")
	}
	if config.Collection == "" {
		config.Collection = DefaultCollection
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Directory{
		store:      config.Store,
		collection: config.Collection,
		domain:     strings.TrimPrefix(config.Domain, "@"),
		logger:     config.Logger,
	}, nil
}

// Register stores user as member's record, replacing any earlier one.
func (d *Directory) Register(ctx context.Context, member string, user User) error {
	if member == "" {
		return errors.New("identity: member ID is empty")
	}
	if user.Shortcode == "" && user.Email == "" {
		return fmt.Errorf("identity: user %s has neither shortcode nor email", member)
	}
	data, err := codec.Marshal(user)
	if err != nil {
		return fmt.Errorf("identity: encoding user %s: %w", member, err)
	}
	if err := d.store.Put(ctx, d.collection, member, data); err != nil {
		return fmt.Errorf("identity: storing user %s: %w", member, err)
	}
	return nil
}

// Remove deletes member's record.
func (d *Directory) Remove(ctx context.Context, member string) error {
	if err := d.store.Delete(ctx, d.collection, member); err != nil {
		return fmt.Errorf("identity: removing user %s: %w", member, err)
	}
	return nil
}

// Lookup returns member's record, or false if the member is not
// verified.
func (d *Directory) Lookup(ctx context.Context, member string) (User, bool, error) {
	data, err := d.store.Get(ctx, d.collection, member)
	if errors.Is(err, recordstore.ErrNotFound) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("identity: reading user %s: %w", member, err)
	}
	var user User
	if err := codec.Unmarshal(data, &user); err != nil {
		return User{}, false, fmt.Errorf("identity: decoding user %s: %w", member, err)
	}
	return user, true, nil
}

// Address returns the mail address for user.
func (d *Directory) Address(user User) (string, bool) {
	if user.Email != "" {
		return user.Email, true
	}
	if user.Shortcode != "" && d.domain != "" {
		return user.Shortcode + "@" + d.domain, true
	}
	return "", false
}

// ResolveContactAddress implements rooms.Directory.
func (d *Directory) ResolveContactAddress(ctx context.Context, member rooms.MemberID) (string, bool, error) {
	user, ok, err := d.Lookup(ctx, string(member))
	if err != nil || !ok {
		return "", false, err
	}
	address, ok := d.Address(user)
	if !ok {
		d.logger.Debug("verified user has no deliverable address", "member", member)
	}
	return address, ok, nil
}
