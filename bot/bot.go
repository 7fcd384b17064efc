// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/huddle/lib/clock"
	"github.com/bureau-foundation/huddle/lib/config"
	"github.com/bureau-foundation/huddle/lib/identity"
	"github.com/bureau-foundation/huddle/lib/recordstore"
	"github.com/bureau-foundation/huddle/lib/roomevents"
	"github.com/bureau-foundation/huddle/rooms"
)

// Params are the inputs to New.
type Params struct {
	// Config must have passed Validate.
	Config *config.Config

	// Transport is the chat service. Required.
	Transport rooms.Transport

	// Mailer delivers transcripts. If nil, transcripts are not mailed.
	Mailer rooms.Mailer

	// Clock defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// Bot is the running room subsystem.
type Bot struct {
	manager   *rooms.Manager
	directory *identity.Directory
	store     recordstore.Store
	events    *roomevents.Publisher
	logger    *slog.Logger
}

// New builds the subsystem and rehydrates rooms from the store. On
// error, everything opened so far is closed.
func New(ctx context.Context, params Params) (*Bot, error) {
	if params.Config == nil {
		return nil, errors.New("bot: Params.Config is required")
	}
	if params.Transport == nil {
		return nil, errors.New("bot: Params.Transport is required")
	}
	cfg := params.Config
	logger := params.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.Real()
	}

	store, err := recordstore.Open(ctx, recordstore.Options{
		Backend:   cfg.Store.Backend,
		Path:      cfg.Store.Path,
		RedisURL:  cfg.Store.RedisURL,
		KeyPrefix: cfg.Store.KeyPrefix,
		Clock:     clk,
		Logger:    logger.With("component", "recordstore"),
	})
	if err != nil {
		return nil, fmt.Errorf("bot: opening store: %w", err)
	}
	b := &Bot{store: store, logger: logger}

	b.directory, err = identity.New(identity.Config{
		Store:      store,
		Collection: cfg.Mail.UsersCollection,
		Domain:     cfg.Mail.Domain,
		Logger:     logger.With("component", "identity"),
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("bot: %w", err)
	}

	managerConfig := rooms.Config{
		Transport:         params.Transport,
		Store:             store,
		Directory:         b.directory,
		Mailer:            params.Mailer,
		Clock:             clk,
		Logger:            logger.With("component", "rooms"),
		IdleTimeout:       cfg.Rooms.IdleTimeout(),
		CategoryID:        rooms.ChannelID(cfg.Rooms.CategoryID),
		EveryoneGroup:     cfg.Rooms.EveryoneGroupID,
		Collection:        cfg.Rooms.Collection,
		ArmOnCreate:       cfg.Rooms.ArmOnCreate,
		MailFrom:          cfg.Mail.From,
		MailSubjectPrefix: cfg.Mail.SubjectPrefix,
	}

	if cfg.Events.NATSURL != "" {
		b.events, err = roomevents.Connect(roomevents.Config{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
			Logger:        logger.With("component", "roomevents"),
		})
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("bot: %w", err)
		}
		managerConfig.Publisher = b.events
	}

	if cfg.Rooms.LogChannelID != "" {
		managerConfig.Reporter = &rooms.ChannelReporter{
			Transport: params.Transport,
			Channel:   rooms.ChannelID(cfg.Rooms.LogChannelID),
			Logger:    logger,
		}
	}

	b.manager, err = rooms.NewManager(managerConfig)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("bot: %w", err)
	}

	result, err := b.manager.Rehydrate(ctx)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("bot: %w", err)
	}
	logger.Info("meeting rooms ready",
		"environment", cfg.Environment,
		"store", cfg.Store.Backend,
		"restored", result.Restored,
		"skipped", result.Skipped,
		"idle_timeout", managerConfig.IdleTimeout,
		"events", b.events != nil,
	)
	return b, nil
}

// Manager returns the room manager. Feed it room requests and voice
// presence changes.
func (b *Bot) Manager() *rooms.Manager { return b.manager }

// Directory returns the verified-user directory, for the verification
// workflow to register users in.
func (b *Bot) Directory() *identity.Directory { return b.directory }

// Close stops countdowns and closes the event connection and store.
// Rooms stay in the store for the next start.
func (b *Bot) Close() error {
	if b.manager != nil {
		b.manager.Close()
	}
	var errs []error
	if b.events != nil {
		if err := b.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing event publisher: %w", err))
		}
	}
	if err := b.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	b.logger.Info("meeting rooms stopped")
	return nil
}
