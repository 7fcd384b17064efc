// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bureau-foundation/huddle/rooms"
)

// DefaultSubjectPrefix is used when Config.SubjectPrefix is empty.
const DefaultSubjectPrefix = "huddle.rooms"

// Config configures Connect.
type Config struct {
	// URL is the NATS server, e.g. "nats://localhost:4222".
	URL string

	SubjectPrefix string

	// Name identifies the connection in server monitoring.
	Name string

	Logger *slog.Logger
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher implements rooms.Publisher over a NATS connection.
type Publisher struct {
	conn   conn
	prefix string
	logger *slog.Logger
}

var _ rooms.Publisher = (*Publisher)(nil)

// Connect dials the NATS server and returns a Publisher. The
// connection reconnects on its own; disconnects and reconnects are
// logged.
func Connect(config Config) (*Publisher, error) {
	if config.URL == "" {
		return nil, errors.New("roomevents: Config.URL is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	name := config.Name
	if name == "" {
		name = "huddle"
	}

	nc, err := nats.Connect(config.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("roomevents: connecting to %s: %w", config.URL, err)
	}
	return newPublisher(nc, config.SubjectPrefix, logger), nil
}

func newPublisher(c conn, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{conn: c, prefix: strings.TrimSuffix(prefix, "."), logger: logger}
}

// Subject returns the subject events of eventType are published on.
func (p *Publisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

// Publish marshals payload as JSON and publishes it.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("roomevents: encoding %s event: %w", eventType, err)
	}
	subject := p.Subject(eventType)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("roomevents: publishing to %s: %w", subject, err)
	}
	p.logger.Debug("room event published", "subject", subject, "bytes", len(data))
	return nil
}

// Close flushes pending events and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
