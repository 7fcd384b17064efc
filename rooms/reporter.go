// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"log/slog"
)

// Reporter receives every error the manager handles internally. The
// manager logs errors itself; a Reporter forwards them somewhere an
// operator will see them.
type Reporter interface {
	Report(ctx context.Context, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, err error)

func (f ReporterFunc) Report(ctx context.Context, err error) { f(ctx, err) }

// ChannelReporter posts errors to a channel on the transport, in the
// bot's log channel format.
type ChannelReporter struct {
	Transport Transport
	Channel   ChannelID
	Logger    *slog.Logger
}

// Report posts err to the channel. A failed post is logged and
// otherwise dropped: reporting must never recurse.
func (r *ChannelReporter) Report(ctx context.Context, err error) {
	if r.Channel == "" || err == nil {
		return
	}
	if postErr := r.Transport.SendToChannel(ctx, r.Channel, "`"+err.Error()+"`"); postErr != nil && r.Logger != nil {
		r.Logger.Warn("posting error to log channel failed",
			"channel", r.Channel,
			"error", postErr,
			"reported", err,
		)
	}
}
