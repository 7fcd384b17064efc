// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/bureau-foundation/huddle/lib/clock"
)

// Transcripts are markdown rendered to HTML. Raw HTML in messages is
// not enabled, so goldmark replaces it with a comment rather than
// passing it through to the mail.
var (
	transcriptMarkdown     goldmark.Markdown
	transcriptMarkdownOnce sync.Once
)

func getTranscriptMarkdown() goldmark.Markdown {
	transcriptMarkdownOnce.Do(func() {
		transcriptMarkdown = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
			),
			goldmark.WithRendererOptions(
				goldmarkhtml.WithHardWraps(),
			),
		)
	})
	return transcriptMarkdown
}

// Exporter renders a room's text channel history and mails it to the
// room's members.
type Exporter struct {
	transport     Transport
	directory     Directory
	mailer        Mailer
	clock         clock.Clock
	from          string
	subjectPrefix string
	logger        *slog.Logger
}

// ExportResult summarizes one export.
type ExportResult struct {
	// ArchiveID appears in the footer of every copy of the
	// transcript and in the log lines about it.
	ArchiveID string

	Delivered []MemberID

	// Skipped members have no contact address.
	Skipped []MemberID

	// Failures holds one KindDelivery error per member whose address
	// lookup or mail failed.
	Failures []error
}

// Export fetches the room's transcript and mails it to every member
// with a contact address. Per-recipient failures are collected in the
// result and never stop delivery to the rest. The returned error is
// non-nil only when no transcript could be produced at all, in which
// case nothing is mailed.
func (e *Exporter) Export(ctx context.Context, room Room) (ExportResult, error) {
	result := ExportResult{ArchiveID: uuid.NewString()}

	history, err := e.transport.FetchHistory(ctx, room.TextChannel)
	if err != nil {
		return result, &Error{Kind: KindDelivery, Room: room.Name, Op: "fetch history", Err: err}
	}
	// The transport returns newest first.
	slices.Reverse(history)

	document, err := e.render(ctx, room, history, result.ArchiveID)
	if err != nil {
		return result, &Error{Kind: KindDelivery, Room: room.Name, Op: "render transcript", Err: err}
	}
	subject := fmt.Sprintf("%s: %s - %s", e.subjectPrefix, room.Name, room.CreatedAt.Format(time.RFC1123))

	for _, member := range room.Members {
		address, ok, err := e.directory.ResolveContactAddress(ctx, member)
		if err != nil {
			result.Failures = append(result.Failures, &Error{
				Kind: KindDelivery, Room: room.Name, Op: "resolve contact address", Member: member, Err: err,
			})
			continue
		}
		if !ok {
			result.Skipped = append(result.Skipped, member)
			continue
		}
		if err := e.mailer.Send(ctx, Mail{From: e.from, To: address, Subject: subject, HTML: document}); err != nil {
			result.Failures = append(result.Failures, &Error{
				Kind: KindDelivery, Room: room.Name, Op: "mail transcript", Member: member, Err: err,
			})
			continue
		}
		e.logger.Info("transcript mailed",
			"room", room.Name,
			"member", member,
			"archive_id", result.ArchiveID,
		)
		result.Delivered = append(result.Delivered, member)
	}
	return result, nil
}

// render produces the HTML transcript for history, which must be
// oldest first.
func (e *Exporter) render(ctx context.Context, room Room, history []HistoryMessage, archiveID string) (string, error) {
	names := make(map[MemberID]string)
	var source strings.Builder
	for i, message := range history {
		name, ok := names[message.Author]
		if !ok {
			name = e.attribution(ctx, message.Author)
			names[message.Author] = name
		}
		if i > 0 {
			source.WriteString("\n\n")
		}
		fmt.Fprintf(&source, "**%s**: %s", escapeMarkdown(name), message.Text)
		for _, attachment := range message.Attachments {
			fmt.Fprintf(&source, "\n[%s](<%s>)", escapeMarkdown(attachment.Name), attachment.URL)
		}
	}

	var body bytes.Buffer
	if err := getTranscriptMarkdown().Convert([]byte(source.String()), &body); err != nil {
		return "", err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "<h1>%s chat log</h1>\n", html.EscapeString(room.Name))
	fmt.Fprintf(&out, "<p>Meeting: %s - %s</p>\n",
		html.EscapeString(room.CreatedAt.Format(time.RFC1123)),
		html.EscapeString(e.clock.Now().Format(time.RFC1123)))
	fmt.Fprintf(&out, "<h3>Meeting Chat Log for %s</h3>\n", html.EscapeString(room.Name))
	out.WriteString(`<div style="background-color: black; color: white; padding: 10px;">` + "\n")
	out.Write(body.Bytes())
	out.WriteString("</div>\n")
	fmt.Fprintf(&out, "<p><small>Archive %s</small></p>\n", html.EscapeString(archiveID))
	return out.String(), nil
}

// attribution names a message author in the transcript. Authors who
// cannot be resolved, or who have no display name, are marked
// unverified.
func (e *Exporter) attribution(ctx context.Context, author MemberID) string {
	member, err := e.transport.ResolveMember(ctx, author)
	if err != nil {
		e.logger.Debug("resolving transcript author failed", "member", author, "error", err)
		return "(unverified) " + string(author)
	}
	if member.DisplayName != "" {
		return member.DisplayName
	}
	if member.Username != "" {
		return "(unverified) " + member.Username
	}
	return "(unverified) " + string(author)
}

// escapeMarkdown backslash-escapes every ASCII punctuation character
// so that s renders literally.
func escapeMarkdown(s string) string {
	var out strings.Builder
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune("\\`*_{}[]()<>#+-.!|~&\"'", r) {
			out.WriteByte('\\')
		}
		out.WriteRune(r)
	}
	return out.String()
}
