// Package notify renders and sends all the user-facing Slack messages of Conduct.
//
// Rendering functions are pure, and return a [Message]. Sending is best-effort:
// failures are logged by the Slack activities, and swallowed here, except for
// a few cases where the caller needs to know that a message was not sent.
package notify

import (
	"log/slog"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/pkg/hackatime"
	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack/activities"
)

// Dispatcher sends messages to specific Slack channels and threads.
type Dispatcher struct {
	// NotifyChannel receives ban notices.
	NotifyChannel string
	// ExpiryChannel receives the daily digest of expiring bans.
	ExpiryChannel string
	// AuditChannel receives Hackatime audit-log events.
	AuditChannel string
}

// Send posts a message to a channel, or a thread if the thread TS isn't empty.
// It returns the new message's timestamp, or an empty string if posting failed.
func Send(ctx workflow.Context, channelID, threadTS string, m Message) string {
	if channelID == "" || m.Text == "" {
		return ""
	}
	ts, _ := activities.PostBlocks(ctx, channelID, threadTS, m.Text, m.Blocks)
	return ts
}

// Update replaces the content of an existing message.
func Update(ctx workflow.Context, channelID, ts string, m Message) {
	_ = activities.UpdateBlocks(ctx, channelID, ts, m.Text, m.Blocks)
}

// Ephemeral sends a message that only a single user can see. Ephemeral
// messages don't support buttons, so only the text fallback is sent.
func Ephemeral(ctx workflow.Context, channelID, userID string, m Message) {
	if channelID == "" {
		_ = activities.PostMessage(ctx, userID, m.Text)
		return
	}
	_ = activities.PostEphemeralMessage(ctx, channelID, userID, m.Text)
}

// Dismiss deletes a message which the bot posted earlier.
func Dismiss(ctx workflow.Context, channelID, ts string) {
	_ = activities.DeleteMessage(ctx, channelID, ts)
}

// Prompt posts the initial report prompt in a flagged thread.
func (d Dispatcher) Prompt(ctx workflow.Context, channelID, threadTS, caseID string) string {
	return Send(ctx, channelID, threadTS, Prompt(caseID))
}

// Confirmation posts a summary of a filed report in its thread.
func (d Dispatcher) Confirmation(ctx workflow.Context, channelID, threadTS string, reports []records.Report) {
	Send(ctx, channelID, threadTS, Confirmation(reports))
}

// BanNotice announces a ban in the notification channel. If no
// notification channel is configured, the notice is not sent.
func (d Dispatcher) BanNotice(ctx workflow.Context, reports []records.Report) {
	if d.NotifyChannel == "" {
		logger.From(ctx).Debug("no notification channel, skipping ban notice")
		return
	}
	Send(ctx, d.NotifyChannel, "", BanNotice(reports))
}

// Escalation broadcasts a reminder about a flagged thread to its channel. Unlike
// other messages, failures are returned, so the case isn't marked as escalated.
func (d Dispatcher) Escalation(ctx workflow.Context, channelID, threadTS string, m Message) (string, error) {
	return activities.PostBroadcast(ctx, channelID, threadTS, m.Text, m.Blocks)
}

// ExpiryDigest posts the daily digest of expiring bans, if there are any.
func (d Dispatcher) ExpiryDigest(ctx workflow.Context, date string, reports []records.Report) {
	if len(reports) == 0 {
		logger.From(ctx).Info("no bans expiring today", slog.String("date", date))
		return
	}
	Send(ctx, d.ExpiryChannel, "", ExpiryDigest(date, reports))
}

// AuditLog relays a Hackatime audit-log event. Failures are returned,
// so the event isn't recorded as relayed, and is retried in the next run.
func (d Dispatcher) AuditLog(ctx workflow.Context, l hackatime.AuditLog) error {
	m := AuditLog(l)
	_, err := activities.PostBlocks(ctx, d.AuditChannel, "", m.Text, m.Blocks)
	return err
}
