package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/tzrikka/conduct/pkg/hackatime"
	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack"
)

// Action IDs of the buttons in the messages that this package renders.
const (
	ActionOpenModal    = "open_conduct_modal"
	ActionStillOngoing = "case_still_ongoing"
	ActionResolved     = "case_resolved"
	ActionExpiryLifted = "expiry_lifted"

	ActionHistoryPrev    = "history_prev"
	ActionHistoryNext    = "history_next"
	ActionHistoryDismiss = "history_dismiss"
)

const (
	caseBlockID    = "conduct_case"
	expiryBlockID  = "conduct_expiry"
	historyBlockID = "conduct_history"

	auditLogURL = "https://hackatime.hackclub.com/admin/trust_level_audit_logs/"
	billyURL    = "https://billy.3kh0.net/?u="

	maxSectionText = 3000
)

// Prompt asks the moderators in a flagged thread whether they want to file a
// conduct report. The case ID is attached to all the buttons as their value.
func Prompt(caseID string) Message {
	return Message{
		Text: "Wanna file a conduct report?",
		Blocks: []map[string]any{
			section("*Wanna file a conduct report?*"),
			caseActions(caseID),
		},
	}
}

// Escalation is broadcast to the channel when a flagged thread
// is still waiting for a report, long after it was last prompted.
func Escalation(caseID string, created, now time.Time) Message {
	text := ":rotating_light: This thread is still waiting for a conduct report"
	if since := timeSince(now, created); since != "" && since != "just now" {
		text += fmt.Sprintf(" (flagged %s ago)", since)
	}

	return Message{
		Text: text,
		Blocks: []map[string]any{
			section(fmt.Sprintf("*%s*\nIf it's done, please file a report. If it's still going on, let us know.", text)),
			caseActions(caseID),
		},
	}
}

// EscalationHandled replaces the content of an escalation broadcast
// after the case was handled, to prevent repeated button clicks.
func EscalationHandled(userID, outcome string) Message {
	text := fmt.Sprintf(":white_check_mark: %s by %s", outcome, mention(userID))
	return Message{Text: text, Blocks: []map[string]any{section(text)}}
}

func caseActions(caseID string) map[string]any {
	return actions(caseBlockID,
		button(ActionOpenModal, "File A Report Here", caseID, "primary"),
		button(ActionStillOngoing, "Still Ongoing", caseID, ""),
		button(ActionResolved, "Resolved, No Report Needed", caseID, ""),
	)
}

// Confirmation summarizes a filed conduct report in its thread. All the reports
// are expected to share the same submission data, except for their subjects.
func Confirmation(reports []records.Report) Message {
	if len(reports) == 0 {
		return Message{Text: "Added to the Airtable"}
	}

	r := reports[0]
	return Message{
		Text: "Added to the Airtable",
		Blocks: []map[string]any{
			section("*Your Conduct Report Has Been Added To The Airtable, thank youu!*"),
			fields(
				"*Reported Users:*\n"+mentions(subjectsOf(reports)),
				"*Resolved By:*\n"+mentions(r.ResolvedBy),
				"*What Did They Do?*\n"+truncate(escape(orNA(r.Violation)), 1900),
				"*How Did We Deal With This?*\n"+truncate(escape(r.Resolution), 1900),
				"*If Banned, Ban Until:*\n"+orNA(r.Until),
				"*Link To Message:*\n"+orNA(r.Permalink),
			),
		},
	}
}

// BanNotice announces a ban in the notification channel.
func BanNotice(reports []records.Report) Message {
	if len(reports) == 0 {
		return Message{}
	}

	r := reports[0]
	names := make([]string, 0, len(reports))
	for _, s := range reports {
		name := mention(s.Subject)
		if s.DisplayName != "" {
			name += fmt.Sprintf(" (%s)", escape(s.DisplayName))
		}
		names = append(names, name)
	}

	until := "permanently"
	if r.Until != "" {
		until = "until " + r.Until
	}

	text := fmt.Sprintf(":hammer: Banned %s", until)
	msg := fmt.Sprintf("*%s:* %s\n*Reason:* %s\n*Resolved by:* %s", text, strings.Join(names, ", "),
		truncate(escape(orNA(r.Violation)), 1000), mentions(r.ResolvedBy))
	if r.Permalink != "" {
		msg += "\n" + link(r.Permalink, "Link to message")
	}

	return Message{
		Text:   fmt.Sprintf("%s: %s", text, mentions(subjectsOf(reports))),
		Blocks: []map[string]any{section(truncate(msg, maxSectionText))},
	}
}

// ExpiryDigest lists all the bans which expire on the given date,
// and asks moderators to confirm that they were lifted.
func ExpiryDigest(date string, reports []records.Report) Message {
	lines := make([]string, 0, len(reports))
	for _, r := range reports {
		line := "• " + mention(r.Subject)
		if r.DisplayName != "" {
			line += fmt.Sprintf(" (%s)", escape(r.DisplayName))
		}
		line += ": " + truncate(escape(orNA(r.Resolution)), 200)
		if r.Permalink != "" {
			line += " " + link(r.Permalink, "(report)")
		}
		lines = append(lines, line)
	}

	text := fmt.Sprintf(":calendar: %d ban(s) expiring today (%s)", len(reports), date)
	body := fmt.Sprintf("*%s*\n%s", text, strings.Join(lines, "\n"))

	return Message{
		Text: text,
		Blocks: []map[string]any{
			section(truncate(body, maxSectionText)),
			contextBlock("Please lift these restrictions, and then click the button below."),
			actions(expiryBlockID, button(ActionExpiryLifted, "Lifted", date, "primary")),
		},
	}
}

// ExpiryAcknowledged replaces the content of an expiry digest after
// a moderator confirmed that all the listed restrictions were lifted.
func ExpiryAcknowledged(original, userID string) Message {
	text := fmt.Sprintf("%s\n:white_check_mark: Lifted by %s", original, mention(userID))
	return Message{Text: text, Blocks: []map[string]any{section(truncate(text, maxSectionText))}}
}

// AuditLog relays a new Hackatime trust-level audit event (i.e. a ban).
func AuditLog(l hackatime.AuditLog) Message {
	user := orNA(l.UserID)
	if l.UserSlackID != "" {
		user = mention(l.UserSlackID)
	}

	var created string
	if t := l.Created(); !t.IsZero() {
		created = fmt.Sprintf("<!date^%d^{date_short_pretty} {time}|%s>", t.Unix(), t.UTC().Format(time.RFC3339))
	} else {
		created = orNA(l.CreatedAt)
	}

	ctx := link(auditLogURL+l.ID, "Audit log #"+l.ID)
	if l.UserID != "" {
		ctx += " | " + link(billyURL+l.UserID, "Billy")
	}

	return Message{
		Text: "🚨 New hackatime ban for " + user,
		Blocks: []map[string]any{
			header("🚨 New hackatime ban"),
			fields(
				"*User:*\n"+user,
				"*Changed By:*\n"+mention(l.ChangedBySlackID),
				"*Trust Level:*\n"+fmt.Sprintf("%s → %s", orNA(l.PreviousTrustLevel), orNA(l.NewTrustLevel)),
				"*When:*\n"+created,
				"*Reason:*\n"+truncate(escape(orNA(l.Reason)), 1900),
				"*Notes:*\n"+truncate(escape(orNA(l.Notes)), 1900),
			),
			contextBlock(ctx),
		},
	}
}

// HistoryEntry is a single item in a user's moderation history:
// either a conduct report, or a Slack message which mentions the user.
type HistoryEntry struct {
	Time    time.Time
	Report  *records.Report
	Message *slack.SearchMatch
}

// HistoryNav is the navigation state of a history page. Empty
// values indicate that the corresponding button should be hidden.
type HistoryNav struct {
	Page, Pages int

	Prev, Next, Dismiss string

	// Unavailable lists history sources that failed to load.
	Unavailable []string
}

// NoHistory is the reply to a lookup that didn't find anything.
func NoHistory(subject, source string) Message {
	text := fmt.Sprintf("No previous conduct reports found for %s", mention(subject))
	if source != "" {
		text += fmt.Sprintf(" (source: %s)", source)
	}
	return Message{Text: text + "."}
}

// HistoryPage renders one page of a user's moderation history.
func HistoryPage(subject string, entries []HistoryEntry, nav HistoryNav) Message {
	title := fmt.Sprintf("Previous reports for %s (page %d of %d):", mention(subject), nav.Page, nav.Pages)
	blocks := []map[string]any{section(title)}

	for _, e := range entries {
		blocks = append(blocks, divider())
		switch {
		case e.Report != nil:
			blocks = append(blocks, section(truncate(reportEntry(*e.Report), maxSectionText)))
		case e.Message != nil:
			blocks = append(blocks, section(truncate(messageEntry(*e.Message, e.Time), maxSectionText)))
		}
	}

	if len(nav.Unavailable) > 0 {
		note := fmt.Sprintf(":warning: Results from %s are unavailable right now, this list may be incomplete.",
			strings.Join(nav.Unavailable, " and "))
		blocks = append(blocks, contextBlock(note))
	}

	var buttons []map[string]any
	if nav.Prev != "" {
		buttons = append(buttons, button(ActionHistoryPrev, "◀ Previous", nav.Prev, ""))
	}
	if nav.Next != "" {
		buttons = append(buttons, button(ActionHistoryNext, "Next ▶", nav.Next, ""))
	}
	if nav.Dismiss != "" {
		buttons = append(buttons, button(ActionHistoryDismiss, "Dismiss", nav.Dismiss, "danger"))
	}
	if len(buttons) > 0 {
		blocks = append(blocks, actions(historyBlockID, buttons...))
	}

	return Message{Text: title, Blocks: blocks}
}

func reportEntry(r records.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Report from: %s*\n", r.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Dealt with by: %s\n", mentions(r.ResolvedBy))
	fmt.Fprintf(&sb, "What they did: %s\n", truncate(escape(orNA(r.Violation)), 1000))
	fmt.Fprintf(&sb, "How we dealt with this: %s", truncate(escape(orNA(r.Resolution)), 1000))
	if r.Until != "" {
		fmt.Fprintf(&sb, "\nUntil: %s", r.Until)
	}
	if r.Permalink != "" {
		sb.WriteString("\n" + link(r.Permalink, "Link to message"))
	}
	return sb.String()
}

func messageEntry(m slack.SearchMatch, t time.Time) string {
	when := m.TS
	if !t.IsZero() {
		when = t.UTC().Format(time.RFC3339)
	}

	where := "a message"
	if m.Channel.ID != "" {
		where = fmt.Sprintf("<#%s>", m.Channel.ID)
	}

	author := ""
	if m.User != "" {
		author = " by " + mention(m.User)
	}

	text := fmt.Sprintf("*Slack message in %s%s (%s)*\n%s", where, author, when, truncate(m.Text, 1000))
	if m.Permalink != "" {
		text += "\n" + link(m.Permalink, "Link to message")
	}
	return text
}

// Rejection is sent to users who aren't allowed to use a command or action.
func Rejection() Message {
	return Message{Text: "Nuh uh, you shouldn't be able to use that >:)"}
}

// Error is sent to users when a command or action that they initiated has failed.
func Error(msg string) Message {
	return Message{Text: ":warning: Error: " + msg}
}

// Invalid lists the validation errors of a user request, one per line.
func Invalid(problems []string) Message {
	return Message{Text: ":warning: Error: your submission wasn't saved:\n• " + strings.Join(problems, "\n• ")}
}

func subjectsOf(reports []records.Report) []string {
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.Subject)
	}
	return ids
}
