package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/tzrikka/conduct/pkg/hackatime"
	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack"
)

func TestTimeSince(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{
			name: "zero",
		},
		{
			name: "seconds",
			t:    now.Add(-20 * time.Second),
			want: "just now",
		},
		{
			name: "minutes",
			t:    now.Add(-3 * time.Minute),
			want: "3m",
		},
		{
			name: "hours",
			t:    now.Add(-5*time.Hour - 3*time.Minute),
			want: "5h 3m",
		},
		{
			name: "days",
			t:    now.Add(-50*time.Hour - 1*time.Minute),
			want: "2d 2h 1m",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timeSince(now, tt.t); got != tt.want {
				t.Errorf("timeSince() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	if got, want := escape("<@U123> & <!channel>"), "&lt;@U123&gt; &amp; &lt;!channel&gt;"; got != want {
		t.Errorf("escape() = %q, want %q", got, want)
	}
}

func TestMention(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"", "N/A"},
		{"U123", "<@U123>"},
		{"W456", "<@W456>"},
		{"bob", "`bob`"},
	}
	for _, tt := range tests {
		if got := mention(tt.id); got != tt.want {
			t.Errorf("mention(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abc", 3); got != "abc" {
		t.Errorf("truncate() = %q, want %q", got, "abc")
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate() = %q, want %q", got, "abc…")
	}
}

func buttonActionIDs(m Message) []string {
	var ids []string
	for _, b := range m.Blocks {
		if b["type"] != "actions" {
			continue
		}
		for _, e := range b["elements"].([]map[string]any) {
			ids = append(ids, e["action_id"].(string))
		}
	}
	return ids
}

func buttonValues(m Message) []string {
	var vs []string
	for _, b := range m.Blocks {
		if b["type"] != "actions" {
			continue
		}
		for _, e := range b["elements"].([]map[string]any) {
			vs = append(vs, e["value"].(string))
		}
	}
	return vs
}

func TestPrompt(t *testing.T) {
	m := Prompt("C1/1700000000.000100")
	if m.Text != "Wanna file a conduct report?" {
		t.Errorf("Prompt().Text = %q", m.Text)
	}

	got := strings.Join(buttonActionIDs(m), ",")
	want := "open_conduct_modal,case_still_ongoing,case_resolved"
	if got != want {
		t.Errorf("Prompt() action IDs = %q, want %q", got, want)
	}
	for _, v := range buttonValues(m) {
		if v != "C1/1700000000.000100" {
			t.Errorf("Prompt() button value = %q", v)
		}
	}
}

func TestEscalation(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	m := Escalation("C1/1.2", now.Add(-6*time.Hour), now)
	if !strings.Contains(m.Text, "(flagged 6h 0m ago)") {
		t.Errorf("Escalation().Text = %q", m.Text)
	}
	if len(buttonActionIDs(m)) != 3 {
		t.Errorf("Escalation() buttons = %v", buttonActionIDs(m))
	}
}

func TestConfirmation(t *testing.T) {
	reports := []records.Report{
		{Subject: "U1", ResolvedBy: []string{"U9"}, Violation: "spam <script>", Resolution: "Warning"},
		{Subject: "U2", ResolvedBy: []string{"U9"}, Violation: "spam <script>", Resolution: "Warning"},
	}
	m := Confirmation(reports)
	if len(m.Blocks) != 2 {
		t.Fatalf("Confirmation() blocks = %d, want 2", len(m.Blocks))
	}

	fs := m.Blocks[1]["fields"].([]map[string]any)
	if got := fs[0]["text"]; got != "*Reported Users:*\n<@U1>, <@U2>" {
		t.Errorf("Confirmation() subjects = %q", got)
	}
	if got := fs[2]["text"]; got != "*What Did They Do?*\nspam &lt;script&gt;" {
		t.Errorf("Confirmation() violation = %q", got)
	}
	if got := fs[4]["text"]; got != "*If Banned, Ban Until:*\nN/A" {
		t.Errorf("Confirmation() until = %q", got)
	}
}

func TestBanNotice(t *testing.T) {
	tests := []struct {
		name  string
		until string
		want  string
	}{
		{
			name: "permanent",
			want: ":hammer: Banned permanently: <@U1>",
		},
		{
			name:  "temporary",
			until: "2025-02-01",
			want:  ":hammer: Banned until 2025-02-01: <@U1>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BanNotice([]records.Report{{Subject: "U1", DisplayName: "Bob", Until: tt.until}})
			if m.Text != tt.want {
				t.Errorf("BanNotice().Text = %q, want %q", m.Text, tt.want)
			}
		})
	}

	if m := BanNotice(nil); m.Text != "" {
		t.Errorf("BanNotice(nil).Text = %q, want empty", m.Text)
	}
}

func TestExpiryDigest(t *testing.T) {
	m := ExpiryDigest("2025-01-10", []records.Report{
		{Subject: "U1", Resolution: "Temporary Ban"},
		{Subject: "U2", DisplayName: "Alice", Resolution: "Channel Ban", Permalink: "https://x/p1"},
	})

	if want := ":calendar: 2 ban(s) expiring today (2025-01-10)"; m.Text != want {
		t.Errorf("ExpiryDigest().Text = %q, want %q", m.Text, want)
	}
	body := m.Blocks[0]["text"].(map[string]any)["text"].(string)
	if !strings.Contains(body, "• <@U1>: Temporary Ban") || !strings.Contains(body, "• <@U2> (Alice): Channel Ban <https://x/p1|(report)>") {
		t.Errorf("ExpiryDigest() body = %q", body)
	}
	if got := buttonActionIDs(m); len(got) != 1 || got[0] != ActionExpiryLifted {
		t.Errorf("ExpiryDigest() buttons = %v", got)
	}
}

func TestAuditLog(t *testing.T) {
	m := AuditLog(hackatime.AuditLog{
		ID:                 "42",
		UserID:             "7",
		UserSlackID:        "U1",
		ChangedBySlackID:   "U2",
		PreviousTrustLevel: "blue",
		NewTrustLevel:      "red",
		Reason:             "cheating",
		CreatedAt:          "2025-01-10T12:00:00Z",
	})

	if want := "🚨 New hackatime ban for <@U1>"; m.Text != want {
		t.Errorf("AuditLog().Text = %q, want %q", m.Text, want)
	}
	if len(m.Blocks) != 3 {
		t.Fatalf("AuditLog() blocks = %d, want 3", len(m.Blocks))
	}

	ctx := m.Blocks[2]["elements"].([]map[string]any)[0]["text"].(string)
	want := "<https://hackatime.hackclub.com/admin/trust_level_audit_logs/42|Audit log #42> | <https://billy.3kh0.net/?u=7|Billy>"
	if ctx != want {
		t.Errorf("AuditLog() context = %q, want %q", ctx, want)
	}
}

func TestHistoryPage(t *testing.T) {
	report := records.Report{Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Violation: "spam", Resolution: "Warning"}
	msg := slack.SearchMatch{TS: "1.2", Text: "hi <@U1>", Channel: slack.Channel{ID: "C1"}}
	entries := []HistoryEntry{
		{Time: report.Time, Report: &report},
		{Time: report.Time.Add(-time.Hour), Message: &msg},
	}

	tests := []struct {
		name string
		nav  HistoryNav
		want []string
	}{
		{
			name: "first_page",
			nav:  HistoryNav{Page: 1, Pages: 3, Next: "n", Dismiss: "d"},
			want: []string{ActionHistoryNext, ActionHistoryDismiss},
		},
		{
			name: "middle_page",
			nav:  HistoryNav{Page: 2, Pages: 3, Prev: "p", Next: "n", Dismiss: "d"},
			want: []string{ActionHistoryPrev, ActionHistoryNext, ActionHistoryDismiss},
		},
		{
			name: "single_page",
			nav:  HistoryNav{Page: 1, Pages: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := HistoryPage("U1", entries, tt.nav)
			if got := buttonActionIDs(m); strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("HistoryPage() buttons = %v, want %v", got, tt.want)
			}
			// Title, and a divider + section per entry.
			if got := len(m.Blocks); got < 5 {
				t.Errorf("HistoryPage() blocks = %d, want at least 5", got)
			}
		})
	}
}

func TestNoHistory(t *testing.T) {
	if got, want := NoHistory("U1", "").Text, "No previous conduct reports found for <@U1>."; got != want {
		t.Errorf("NoHistory() = %q, want %q", got, want)
	}
}
