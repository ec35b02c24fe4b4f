package notify

import (
	"fmt"
	"strings"
	"time"
)

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escape makes user-provided text safe to embed in Slack mrkdwn:
// https://docs.slack.dev/messaging/formatting-message-text#escaping
func escape(s string) string {
	return mrkdwnEscaper.Replace(s)
}

// mention returns a Slack user mention, or the raw ID in
// code format if it does not look like a Slack user ID.
func mention(id string) string {
	if id == "" {
		return "N/A"
	}
	if strings.HasPrefix(id, "U") || strings.HasPrefix(id, "W") {
		return fmt.Sprintf("<@%s>", id)
	}
	return fmt.Sprintf("`%s`", escape(id))
}

func mentions(ids []string) string {
	if len(ids) == 0 {
		return "N/A"
	}
	m := make([]string, 0, len(ids))
	for _, id := range ids {
		m = append(m, mention(id))
	}
	return strings.Join(m, ", ")
}

func link(url, text string) string {
	if url == "" {
		return text
	}
	return fmt.Sprintf("<%s|%s>", url, text)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// timeSince returns a short human-readable duration between
// two points in time, e.g. "5h 3m" or "2d 1h 0m".
func timeSince(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t).Round(time.Minute)
	if d < time.Minute {
		return "just now"
	}
	if d.Hours() < 24 {
		return strings.TrimSpace(strings.TrimSuffix(strings.Replace(d.String(), "h", "h ", 1), "0s"))
	}

	days := int(d.Hours()) / 24
	d -= time.Hour * time.Duration(24*days)
	s := fmt.Sprintf("%dd %s", days, d)
	return strings.TrimSpace(strings.TrimSuffix(strings.ReplaceAll(s, "h", "h "), "0s"))
}

// truncate shortens text to a maximum number of runes, with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
