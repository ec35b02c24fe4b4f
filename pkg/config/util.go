package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`(?i)^(\d{1,2}(:\d{2})?)\s*([ap]m?)?$`)

// ChannelIDs normalizes a list of Slack channel IDs: entries may also be
// comma-separated, and are trimmed, uppercased, sorted and deduplicated.
// Empty entries are logged and skipped.
func ChannelIDs(values []string) []string {
	ids := make([]string, 0, len(values))
	for _, v := range values {
		for id := range strings.SplitSeq(v, ",") {
			id = strings.ToUpper(strings.TrimSpace(id))
			if id == "" {
				slog.Warn("empty Slack channel ID in configuration", slog.String("value", v))
				continue
			}
			ids = append(ids, id)
		}
	}

	slices.Sort(ids)
	return slices.Compact(ids)
}

// ClockTime parses a time of day in 12-hour ("9am", "9:30 PM")
// or 24-hour ("09:00", "21:30") format, and returns its hour and minute.
func ClockTime(s string) (hour, minute int, err error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time format: %q", s)
	}

	timeStr, amPm := m[1], strings.ToUpper(m[3])
	switch len(timeStr) {
	case 1:
		timeStr = fmt.Sprintf("0%s:00", timeStr)
	case 2:
		timeStr += ":00"
	case 4:
		timeStr = "0" + timeStr
	}

	layout := time.Kitchen
	switch len(amPm) {
	case 0:
		layout = "15:04" // 24-hour format.
	case 1:
		amPm += "M"
	}

	t, err := time.Parse(layout, timeStr+amPm)
	if err != nil {
		return 0, 0, err
	}

	return t.Hour(), t.Minute(), nil
}

// Location loads an IANA timezone, falling back to [DefaultTimezone].
func Location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc
	}

	slog.Error("invalid timezone in configuration", slog.Any("error", err), slog.String("tz", name))
	loc, err = time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
