// Package commands handles Slack slash commands and the
// interactive messages that they create (e.g. pagination).
package commands

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/pkg/notify"
	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack"
	"github.com/tzrikka/conduct/pkg/slack/activities"
)

const (
	// Maximum number of Slack search results per page, and pages per lookup.
	searchCount    = 100
	maxSearchPages = 3
)

// Lookup assembles a user's moderation history from conduct reports and Slack messages.
type Lookup struct {
	Records         records.Local
	AllowedChannels []string
}

func (l Lookup) allowed(channelID string) bool {
	return slices.Contains(l.AllowedChannels, channelID)
}

// PrevReports handles the "/prevreports" slash command. Requests from channels that
// aren't allowed are rejected without any other action. Invalid arguments and lookup
// failures are reported to the user, and results are posted in the same channel.
func (l Lookup) PrevReports(ctx workflow.Context, event slack.SlashCommandEvent) error {
	if !l.allowed(event.ChannelID) {
		logger.From(ctx).Warn("rejected slash command in a non-allowed channel",
			slog.String("channel_id", event.ChannelID), slog.String("user_id", event.UserID))
		notify.Ephemeral(ctx, event.ChannelID, event.UserID, notify.Rejection())
		return nil
	}

	args, err := ParseArgs(event.Text)
	if err != nil {
		notify.Ephemeral(ctx, event.ChannelID, event.UserID, notify.Error(err.Error()))
		return nil // Not a server error as far as we're concerned.
	}

	state := PageState{Page: 1, Query: SearchQuery(args.Subject), Subject: args.Subject, Source: args.Source}
	entries, unavailable, err := l.history(ctx, state)
	if err != nil {
		notify.Ephemeral(ctx, event.ChannelID, event.UserID, notify.Error("failed to look up previous reports."))
		return err
	}

	if len(entries) == 0 && len(unavailable) == 0 {
		source := ""
		if args.Source != SourceBoth {
			source = args.Source
		}
		notify.Ephemeral(ctx, event.ChannelID, event.UserID, notify.NoHistory(args.Subject, source))
		return nil
	}

	if notify.Send(ctx, event.ChannelID, "", Render(entries, state, unavailable...)) == "" {
		notify.Ephemeral(ctx, event.ChannelID, event.UserID, notify.Error("failed to post previous reports."))
	}
	return nil
}

// Navigate handles the buttons of history pages: previous and next
// pages are rendered again from scratch, based on the state in the
// button's value, and "dismiss" deletes the history message.
func (l Lookup) Navigate(ctx workflow.Context, event slack.InteractionEvent, action slack.Action) error {
	channelID, msgTS := event.ChannelID(), event.MessageTS()
	if !l.allowed(channelID) {
		notify.Ephemeral(ctx, channelID, event.User.ID, notify.Rejection())
		return nil
	}

	if action.ActionID == notify.ActionHistoryDismiss {
		notify.Dismiss(ctx, channelID, msgTS)
		return nil
	}

	state, err := DecodePageState(action.Value)
	if err != nil {
		logger.From(ctx).Error("bad history button value", slog.Any("error", err), slog.String("value", action.Value))
		notify.Ephemeral(ctx, channelID, event.User.ID, notify.Error("this button is broken, please run the command again."))
		return err
	}

	entries, unavailable, err := l.history(ctx, state)
	if err != nil {
		notify.Ephemeral(ctx, channelID, event.User.ID, notify.Error("failed to look up previous reports."))
		return err
	}

	notify.Update(ctx, channelID, msgTS, Render(entries, state, unavailable...))
	return nil
}

// Render returns the page of history entries which is specified in the state.
// The page is clamped into the valid range of pages, based on the entries.
// Unavailable sources, if any, are noted in the page.
func Render(entries []notify.HistoryEntry, state PageState, unavailable ...string) notify.Message {
	page, p := Paginate(entries, state.Page)
	state.Page, state.Pages = p, Pages(len(entries))

	nav := notify.HistoryNav{Page: state.Page, Pages: state.Pages, Dismiss: state.Encode(), Unavailable: unavailable}
	if p > 1 {
		prev := state
		prev.Page--
		nav.Prev = prev.Encode()
	}
	if p < state.Pages {
		next := state
		next.Page++
		nav.Next = next.Encode()
	}

	return notify.HistoryPage(state.Subject, page, nav)
}

// history returns all the entries of a user's moderation history, newest first.
// If one of several requested sources fails, the entries of the other sources
// are still returned, along with the names of the unavailable sources. An error
// is returned only if nothing could be loaded.
func (l Lookup) history(ctx workflow.Context, state PageState) ([]notify.HistoryEntry, []string, error) {
	var entries []notify.HistoryEntry
	var unavailable []string
	var errs []error
	requested := 0

	if state.Source == SourceBoth || state.Source == SourceAirtable {
		requested++
		reports, err := l.Records.BySubject(ctx, state.Subject)
		if err != nil {
			logger.From(ctx).Error("failed to query conduct reports", slog.Any("error", err),
				slog.String("subject", state.Subject))
			unavailable = append(unavailable, "Airtable")
			errs = append(errs, err)
		}
		for _, r := range reports {
			entries = append(entries, notify.HistoryEntry{Time: r.Time, Report: &r})
		}
	}

	if state.Source == SourceBoth || state.Source == SourceSlack {
		requested++
		matches, err := searchAll(ctx, cmp.Or(state.Query, SearchQuery(state.Subject)))
		if err != nil {
			unavailable = append(unavailable, "Slack search")
			errs = append(errs, err)
		}
		for _, m := range matches {
			entries = append(entries, notify.HistoryEntry{Time: parseTS(m.TS), Message: &m})
		}
	}

	if len(errs) == requested {
		return nil, nil, errors.Join(errs...)
	}

	SortNewestFirst(entries)
	return entries, unavailable, nil
}

// searchAll returns up to a few pages of Slack messages which match a query.
// Messages without a human author (e.g. the bot's own history pages) are skipped.
func searchAll(ctx workflow.Context, query string) ([]slack.SearchMatch, error) {
	var matches []slack.SearchMatch
	for page := 1; page <= maxSearchPages; page++ {
		ms, paging, err := activities.SearchMessages(ctx, query, searchCount, page)
		if err != nil {
			return nil, err
		}
		for _, m := range ms {
			if m.User != "" {
				matches = append(matches, m)
			}
		}
		if page >= paging.Pages {
			break
		}
	}
	return matches, nil
}

// SortNewestFirst sorts history entries by time, in descending order.
func SortNewestFirst(entries []notify.HistoryEntry) {
	slices.SortStableFunc(entries, func(a, b notify.HistoryEntry) int {
		return b.Time.Compare(a.Time)
	})
}

// parseTS converts a Slack message timestamp ("1234567890.123456") into a time.
func parseTS(ts string) time.Time {
	secs, micros, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}
	}
	us, _ := strconv.ParseInt((micros + "000000")[:6], 10, 64)
	return time.Unix(s, us*1000).UTC()
}
