// Package activities wraps Slack API calls with consistent error logging,
// for use in Temporal workflows.
package activities

import (
	"fmt"
	"log/slog"
	"strings"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/pkg/slack"
	tslack "github.com/tzrikka/timpani-api/pkg/slack"
)

func DeleteMessage(ctx workflow.Context, channelID, timestamp string) error {
	if err := tslack.ChatDelete(ctx, channelID, timestamp); err != nil {
		logger.From(ctx).Error("failed to delete Slack message", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("msg_ts", timestamp))
		return err
	}
	return nil
}

func PostEphemeralMessage(ctx workflow.Context, channelID, userID, msg string) error {
	req := tslack.ChatPostEphemeralRequest{Channel: channelID, User: userID, Text: msg}
	if err := tslack.ChatPostEphemeral(ctx, req); err != nil {
		if e := err.Error(); strings.Contains(e, "channel_not_found") || strings.Contains(e, "not_in_channel") {
			err = PostMessage(ctx, userID, fmt.Sprintf("Couldn't send you this message in <#%s>:\n\n%s", channelID, msg))
		} else {
			logger.From(ctx).Error("failed to post Slack ephemeral message", slog.Any("error", err),
				slog.String("channel_id", channelID), slog.String("user_id", userID))
		}
		return err
	}
	return nil
}

func PostMessage(ctx workflow.Context, channelID, msg string) error {
	_, err := PostReply(ctx, channelID, "", msg)
	return err
}

func PostReply(ctx workflow.Context, channelID, timestamp, msg string) (string, error) {
	return PostBlocks(ctx, channelID, timestamp, msg, nil)
}

// PostBlocks posts a Block Kit message, with a plain-text fallback for notifications.
// If the timestamp is not empty, the message is posted as a reply in that thread.
func PostBlocks(ctx workflow.Context, channelID, timestamp, text string, blocks []map[string]any) (string, error) {
	resp, err := tslack.ChatPostMessage(ctx, tslack.ChatPostMessageRequest{
		Channel:  channelID,
		ThreadTS: timestamp,
		Text:     text,
		Blocks:   blocks,
	})
	if err != nil {
		logger.From(ctx).Error("failed to post Slack message", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("thread_ts", timestamp))
		return "", err
	}
	return resp.TS, nil
}

// PostBroadcast posts a reply in a thread which is also sent to the channel.
func PostBroadcast(ctx workflow.Context, channelID, timestamp, text string, blocks []map[string]any) (string, error) {
	ts, err := slack.ChatPostMessage(ctx, slack.ChatPostMessageRequest{
		Channel:        channelID,
		ThreadTS:       timestamp,
		ReplyBroadcast: true,
		Text:           text,
		Blocks:         blocks,
	})
	if err != nil {
		logger.From(ctx).Error("failed to broadcast Slack thread reply", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("thread_ts", timestamp))
		return "", err
	}
	return ts, nil
}

func UpdateMessage(ctx workflow.Context, channelID, timestamp, msg string) error {
	req := tslack.ChatUpdateRequest{Channel: channelID, TS: timestamp, Text: msg}
	if err := tslack.ChatUpdate(ctx, req); err != nil {
		logger.From(ctx).Error("failed to update Slack message", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("msg_ts", timestamp))
		return err
	}
	return nil
}

// UpdateBlocks replaces the content of a Block Kit message.
func UpdateBlocks(ctx workflow.Context, channelID, timestamp, text string, blocks []map[string]any) error {
	req := slack.ChatUpdateRequest{Channel: channelID, TS: timestamp, Text: text, Blocks: blocks}
	if err := slack.ChatUpdate(ctx, req); err != nil {
		logger.From(ctx).Error("failed to update Slack message blocks", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("msg_ts", timestamp))
		return err
	}
	return nil
}

// Permalink returns the permalink URL of a message. Failures are logged,
// and result in an empty string rather than an error, because the permalink
// is informative and shouldn't block the filing of a report.
func Permalink(ctx workflow.Context, channelID, timestamp string) string {
	url, err := slack.ChatGetPermalink(ctx, channelID, timestamp)
	if err != nil {
		logger.From(ctx).Warn("failed to get Slack message permalink", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("msg_ts", timestamp))
		return ""
	}
	return url
}

// OpenView opens a modal dialog for the user who triggered an interaction.
func OpenView(ctx workflow.Context, triggerID string, view map[string]any) error {
	if err := slack.ViewsOpen(ctx, triggerID, view); err != nil {
		logger.From(ctx).Error("failed to open Slack modal view", slog.Any("error", err))
		return err
	}
	return nil
}

// SearchMessages returns one page of Slack messages matching a query, newest first.
func SearchMessages(ctx workflow.Context, query string, count, page int) ([]slack.SearchMatch, slack.Paging, error) {
	matches, paging, err := slack.SearchMessages(ctx, query, count, page)
	if err != nil {
		logger.From(ctx).Error("failed to search Slack messages", slog.Any("error", err),
			slog.String("query", query), slog.Int("page", page))
		return nil, slack.Paging{}, err
	}
	return matches, paging, nil
}
