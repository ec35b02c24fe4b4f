package activities

import (
	"log/slog"
	"strings"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/pkg/slack"
	tslack "github.com/tzrikka/timpani-api/pkg/slack"
)

// AddReaction adds an emoji reaction to a Slack message. It is idempotent:
// the message already having this reaction from the bot is not an error.
func AddReaction(ctx workflow.Context, channelID, timestamp, name string) error {
	if err := tslack.ReactionsAdd(ctx, channelID, timestamp, name); err != nil && !strings.Contains(err.Error(), "already_reacted") {
		logger.From(ctx).Error("failed to add Slack reaction", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("msg_ts", timestamp), slog.String("reaction", name))
		return err
	}
	return nil
}

// RemoveReaction removes one of the bot's emoji reactions from a Slack message.
// It is idempotent: a missing reaction is not an error.
func RemoveReaction(ctx workflow.Context, channelID, timestamp, name string) error {
	if err := tslack.ReactionsRemove(ctx, channelID, timestamp, name); err != nil && !strings.Contains(err.Error(), "no_reaction") {
		logger.From(ctx).Error("failed to remove Slack reaction", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("msg_ts", timestamp), slog.String("reaction", name))
		return err
	}
	return nil
}

// Reactions returns the names of all the reactions on a Slack message.
func Reactions(ctx workflow.Context, channelID, timestamp string) ([]string, error) {
	names, err := slack.ReactionsGet(ctx, channelID, timestamp)
	if err != nil {
		logger.From(ctx).Error("failed to get Slack reactions", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("msg_ts", timestamp))
		return nil, err
	}
	return names, nil
}
