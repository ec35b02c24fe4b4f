package workflows

import (
	"log/slog"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/pkg/slack"
	"github.com/tzrikka/conduct/pkg/slack/activities"
	"github.com/tzrikka/conduct/pkg/tracker"
)

// ReactionAddedWorkflow handles moderation reactions in allowed channels: the trigger
// reaction opens (or re-prompts) a case for the message's thread, and resolve/cancel
// reactions close it: https://docs.slack.dev/reference/events/reaction_added/
func (c *Config) ReactionAddedWorkflow(ctx workflow.Context, event slack.ReactionEventWrapper) error {
	e := event.InnerEvent
	if e.Item.Type != "message" || !c.allowed(e.Item.Channel) {
		return nil
	}
	if selfTriggeredEvent(ctx, event.Authorizations, e.User) {
		return nil
	}

	switch name := reactionName(e.Reaction); {
	case name == c.TriggerReaction:
		return c.flagThread(ctx, tracker.Key{Channel: e.Item.Channel, ThreadTS: e.Item.TS}, e.User)
	case c.Marks.Resolves(name):
		return c.resolveByReaction(ctx, e.Item.Channel, e.Item.TS)
	default:
		return nil
	}
}

// flagThread registers a moderation case (or reuses the existing one),
// and prompts the moderators in the thread to file a conduct report.
func (c *Config) flagThread(ctx workflow.Context, k tracker.Key, userID string) error {
	l := logger.From(ctx)
	t := c.Tracker.In(ctx)

	_, created, err := t.RegisterOrTouch(k)
	if err != nil {
		l.Error("failed to register moderation case", slog.Any("error", err), slog.String("case", k.String()))
		return err
	}
	l.Info("moderation thread flagged", slog.String("case", k.String()),
		slog.String("user_id", userID), slog.Bool("new_case", created))

	if c.Notify.Prompt(ctx, k.Channel, k.ThreadTS, k.String()) == "" {
		return nil // Best-effort: the moderator can react again.
	}

	if _, err := t.MarkPrompted(k); err != nil {
		l.Error("failed to mark moderation case as prompted", slog.Any("error", err), slog.String("case", k.String()))
		return err
	}
	return nil
}

// resolveByReaction deletes the case which matches a message, either its thread
// or its escalation broadcast, and then removes the urgent mark from the thread.
func (c *Config) resolveByReaction(ctx workflow.Context, channelID, ts string) error {
	cs, found, err := c.Tracker.In(ctx).Resolve(channelID, ts)
	if err != nil {
		logger.From(ctx).Error("failed to resolve moderation case", slog.Any("error", err),
			slog.String("channel_id", channelID), slog.String("msg_ts", ts))
		return err
	}
	if !found {
		return nil
	}

	logger.From(ctx).Info("moderation case resolved by reaction", slog.String("case", cs.Key.String()))
	if cs.EscalationSent {
		_ = activities.RemoveReaction(ctx, cs.Channel, cs.ThreadTS, c.Marks.Urgent)
	}
	return nil
}
