package workflows

import (
	"fmt"
	"slices"
	"strings"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/pkg/slack"
	"github.com/tzrikka/conduct/pkg/tracker"
)

// stillOngoingReaction marks a thread whose moderators said that
// the case is still ongoing, so the sweep may escalate it later.
const stillOngoingReaction = "hourglass_flowing_sand"

func (c *Config) allowed(channelID string) bool {
	return slices.Contains(c.AllowedChannels, channelID)
}

func selfTriggeredEvent(ctx workflow.Context, auth []slack.EventAuth, userID string) bool {
	for _, a := range auth {
		if a.IsBot && a.UserID == userID {
			logger.From(ctx).Debug("ignoring self-triggered Slack event")
			return true
		}
	}
	return false
}

// reactionName strips the skin-tone modifier from a reaction name.
func reactionName(reaction string) string {
	name, _, _ := strings.Cut(reaction, "::")
	return name
}

// parseCaseID is the inverse of [tracker.Key.String].
func parseCaseID(id string) (tracker.Key, error) {
	ch, ts, ok := strings.Cut(id, "/")
	if !ok || ch == "" || ts == "" || strings.Contains(ts, "/") {
		return tracker.Key{}, fmt.Errorf("invalid case ID: %q", id)
	}
	return tracker.Key{Channel: ch, ThreadTS: ts}, nil
}

// caseKey identifies the moderation case of a clicked button: based on the
// button's value if possible, or else based on the message's thread.
func caseKey(event slack.InteractionEvent, action slack.Action) (tracker.Key, error) {
	if k, err := parseCaseID(action.Value); err == nil {
		return k, nil
	}

	k := tracker.Key{Channel: event.ChannelID(), ThreadTS: event.ThreadTS()}
	if k.Channel == "" || k.ThreadTS == "" {
		return tracker.Key{}, fmt.Errorf("failed to identify case of button %q", action.ActionID)
	}
	return k, nil
}
