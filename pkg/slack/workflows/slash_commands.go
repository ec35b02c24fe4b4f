package workflows

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/pkg/notify"
	"github.com/tzrikka/conduct/pkg/slack"
)

// SlashCommandWorkflow routes slash command events to their respective handlers in the [commands] package:
//   - https://docs.slack.dev/apis/events-api/using-socket-mode#command
//   - https://docs.slack.dev/interactivity/implementing-slash-commands#app_command_handling
func (c *Config) SlashCommandWorkflow(ctx workflow.Context, event slack.SlashCommandEvent) error {
	switch event.Command {
	case "/prevreports":
		return c.Lookup.PrevReports(ctx, event)
	}

	notify.Ephemeral(ctx, event.ChannelID, event.UserID, notify.Error(fmt.Sprintf("unrecognized command `%s`", event.Command)))
	return nil
}
