package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/internal/otel"
	"github.com/tzrikka/conduct/pkg/config"
	"github.com/tzrikka/conduct/pkg/hackatime"
	"github.com/tzrikka/conduct/pkg/ledger"
	"github.com/tzrikka/conduct/pkg/notify"
	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack"
	"github.com/tzrikka/conduct/pkg/slack/commands"
	"github.com/tzrikka/conduct/pkg/tracker"
)

// Config contains the settings and the stateful dependencies of all the
// workflows in this package. It is created once by the worker at startup.
type Config struct {
	AllowedChannels []string
	TriggerReaction string
	Marks           tracker.Marks
	Location        *time.Location

	// LedgerRetention is how long the ledger remembers relayed audit logs.
	LedgerRetention time.Duration

	Tracker   *tracker.Tracker
	Records   records.Local
	Ledger    ledger.Local
	Hackatime *hackatime.Local // Nil if the audit relay is disabled.

	Notify notify.Dispatcher
	Lookup commands.Lookup
}

// Deps are the stateful dependencies that the worker initializes for [NewConfig].
type Deps struct {
	Tracker   *tracker.Tracker
	Records   records.Store
	Ledger    ledger.Ledger
	Hackatime *hackatime.Client
}

// NewConfig combines the CLI flags with already-initialized dependencies.
func NewConfig(ctx context.Context, cmd *cli.Command, d Deps) (*Config, error) {
	c := &Config{
		AllowedChannels: config.ChannelIDs(cmd.StringSlice("slack-allowed-channels")),
		TriggerReaction: strings.Trim(cmd.String("slack-trigger-reaction"), ":"),
		Marks: tracker.Marks{
			Resolve: cmd.String("slack-resolve-reactions"),
			Waiting: cmd.String("slack-waiting-reactions"),
			Urgent:  strings.Trim(cmd.String("slack-urgent-reaction"), ":"),
		},
		Location:        config.Location(cmd.String("timezone")),
		LedgerRetention: cmd.Duration("ledger-retention"),

		Tracker: d.Tracker,
		Records: records.Local{Store: d.Records},
		Ledger:  ledger.Local{Ledger: d.Ledger},

		Notify: notify.Dispatcher{
			NotifyChannel: cmd.String("slack-notify-channel"),
			ExpiryChannel: cmd.String("slack-expiry-channel"),
			AuditChannel:  cmd.String("slack-audit-channel"),
		},
	}

	if c.LedgerRetention <= 0 {
		c.LedgerRetention = config.DefaultLedgerRetention
	}
	if d.Hackatime != nil {
		c.Hackatime = &hackatime.Local{Client: d.Hackatime}
	}

	if len(c.AllowedChannels) == 0 {
		return nil, errors.New("no allowed Slack channels")
	}
	if err := c.Marks.Validate(); err != nil {
		return nil, err
	}
	if !c.Marks.Waits(stillOngoingReaction) {
		logger.FromContext(ctx).Warn("waiting reactions don't match the \"still ongoing\" reaction",
			slog.String("pattern", c.Marks.Waiting), slog.String("reaction", stillOngoingReaction))
	}

	c.Lookup = commands.Lookup{Records: c.Records, AllowedChannels: c.AllowedChannels}
	return c, nil
}

// Signals is a list of signal names that Conduct receives
// from Timpani, to trigger event handling workflows.
//
// This is based on:
//   - https://docs.slack.dev/reference/events?APIs=Events
//   - https://docs.slack.dev/reference/interaction-payloads
//   - https://github.com/tzrikka/timpani/blob/main/pkg/listeners/slack/dispatch.go
var Signals = []string{
	"slack.events.reaction_added",
	"slack.events.block_actions",
	"slack.events.view_submission",
	"slack.events.slash_command",
}

// Schedules is a list of workflow names that Conduct runs periodically via
// Temporal schedules (https://docs.temporal.io/develop/go/schedules).
var Schedules = []string{
	"conduct.schedules.sweep",
	"conduct.schedules.expiry_digest",
	"conduct.schedules.audit_relay",
}

// RegisterWorkflows maps event-handling workflow functions to [Signals],
// and scheduled workflow functions to [Schedules].
func RegisterWorkflows(w worker.Worker, c *Config) {
	w.RegisterWorkflowWithOptions(c.ReactionAddedWorkflow, workflow.RegisterOptions{Name: Signals[0]})
	w.RegisterWorkflowWithOptions(c.BlockActionsWorkflow, workflow.RegisterOptions{Name: Signals[1]})
	w.RegisterWorkflowWithOptions(c.ViewSubmissionWorkflow, workflow.RegisterOptions{Name: Signals[2]})
	w.RegisterWorkflowWithOptions(c.SlashCommandWorkflow, workflow.RegisterOptions{Name: Signals[3]})

	// Special case: scheduled workflows.
	w.RegisterWorkflowWithOptions(c.SweepWorkflow, workflow.RegisterOptions{Name: Schedules[0]})
	w.RegisterWorkflowWithOptions(c.ExpiryDigestWorkflow, workflow.RegisterOptions{Name: Schedules[1]})
	w.RegisterWorkflowWithOptions(c.AuditRelayWorkflow, workflow.RegisterOptions{Name: Schedules[2]})
}

// RegisterSignals routes [Signals] to their registered workflows.
func RegisterSignals(ctx workflow.Context, sel workflow.Selector) {
	addReceive[slack.ReactionEventWrapper](ctx, sel, Signals[0])
	addReceive[slack.InteractionEvent](ctx, sel, Signals[1])
	addReceive[slack.InteractionEvent](ctx, sel, Signals[2])
	addReceive[slack.SlashCommandEvent](ctx, sel, Signals[3])
}

func addReceive[T any](ctx workflow.Context, sel workflow.Selector, signalName string) {
	sel.AddReceive(workflow.GetSignalChannel(ctx, signalName), func(ch workflow.ReceiveChannel, _ bool) {
		payload := new(T)
		ch.Receive(ctx, payload)

		signal := ch.Name()
		otel.SignalReceived(ctx, signal, false)

		// https://docs.temporal.io/develop/go/child-workflows#parent-close-policy
		ctx = workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:        childWorkflowID(ctx, signal, payload),
			ParentClosePolicy: enums.PARENT_CLOSE_POLICY_ABANDON,
		})
		_ = workflow.ExecuteChildWorkflow(ctx, signal, payload).GetChildWorkflowExecution().Get(ctx, nil)
	})
}

// DrainSignals drains all pending [Signals] channels, and waits
// for their corresponding workflow executions to complete in order.
// This is called in preparation for resetting the dispatcher workflow's history.
func DrainSignals(ctx workflow.Context) int {
	totalEvents := receiveAsync[slack.ReactionEventWrapper](ctx, Signals[0])
	totalEvents += receiveAsync[slack.InteractionEvent](ctx, Signals[1])
	totalEvents += receiveAsync[slack.InteractionEvent](ctx, Signals[2])
	totalEvents += receiveAsync[slack.SlashCommandEvent](ctx, Signals[3])
	return totalEvents
}

func receiveAsync[T any](ctx workflow.Context, signal string) int {
	ch := workflow.GetSignalChannel(ctx, signal)
	signalEvents := 0
	for {
		payload := new(T)
		if !ch.ReceiveAsync(payload) {
			break
		}

		otel.SignalReceived(ctx, signal, true)
		signalEvents++

		ctx = workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: childWorkflowID(ctx, signal, payload),
		})
		_ = workflow.ExecuteChildWorkflow(ctx, signal, payload).Get(ctx, nil)
	}

	if signalEvents > 0 {
		logger.From(ctx).Info("drained signal channel", slog.String("signal", signal),
			slog.Int("event_count", signalEvents))
	}
	return signalEvents
}

func childWorkflowID[T any](ctx workflow.Context, signal string, payload *T) string {
	id := eventID(signal, payload)
	if id == "" {
		return "" // Fallback in case of unexpected payloads: let Temporal use its own default.
	}

	var ts int64
	encoded := workflow.SideEffect(ctx, func(_ workflow.Context) any {
		return time.Now().UnixMilli()
	})
	if err := encoded.Get(&ts); err != nil {
		return id // This should never happen, but just in case: let Temporal use its own default.
	}
	return fmt.Sprintf("%s_%s", id, strconv.FormatInt(ts, 36))
}

// eventID returns a human-readable prefix for the ID of the child
// workflow that handles an event, to simplify debugging in the Temporal UI.
func eventID(signal string, payload any) string {
	switch signal {
	case Signals[0]:
		if event, ok := payload.(*slack.ReactionEventWrapper); ok {
			e := event.InnerEvent
			return fmt.Sprintf("reaction_%s_%s_%s", e.Item.Channel, e.Item.TS, e.Reaction)
		}
	case Signals[1]:
		if event, ok := payload.(*slack.InteractionEvent); ok && len(event.Actions) > 0 {
			return fmt.Sprintf("%s_%s_%s", event.Actions[0].ActionID, event.ChannelID(), event.User.ID)
		}
	case Signals[2]:
		if event, ok := payload.(*slack.InteractionEvent); ok && event.View != nil {
			return fmt.Sprintf("%s_%s_%s", event.View.CallbackID, event.View.ID, event.User.ID)
		}
	case Signals[3]:
		if event, ok := payload.(*slack.SlashCommandEvent); ok {
			cmd := strings.TrimPrefix(event.Command, "/")
			return fmt.Sprintf("%s_%s_%s", cmd, event.ChannelID, event.UserID)
		}
	}
	return ""
}

// ScheduleSettings configures the Temporal schedules of [Schedules].
type ScheduleSettings struct {
	TaskQueue string

	SweepInterval time.Duration

	ExpiryDigestHour   int
	ExpiryDigestMinute int
	TimeZone           string

	AuditPollInterval time.Duration // Zero disables the audit relay schedule.
}

// CreateSchedules starts all the scheduled workflows. Schedules that already
// exist are left as-is, and failures are logged but not fatal.
func CreateSchedules(ctx context.Context, c client.Client, s ScheduleSettings) {
	createSchedule(ctx, c, s.TaskQueue, Schedules[0], client.ScheduleSpec{
		Intervals: []client.ScheduleIntervalSpec{{Every: s.SweepInterval}},
	})

	createSchedule(ctx, c, s.TaskQueue, Schedules[1], client.ScheduleSpec{
		Calendars: []client.ScheduleCalendarSpec{
			{
				Minute: []client.ScheduleRange{{Start: s.ExpiryDigestMinute}},
				Hour:   []client.ScheduleRange{{Start: s.ExpiryDigestHour}},
			},
		},
		TimeZoneName: s.TimeZone,
		Jitter:       10 * time.Second,
	})

	if s.AuditPollInterval > 0 {
		createSchedule(ctx, c, s.TaskQueue, Schedules[2], client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: s.AuditPollInterval}},
		})
	}
}

func createSchedule(ctx context.Context, c client.Client, taskQueue, id string, spec client.ScheduleSpec) {
	_, err := c.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID:   id,
		Spec: spec,
		Action: &client.ScheduleWorkflowAction{
			Workflow:  id,
			TaskQueue: taskQueue,
		},
		Overlap: enums.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("failed to initialize schedule", slog.Any("error", err), slog.String("schedule_id", id))
		return
	}
	logger.FromContext(ctx).Info("initialized schedule", slog.String("schedule_id", id))
}
