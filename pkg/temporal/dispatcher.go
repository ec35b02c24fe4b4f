package temporal

import (
	"log/slog"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/internal/temporal"
	"github.com/tzrikka/conduct/pkg/slack/workflows"
)

// EventDispatcher is the name and ID of the Conduct event dispatcher workflow.
const EventDispatcher = "conduct.events.dispatcher"

// EventDispatcherWorkflow is an always-running singleton workflow that receives Temporal
// signals from [Timpani] and spawns event-specific child workflows to handle them.
//
// [Timpani]: https://pkg.go.dev/github.com/tzrikka/timpani/pkg/listeners
func EventDispatcherWorkflow(ctx workflow.Context) error {
	if err := temporal.AdvertiseSignals(ctx, workflows.Signals); err != nil {
		return err
	}

	sel := workflow.NewSelector(ctx)
	workflows.RegisterSignals(ctx, sel)

	for {
		sel.Select(ctx)

		// https://docs.temporal.io/develop/go/continue-as-new
		// https://docs.temporal.io/develop/go/message-passing#wait-for-message-handlers
		if info := workflow.GetInfo(ctx); info.GetContinueAsNewSuggested() {
			l := logger.From(ctx)
			l.Info("continue-as-new suggested by Temporal server",
				slog.Int("history_length", info.GetCurrentHistoryLength()),
				slog.Int("history_size", info.GetCurrentHistorySize()))

			// "Lame duck" mode: drain all signal channels before resetting workflow history.
			// This minimizes - but doesn't entirely eliminate - the chance of losing signals.
			// That's why we run this in a slowed-down loop until no signals are left to process:
			// it will continue until the worker is relatively idle.
			for counter := 1; counter > 0; {
				_ = workflow.Sleep(ctx, 5*time.Second)
				counter = workflows.DrainSignals(ctx)
			}

			l.Warn("triggering workflow continue-as-new",
				slog.Int("history_length", info.GetCurrentHistoryLength()),
				slog.Int("history_size", info.GetCurrentHistorySize()))
			return workflow.NewContinueAsNewError(ctx, EventDispatcher)
		}
	}
}
