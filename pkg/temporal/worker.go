// Package temporal initializes a Temporal worker.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/internal/otel"
	"github.com/tzrikka/conduct/pkg/config"
	"github.com/tzrikka/conduct/pkg/hackatime"
	"github.com/tzrikka/conduct/pkg/ledger"
	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack"
	"github.com/tzrikka/conduct/pkg/slack/workflows"
	"github.com/tzrikka/conduct/pkg/tracker"
)

// LoadDotEnv loads environment variables from a ".env" file in the current
// directory, if it exists. It does not override variables that are already set.
func LoadDotEnv(ctx context.Context) {
	if err := godotenv.Load(); err == nil {
		logger.FromContext(ctx).Info("loaded environment variables from .env file")
	}
}

// Run initializes the Temporal worker, and blocks.
func Run(ctx context.Context, cmd *cli.Command) error {
	l := logger.FromContext(ctx)

	mp, err := otel.InitMetrics(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize OTLP metrics exporter: %w", err)
	}
	if mp != nil {
		defer func() { _ = mp.Shutdown(context.WithoutCancel(ctx)) }()
	}

	addr := cmd.String("temporal-address")
	l.Info("Temporal server address: " + addr)

	c, err := client.Dial(client.Options{
		HostPort:  addr,
		Namespace: cmd.String("temporal-namespace"),
		Logger:    log.NewStructuredLogger(l),
	})
	if err != nil {
		return fmt.Errorf("failed to dial Temporal: %w", err)
	}
	defer c.Close()

	deps, err := initDeps(ctx, cmd)
	if err != nil {
		return err
	}
	cfg, err := workflows.NewConfig(ctx, cmd, deps)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slack.TimpaniTaskQueue = cmd.String("temporal-task-queue-timpani")
	tq := cmd.String("temporal-task-queue-conduct")
	w := worker.New(c, tq, worker.Options{})

	workflows.RegisterWorkflows(w, cfg)
	w.RegisterWorkflowWithOptions(EventDispatcherWorkflow, workflow.RegisterOptions{Name: EventDispatcher})

	if err := createSchedules(ctx, cmd, c, tq, deps.Hackatime != nil); err != nil {
		return err
	}
	if err := startDispatcher(ctx, c, tq); err != nil {
		return err
	}

	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("failed to start Temporal worker: %w", err)
	}

	return nil
}

// initDeps initializes the stateful dependencies of all the workflows.
func initDeps(ctx context.Context, cmd *cli.Command) (workflows.Deps, error) {
	l := logger.FromContext(ctx)

	t, err := tracker.NewPersistent()
	if err != nil {
		return workflows.Deps{}, fmt.Errorf("failed to initialize moderation case tracker: %w", err)
	}
	l.Info("loaded moderation case tracker", slog.Int("open_cases", t.Len()))

	store, err := recordStore(ctx, cmd)
	if err != nil {
		return workflows.Deps{}, err
	}

	dedup, err := ledger.New(ctx, cmd.String("ledger-redis-url"), cmd.Duration("ledger-retention"))
	if err != nil {
		return workflows.Deps{}, fmt.Errorf("failed to initialize deduplication ledger: %w", err)
	}

	var ht *hackatime.Client
	if key := cmd.String("hackatime-api-key"); key != "" {
		ht = hackatime.NewClient(cmd.String("hackatime-api-url"), key, l)
	} else {
		l.Warn("Hackatime admin API key not configured, audit relay disabled")
	}

	return workflows.Deps{Tracker: t, Records: store, Ledger: dedup, Hackatime: ht}, nil
}

// recordStore returns an Airtable record store, or an in-memory
// store in development mode if Airtable is not configured.
func recordStore(ctx context.Context, cmd *cli.Command) (records.Store, error) {
	token, base := cmd.String("airtable-token"), cmd.String("airtable-base-id")
	if token == "" || base == "" {
		if cmd.Bool("dev") {
			logger.FromContext(ctx).Warn("Airtable not configured, using in-memory record store")
			return records.NewMemoryStore(), nil
		}
		return nil, errors.New("missing Airtable token or base ID")
	}

	store, err := records.NewAirtableStore(token, base, cmd.String("airtable-table"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Airtable record store: %w", err)
	}
	return store, nil
}

func createSchedules(ctx context.Context, cmd *cli.Command, c client.Client, taskQueue string, audit bool) error {
	hour, minute, err := config.ClockTime(cmd.String("expiry-digest-time"))
	if err != nil {
		return fmt.Errorf("invalid expiry digest time: %w", err)
	}

	s := workflows.ScheduleSettings{
		TaskQueue:          taskQueue,
		SweepInterval:      cmd.Duration("sweep-interval"),
		ExpiryDigestHour:   hour,
		ExpiryDigestMinute: minute,
		TimeZone:           config.Location(cmd.String("timezone")).String(),
	}
	if audit {
		s.AuditPollInterval = cmd.Duration("audit-poll-interval")
	}

	workflows.CreateSchedules(ctx, c, s)
	return nil
}

// startDispatcher starts the singleton event dispatcher workflow,
// unless it's already running (e.g. after a worker restart).
func startDispatcher(ctx context.Context, c client.Client, taskQueue string) error {
	opts := client.StartWorkflowOptions{
		ID:                       EventDispatcher,
		TaskQueue:                taskQueue,
		WorkflowIDConflictPolicy: enums.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}

	run, err := c.ExecuteWorkflow(ctx, opts, EventDispatcher)
	if err != nil {
		return fmt.Errorf("failed to start event dispatcher workflow: %w", err)
	}

	logger.FromContext(ctx).Info("event dispatcher workflow is running",
		slog.String("workflow_id", run.GetID()), slog.String("run_id", run.GetRunID()))
	return nil
}
