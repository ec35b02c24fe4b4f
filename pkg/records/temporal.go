package records

import (
	"context"
	"log/slog"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
)

const (
	activityTimeout = 30 * time.Second

	// Queries are retried, but row creation isn't: it is not idempotent,
	// so a retry after a partial or timed-out write would duplicate rows.
	queryAttempts  = 3
	createAttempts = 1
)

// Local wraps a [Store] so workflows can access it through Temporal local activities.
type Local struct {
	Store Store
}

func executeLocalActivity(ctx workflow.Context, name string, attempts int32, activity, result any, args ...any) error {
	ctx = workflow.WithLocalActivityOptions(ctx, workflow.LocalActivityOptions{
		StartToCloseTimeout: activityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: attempts,
		},
	})

	start := time.Now()
	err := workflow.ExecuteLocalActivity(ctx, activity, args...).Get(ctx, result)
	logger.From(ctx).Debug("executed local Temporal activity for record store access", slog.String("activity", name),
		slog.Duration("duration", time.Since(start)), slog.Any("error", err))

	return err
}

// Create is the workflow version of [Store.Create].
func (l Local) Create(ctx workflow.Context, reports []Report) error {
	return executeLocalActivity(ctx, "records.create", createAttempts, l.createActivity, nil, reports)
}

// BySubject is the workflow version of [Store.BySubject].
func (l Local) BySubject(ctx workflow.Context, userID string) ([]Report, error) {
	var reports []Report
	err := executeLocalActivity(ctx, "records.by_subject", queryAttempts, l.bySubjectActivity, &reports, userID)
	return reports, err
}

// DueExpirations is the workflow version of [Store.DueExpirations].
func (l Local) DueExpirations(ctx workflow.Context, date string) ([]Report, error) {
	var reports []Report
	err := executeLocalActivity(ctx, "records.due_expirations", queryAttempts, l.dueExpirationsActivity, &reports, date)
	return reports, err
}

func (l Local) createActivity(ctx context.Context, reports []Report) error {
	return l.Store.Create(ctx, reports)
}

func (l Local) bySubjectActivity(ctx context.Context, userID string) ([]Report, error) {
	return l.Store.BySubject(ctx, userID)
}

func (l Local) dueExpirationsActivity(ctx context.Context, date string) ([]Report, error) {
	return l.Store.DueExpirations(ctx, date)
}
