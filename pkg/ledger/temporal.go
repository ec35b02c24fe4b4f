package ledger

import (
	"context"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Local wraps a [Ledger] so workflows can access it through Temporal local activities.
type Local struct {
	Ledger Ledger
}

func (l Local) options(ctx workflow.Context) workflow.Context {
	return workflow.WithLocalActivityOptions(ctx, workflow.LocalActivityOptions{
		StartToCloseTimeout: 5 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
}

// Seen is the workflow version of [Ledger.Seen].
func (l Local) Seen(ctx workflow.Context, key string) (bool, error) {
	var seen bool
	err := workflow.ExecuteLocalActivity(l.options(ctx), l.seenActivity, key).Get(ctx, &seen)
	return seen, err
}

// Mark is the workflow version of [Ledger.Mark].
func (l Local) Mark(ctx workflow.Context, key string) error {
	return workflow.ExecuteLocalActivity(l.options(ctx), l.markActivity, key).Get(ctx, nil)
}

func (l Local) seenActivity(ctx context.Context, key string) (bool, error) {
	return l.Ledger.Seen(ctx, key)
}

func (l Local) markActivity(ctx context.Context, key string) error {
	return l.Ledger.Mark(ctx, key)
}
