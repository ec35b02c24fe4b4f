package hackatime

import (
	"context"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Local wraps a [Client] so workflows can use it through Temporal local activities.
type Local struct {
	Client *Client
}

// RedTrustLevelLogs is the workflow version of [Client.RedTrustLevelLogs].
func (l Local) RedTrustLevelLogs(ctx workflow.Context) ([]AuditLog, error) {
	ctx = workflow.WithLocalActivityOptions(ctx, workflow.LocalActivityOptions{
		StartToCloseTimeout: 2 * timeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	})

	var logs []AuditLog
	err := workflow.ExecuteLocalActivity(ctx, l.redTrustLevelLogsActivity).Get(ctx, &logs)
	return logs, err
}

func (l Local) redTrustLevelLogsActivity(ctx context.Context) ([]AuditLog, error) {
	return l.Client.RedTrustLevelLogs(ctx)
}
