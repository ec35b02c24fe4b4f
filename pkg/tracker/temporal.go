package tracker

import (
	"context"
	"log/slog"
	"reflect"
	"runtime"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
)

const (
	activityTimeout  = 3 * time.Second
	activityAttempts = 3
)

// Local is a workflow-scoped view of a [Tracker]: every call is executed
// as a Temporal local activity, so it is recorded in the workflow's history
// and never re-applied to the tracker when the workflow is replayed.
type Local struct {
	ctx workflow.Context
	t   *Tracker
}

type caseResult struct {
	Case Case
	OK   bool
}

// In returns a [Local] view of the tracker for the given workflow.
func (t *Tracker) In(ctx workflow.Context) Local {
	return Local{ctx: ctx, t: t}
}

func executeLocalActivity(ctx workflow.Context, activity, result any, args ...any) error {
	f := runtime.FuncForPC(reflect.ValueOf(activity).Pointer())
	ctx = workflow.WithLocalActivityOptions(ctx, workflow.LocalActivityOptions{
		StartToCloseTimeout: activityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			BackoffCoefficient: 1.0,
			MaximumAttempts:    activityAttempts,
		},
	})

	start := time.Now()
	err := workflow.ExecuteLocalActivity(ctx, activity, args...).Get(ctx, result)
	logger.From(ctx).Debug("executed local Temporal activity for case tracking", slog.String("activity", f.Name()),
		slog.Duration("duration", time.Since(start)), slog.Any("error", err))

	return err
}

// RegisterOrTouch is the workflow version of [Tracker.RegisterOrTouch].
func (l Local) RegisterOrTouch(k Key) (Case, bool, error) {
	var res caseResult
	err := executeLocalActivity(l.ctx, l.t.registerActivity, &res, k, workflow.Now(l.ctx))
	return res.Case, res.OK, err
}

// MarkPrompted is the workflow version of [Tracker.MarkPrompted].
func (l Local) MarkPrompted(k Key) (bool, error) {
	var ok bool
	err := executeLocalActivity(l.ctx, l.t.markPromptedActivity, &ok, k, workflow.Now(l.ctx))
	return ok, err
}

// Touch is the workflow version of [Tracker.Touch].
func (l Local) Touch(k Key) (bool, error) {
	var ok bool
	err := executeLocalActivity(l.ctx, l.t.touchActivity, &ok, k, workflow.Now(l.ctx))
	return ok, err
}

// MarkFiled is the workflow version of [Tracker.MarkFiled].
func (l Local) MarkFiled(k Key) (Case, bool, error) {
	var res caseResult
	err := executeLocalActivity(l.ctx, l.t.markFiledActivity, &res, k)
	return res.Case, res.OK, err
}

// Resolve is the workflow version of [Tracker.Resolve].
func (l Local) Resolve(channel, ts string) (Case, bool, error) {
	var res caseResult
	err := executeLocalActivity(l.ctx, l.t.resolveActivity, &res, channel, ts)
	return res.Case, res.OK, err
}

// Snapshot is the workflow version of [Tracker.Snapshot].
func (l Local) Snapshot() ([]Case, error) {
	var cases []Case
	err := executeLocalActivity(l.ctx, l.t.snapshotActivity, &cases)
	return cases, err
}

// Delete is the workflow version of [Tracker.Delete].
func (l Local) Delete(k Key) error {
	return executeLocalActivity(l.ctx, l.t.deleteActivity, nil, k)
}

// RecordEscalation is the workflow version of [Tracker.RecordEscalation].
func (l Local) RecordEscalation(k Key, ts string, now time.Time) error {
	return executeLocalActivity(l.ctx, l.t.recordEscalationActivity, nil, k, ts, now)
}

// Expire is the workflow version of [Tracker.Expire].
func (l Local) Expire(now time.Time) ([]Key, error) {
	var keys []Key
	err := executeLocalActivity(l.ctx, l.t.expireActivity, &keys, now)
	return keys, err
}

// The activities below don't fail when the snapshot file can't be written:
// the in-memory state is authoritative, so retrying would only repeat the write.

func (t *Tracker) registerActivity(ctx context.Context, k Key, now time.Time) (caseResult, error) {
	c, created, err := t.RegisterOrTouch(k, now)
	logSnapshotError(ctx, err)
	return caseResult{Case: c, OK: created}, nil
}

func (t *Tracker) markPromptedActivity(ctx context.Context, k Key, now time.Time) (bool, error) {
	ok, err := t.MarkPrompted(k, now)
	logSnapshotError(ctx, err)
	return ok, nil
}

func (t *Tracker) touchActivity(ctx context.Context, k Key, now time.Time) (bool, error) {
	ok, err := t.Touch(k, now)
	logSnapshotError(ctx, err)
	return ok, nil
}

func (t *Tracker) markFiledActivity(ctx context.Context, k Key) (caseResult, error) {
	c, ok, err := t.MarkFiled(k)
	logSnapshotError(ctx, err)
	return caseResult{Case: c, OK: ok}, nil
}

func (t *Tracker) resolveActivity(ctx context.Context, channel, ts string) (caseResult, error) {
	c, ok, err := t.Resolve(channel, ts)
	logSnapshotError(ctx, err)
	return caseResult{Case: c, OK: ok}, nil
}

func (t *Tracker) snapshotActivity(_ context.Context) ([]Case, error) {
	return t.Snapshot(), nil
}

func (t *Tracker) deleteActivity(ctx context.Context, k Key) error {
	logSnapshotError(ctx, t.Delete(k))
	return nil
}

func (t *Tracker) recordEscalationActivity(ctx context.Context, k Key, ts string, now time.Time) error {
	logSnapshotError(ctx, t.RecordEscalation(k, ts, now))
	return nil
}

func (t *Tracker) expireActivity(ctx context.Context, now time.Time) ([]Key, error) {
	keys, err := t.Expire(now)
	logSnapshotError(ctx, err)
	return keys, nil
}

func logSnapshotError(ctx context.Context, err error) {
	if err != nil {
		activity.GetLogger(ctx).Warn("failed to persist tracker snapshot", slog.Any("error", err))
	}
}
