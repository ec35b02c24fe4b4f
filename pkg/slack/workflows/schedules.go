package workflows

import (
	"errors"
	"log/slog"
	"slices"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/internal/otel"
	"github.com/tzrikka/conduct/pkg/ledger"
	"github.com/tzrikka/conduct/pkg/notify"
	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack/activities"
	"github.com/tzrikka/conduct/pkg/tracker"
)

// relaySpacing is the delay between consecutive audit-log relay messages.
const relaySpacing = 1500 * time.Millisecond

// relayWindow is the maximum age of audit logs that the relay announces.
// It is shorter than the ledger's retention, so a log is never announced
// again after its ledger entry expires, even with some clock skew.
func relayWindow(retention time.Duration) time.Duration {
	return retention / 2
}

// SweepWorkflow runs periodically: it escalates forgotten moderation threads, and deletes
// closed and expired cases. Per-case failures are logged, and retried in the next run.
func (c *Config) SweepWorkflow(ctx workflow.Context) error {
	t := c.Tracker.In(ctx)
	cases, err := t.Snapshot()
	if err != nil {
		logger.From(ctx).Error("failed to read moderation cases", slog.Any("error", err))
		return err
	}

	now := workflow.Now(ctx)
	res := tracker.Sweep(now, cases, t, sweepThread{ctx: ctx, notify: c.Notify, now: now}, c.Marks)

	l := logger.From(ctx)
	if len(res.Deleted)+len(res.Escalated)+len(res.Expired)+len(res.Skipped) > 0 {
		l.Info("swept moderation cases", slog.Int("cases", len(cases)), slog.Int("deleted", len(res.Deleted)),
			slog.Int("escalated", len(res.Escalated)), slog.Int("expired", len(res.Expired)), slog.Int("skipped", len(res.Skipped)))
	}
	if res.Err != nil {
		l.Warn("moderation case sweep errors", slog.Any("error", res.Err))
	}
	return nil
}

// sweepThread implements [tracker.Thread] with Slack activities.
type sweepThread struct {
	ctx    workflow.Context
	notify notify.Dispatcher
	now    time.Time
}

func (s sweepThread) Reactions(c tracker.Case) ([]string, error) {
	return activities.Reactions(s.ctx, c.Channel, c.ThreadTS)
}

func (s sweepThread) Escalate(c tracker.Case) (string, error) {
	m := notify.Escalation(c.Key.String(), c.Created, s.now)
	ts, err := s.notify.Escalation(s.ctx, c.Channel, c.ThreadTS, m)
	if err != nil {
		return "", err
	}

	otel.CaseEscalated(s.ctx, c.Channel)
	return ts, nil
}

func (s sweepThread) AddReaction(c tracker.Case, name string) error {
	return activities.AddReaction(s.ctx, c.Channel, c.ThreadTS, name)
}

// ExpiryDigestWorkflow runs daily: it lists all the bans that expire today
// (in the configured timezone), and asks moderators to lift them.
func (c *Config) ExpiryDigestWorkflow(ctx workflow.Context) error {
	if c.Notify.ExpiryChannel == "" {
		logger.From(ctx).Warn("no expiry channel, skipping ban expiry digest")
		return nil
	}

	date := workflow.Now(ctx).In(c.Location).Format(records.DateLayout)
	reports, err := c.Records.DueExpirations(ctx, date)
	if err != nil {
		logger.From(ctx).Error("failed to query expiring bans", slog.Any("error", err), slog.String("date", date))
		return err
	}

	c.Notify.ExpiryDigest(ctx, date, reports)
	return nil
}

// AuditRelayWorkflow runs periodically: it announces new Hackatime bans,
// oldest first, and skips the ones that were already announced, or are
// too old to be tracked by the deduplication ledger.
func (c *Config) AuditRelayWorkflow(ctx workflow.Context) error {
	l := logger.From(ctx)
	if c.Hackatime == nil || c.Notify.AuditChannel == "" {
		l.Debug("Hackatime audit relay is disabled")
		return nil
	}

	logs, err := c.Hackatime.RedTrustLevelLogs(ctx)
	if err != nil {
		l.Error("failed to query Hackatime audit logs", slog.Any("error", err))
		return err
	}
	slices.Reverse(logs)

	now, window := workflow.Now(ctx), relayWindow(c.LedgerRetention)

	var errs []error
	relayed := 0
	for _, a := range logs {
		if a.Stale(now, window) {
			continue // Its ledger entry may have expired already.
		}

		key := ledger.Key(a.ID)
		seen, err := c.Ledger.Seen(ctx, key)
		if err != nil {
			// Don't risk duplicate announcements, try again in the next run.
			errs = append(errs, err)
			continue
		}
		if seen {
			continue
		}

		if relayed > 0 {
			if err := workflow.Sleep(ctx, relaySpacing); err != nil {
				return err
			}
		}

		if err := c.Notify.AuditLog(ctx, a); err != nil {
			errs = append(errs, err)
			continue
		}
		relayed++
		otel.AuditEventRelayed(ctx)

		if err := c.Ledger.Mark(ctx, key); err != nil {
			l.Error("failed to record relayed audit log", slog.Any("error", err), slog.String("key", key))
			errs = append(errs, err)
		}
	}

	if relayed > 0 {
		l.Info("relayed Hackatime audit logs", slog.Int("count", relayed))
	}
	if err := errors.Join(errs...); err != nil {
		l.Warn("Hackatime audit relay errors", slog.Any("error", err))
	}
	return nil
}
