package workflows

import (
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/internal/otel"
	"github.com/tzrikka/conduct/pkg/notify"
	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack"
	"github.com/tzrikka/conduct/pkg/slack/activities"
	"github.com/tzrikka/conduct/pkg/slack/forms"
	"github.com/tzrikka/conduct/pkg/tracker"
	"github.com/tzrikka/conduct/pkg/users"
)

// BlockActionsWorkflow routes button clicks in messages that
// Conduct posted to their respective handlers, based on action IDs:
// https://docs.slack.dev/reference/interaction-payloads/block_actions-payload
func (c *Config) BlockActionsWorkflow(ctx workflow.Context, event slack.InteractionEvent) error {
	var errs []error
	for _, a := range event.Actions {
		var err error
		switch a.ActionID {
		case notify.ActionOpenModal:
			err = c.openModal(ctx, event, a)
		case notify.ActionStillOngoing:
			err = c.stillOngoing(ctx, event, a)
		case notify.ActionResolved:
			err = c.resolvedWithoutReport(ctx, event, a)
		case notify.ActionExpiryLifted:
			err = c.expiryLifted(ctx, event)
		case notify.ActionHistoryPrev, notify.ActionHistoryNext, notify.ActionHistoryDismiss:
			err = c.Lookup.Navigate(ctx, event, a)
		default:
			logger.From(ctx).Debug("ignoring unrecognized Slack block action", slog.String("action_id", a.ActionID))
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// buttonCase identifies the case of a clicked button, and ensures
// that the case belongs to an allowed channel. If not, it returns false.
func (c *Config) buttonCase(ctx workflow.Context, event slack.InteractionEvent, a slack.Action) (tracker.Key, bool) {
	k, err := caseKey(event, a)
	if err != nil {
		logger.From(ctx).Error("failed to identify moderation case", slog.Any("error", err))
		notify.Ephemeral(ctx, event.ChannelID(), event.User.ID, notify.Error("failed to identify this thread."))
		return tracker.Key{}, false
	}
	if !c.allowed(k.Channel) {
		notify.Ephemeral(ctx, event.ChannelID(), event.User.ID, notify.Rejection())
		return tracker.Key{}, false
	}
	return k, true
}

// openModal opens the conduct report form, tagged with the
// channel, thread, and permalink of the flagged message.
func (c *Config) openModal(ctx workflow.Context, event slack.InteractionEvent, a slack.Action) error {
	k, ok := c.buttonCase(ctx, event, a)
	if !ok {
		return nil
	}

	permalink := activities.Permalink(ctx, k.Channel, k.ThreadTS)
	md, err := forms.NewMetadata(k.Channel, k.ThreadTS, permalink).Encode()
	if err != nil {
		logger.From(ctx).Error("failed to encode modal metadata", slog.Any("error", err), slog.String("case", k.String()))
		notify.Ephemeral(ctx, k.Channel, event.User.ID, notify.Error("failed to prepare the report form."))
		return err
	}

	if err := activities.OpenView(ctx, event.TriggerID, forms.Modal(md, event.User.ID)); err != nil {
		notify.Ephemeral(ctx, k.Channel, event.User.ID, notify.Error("failed to open the report form, please try again."))
		return err
	}
	return nil
}

// stillOngoing re-arms the escalation timer of a case, and marks its
// thread as waiting, so the sweep will escalate it if it's forgotten.
func (c *Config) stillOngoing(ctx workflow.Context, event slack.InteractionEvent, a slack.Action) error {
	k, ok := c.buttonCase(ctx, event, a)
	if !ok {
		return nil
	}

	found, err := c.Tracker.In(ctx).Touch(k)
	if err != nil {
		logger.From(ctx).Error("failed to touch moderation case", slog.Any("error", err), slog.String("case", k.String()))
		notify.Ephemeral(ctx, k.Channel, event.User.ID, notify.Error("failed to update this case."))
		return err
	}
	if !found {
		notify.Ephemeral(ctx, k.Channel, event.User.ID, notify.Message{Text: "This case isn't open anymore."})
		return nil
	}

	_ = activities.AddReaction(ctx, k.Channel, k.ThreadTS, stillOngoingReaction)
	msg := fmt.Sprintf(":hourglass_flowing_sand: Got it, I'll check back in %d hours.", int(tracker.EscalationInterval.Hours()))
	notify.Ephemeral(ctx, k.Channel, event.User.ID, notify.Message{Text: msg})
	return nil
}

// resolvedWithoutReport closes a case without a conduct report.
func (c *Config) resolvedWithoutReport(ctx workflow.Context, event slack.InteractionEvent, a slack.Action) error {
	k, ok := c.buttonCase(ctx, event, a)
	if !ok {
		return nil
	}

	cs, found := c.caseState(ctx, k)
	if err := c.Tracker.In(ctx).Delete(k); err != nil {
		logger.From(ctx).Error("failed to delete moderation case", slog.Any("error", err), slog.String("case", k.String()))
		notify.Ephemeral(ctx, k.Channel, event.User.ID, notify.Error("failed to close this case."))
		return err
	}

	logger.From(ctx).Info("moderation case resolved without a report", slog.String("case", k.String()),
		slog.String("user_id", event.User.ID))
	if found && cs.EscalationSent {
		_ = activities.RemoveReaction(ctx, k.Channel, k.ThreadTS, c.Marks.Urgent)
	}
	if ts := event.MessageTS(); ts != "" {
		notify.Update(ctx, event.ChannelID(), ts, notify.EscalationHandled(event.User.ID, "Resolved without a report"))
	}
	return nil
}

// caseState returns the current state of a case, for best-effort cleanups.
func (c *Config) caseState(ctx workflow.Context, k tracker.Key) (tracker.Case, bool) {
	cases, err := c.Tracker.In(ctx).Snapshot()
	if err != nil {
		return tracker.Case{}, false
	}
	for _, cs := range cases {
		if cs.Key == k {
			return cs, true
		}
	}
	return tracker.Case{}, false
}

// expiryLifted acknowledges the daily digest of expiring bans.
func (c *Config) expiryLifted(ctx workflow.Context, event slack.InteractionEvent) error {
	channelID := event.ChannelID()
	if channelID != c.Notify.ExpiryChannel && !c.allowed(channelID) {
		notify.Ephemeral(ctx, channelID, event.User.ID, notify.Rejection())
		return nil
	}

	original := ""
	if event.Message != nil {
		original = event.Message.Text
	}
	notify.Update(ctx, channelID, event.MessageTS(), notify.ExpiryAcknowledged(original, event.User.ID))
	return nil
}

// ViewSubmissionWorkflow handles conduct report form submissions: it validates the form, creates
// one record per reported user, closes the case, and posts a confirmation (and a ban notice):
// https://docs.slack.dev/reference/interaction-payloads/view-interactions-payload#view_submission
func (c *Config) ViewSubmissionWorkflow(ctx workflow.Context, event slack.InteractionEvent) error {
	if event.View == nil || event.View.CallbackID != forms.CallbackID {
		return nil
	}

	l := logger.From(ctx)
	sub, problems := forms.Parse(*event.View)
	if len(problems) > 0 {
		md, _ := forms.ParseMetadata(event.View.PrivateMetadata)
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			msgs = append(msgs, p.Message)
		}
		l.Warn("invalid conduct report submission", slog.String("user_id", event.User.ID), slog.Any("problems", msgs))
		notify.Ephemeral(ctx, md.Channel, event.User.ID, notify.Invalid(msgs))
		return nil
	}

	k := tracker.Key{Channel: sub.Metadata.Channel, ThreadTS: sub.Metadata.ThreadTS}
	if !c.allowed(k.Channel) {
		notify.Ephemeral(ctx, k.Channel, event.User.ID, notify.Rejection())
		return nil
	}

	reports := sub.Reports(workflow.Now(ctx), event.User.ID)
	for i := range reports {
		profile, err := users.Lookup(ctx, reports[i].Subject)
		if err != nil {
			continue // Users who left Slack can't be resolved, but they can still be reported.
		}
		reports[i].DisplayName = profile.DisplayName()
		reports[i].Contact = profile.Email
	}

	if err := c.Records.Create(ctx, reports); err != nil {
		l.Error("failed to create conduct reports", slog.Any("error", err), slog.String("case", k.String()))
		notify.Ephemeral(ctx, k.Channel, event.User.ID, notify.Error("failed to save your report, please submit it again."))
		return err
	}
	otel.ReportsFiled(ctx, len(reports), forms.ResolutionLabel(sub.Resolution))
	l.Info("conduct reports filed", slog.String("case", k.String()), slog.Any("subjects", reportsSubjects(reports)))

	c.closeFiledCase(ctx, k, event.User.ID)
	c.Notify.Confirmation(ctx, k.Channel, k.ThreadTS, reports)
	if forms.IsBan(sub.Resolution) {
		c.Notify.BanNotice(ctx, reports)
	}
	return nil
}

// closeFiledCase marks a case as filed, and then removes the urgent mark from its
// thread and annotates its escalation broadcast. All failures are only logged.
func (c *Config) closeFiledCase(ctx workflow.Context, k tracker.Key, userID string) {
	cs, found, err := c.Tracker.In(ctx).MarkFiled(k)
	if err != nil {
		logger.From(ctx).Error("failed to mark moderation case as filed", slog.Any("error", err), slog.String("case", k.String()))
		return
	}
	if !found || !cs.EscalationSent {
		return
	}

	_ = activities.RemoveReaction(ctx, k.Channel, k.ThreadTS, c.Marks.Urgent)
	if cs.EscalationTS != "" {
		notify.Update(ctx, k.Channel, cs.EscalationTS, notify.EscalationHandled(userID, "Report filed"))
	}
}

// reportsSubjects is used for logging.
func reportsSubjects(reports []records.Report) []string {
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.Subject)
	}
	return ids
}
