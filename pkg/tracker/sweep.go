package tracker

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Registry is the subset of [Tracker] mutations that [Sweep] needs. Workflows
// implement it with local activities (see [Local]), tests use a [Tracker] directly.
type Registry interface {
	Delete(k Key) error
	RecordEscalation(k Key, ts string, now time.Time) error
	Expire(now time.Time) ([]Key, error)
}

// Thread provides access to the Slack thread of a case.
type Thread interface {
	// Reactions returns the names of the reactions on the thread's root message.
	Reactions(c Case) ([]string, error)
	// Escalate posts an escalation message, and returns its timestamp.
	Escalate(c Case) (string, error)
	// AddReaction adds a reaction to the thread's root message.
	AddReaction(c Case, name string) error
}

// Marks defines which reactions on a thread's root message affect its case.
// Resolve and Waiting are glob patterns (e.g. "hourglass*" or "{x,check}").
type Marks struct {
	Resolve string
	Waiting string
	Urgent  string
}

// Resolves reports whether a reaction resolves or cancels a case.
func (m Marks) Resolves(reaction string) bool {
	return match(m.Resolve, reaction)
}

// Waits reports whether a reaction means that a case still requires a report.
func (m Marks) Waits(reaction string) bool {
	return match(m.Waiting, reaction)
}

// Validate checks that the reaction patterns are well-formed.
func (m Marks) Validate() error {
	var err error
	for _, p := range []string{m.Resolve, m.Waiting} {
		if !doublestar.ValidatePattern(p) {
			err = errors.Join(err, fmt.Errorf("invalid reaction pattern: %q", p))
		}
	}
	if m.Urgent == "" {
		err = errors.Join(err, errors.New("missing urgent reaction name"))
	}
	return err
}

func match(pattern, reaction string) bool {
	if pattern == "" {
		return false
	}
	ok, err := doublestar.Match(pattern, reaction)
	return err == nil && ok
}

// Result summarizes the actions taken by a single [Sweep].
type Result struct {
	Deleted   []Key // Filed, resolved, or cancelled cases.
	Escalated []Key
	Expired   []Key
	Skipped   []Key
	Err       error
}

// Sweep evaluates a snapshot of open cases at a point in time:
//   - Cases with a filed report are deleted
//   - Cases whose root message has a resolving reaction are deleted
//   - Cases whose root message has a waiting reaction, and have not been prompted
//     or escalated during the last [EscalationInterval], are escalated
//
// A failure in one case skips it until the next sweep. After all the cases are
// evaluated, cases older than [Retention] are deleted regardless of their state.
func Sweep(now time.Time, cases []Case, r Registry, t Thread, m Marks) Result {
	var res Result
	for _, c := range cases {
		if c.ReportFiled {
			if err := r.Delete(c.Key); err != nil {
				res.skip(c.Key, fmt.Errorf("failed to delete filed case %s: %w", c.Key, err))
				continue
			}
			res.Deleted = append(res.Deleted, c.Key)
			continue
		}

		reactions, err := t.Reactions(c)
		if err != nil {
			res.skip(c.Key, fmt.Errorf("failed to read reactions in %s: %w", c.Key, err))
			continue
		}

		if slices.ContainsFunc(reactions, m.Resolves) {
			if err := r.Delete(c.Key); err != nil {
				res.skip(c.Key, fmt.Errorf("failed to delete resolved case %s: %w", c.Key, err))
				continue
			}
			res.Deleted = append(res.Deleted, c.Key)
			continue
		}

		if !slices.ContainsFunc(reactions, m.Waits) || now.Sub(c.lastActivity()) < EscalationInterval {
			continue
		}

		ts, err := t.Escalate(c)
		if err != nil {
			res.skip(c.Key, fmt.Errorf("failed to escalate %s: %w", c.Key, err))
			continue
		}
		if err := r.RecordEscalation(c.Key, ts, now); err != nil {
			res.Err = errors.Join(res.Err, fmt.Errorf("failed to record escalation of %s: %w", c.Key, err))
		}
		res.Escalated = append(res.Escalated, c.Key)

		if !slices.Contains(reactions, m.Urgent) {
			if err := t.AddReaction(c, m.Urgent); err != nil {
				res.Err = errors.Join(res.Err, fmt.Errorf("failed to mark %s as urgent: %w", c.Key, err))
			}
		}
	}

	expired, err := r.Expire(now)
	if err != nil {
		res.Err = errors.Join(res.Err, fmt.Errorf("failed to expire old cases: %w", err))
	}
	res.Expired = expired

	return res
}

func (r *Result) skip(k Key, err error) {
	r.Skipped = append(r.Skipped, k)
	r.Err = errors.Join(r.Err, err)
}
