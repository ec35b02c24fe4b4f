// Package tracker keeps track of open moderation threads: Slack threads where a
// moderator flagged a message, and a conduct report has not been filed yet.
//
// The [Tracker] is owned by the worker process and injected into workflows,
// which mutate it only through Temporal local activities (see [Local]).
package tracker

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tzrikka/xdg"

	"github.com/tzrikka/conduct/pkg/config"
)

const (
	// EscalationInterval is the minimum time between the most recent prompt or
	// escalation of an unfiled case, and the next escalation of the same case.
	EscalationInterval = 5 * time.Hour

	// Retention is the maximum age of a case, regardless of its state.
	Retention = 7 * 24 * time.Hour

	// SnapshotFile is the name of the JSON file under the XDG data directory
	// which mirrors the in-memory state of the tracker.
	SnapshotFile = "cases.json"

	filePerms = xdg.NewFilePermissions
)

// Key identifies a moderation case: a Slack channel ID and
// the timestamp of the thread's root message in that channel.
type Key struct {
	Channel  string `json:"channel"`
	ThreadTS string `json:"thread_ts"`
}

func (k Key) String() string {
	return k.Channel + "/" + k.ThreadTS
}

// Case is the state of a single open moderation thread.
type Case struct {
	Key

	Created    time.Time `json:"created"`
	PromptSent bool      `json:"prompt_sent,omitempty"`
	LastPrompt time.Time `json:"last_prompt,omitzero"`

	EscalationSent bool      `json:"escalation_sent,omitempty"`
	EscalationTS   string    `json:"escalation_ts,omitempty"`
	LastEscalation time.Time `json:"last_escalation,omitzero"`

	ReportFiled bool `json:"report_filed,omitempty"`
}

// lastActivity returns the most recent of the case's
// last escalation time, last prompt time, and creation time.
func (c Case) lastActivity() time.Time {
	t := c.Created
	if c.LastPrompt.After(t) {
		t = c.LastPrompt
	}
	if c.LastEscalation.After(t) {
		t = c.LastEscalation
	}
	return t
}

// Tracker is a concurrency-safe registry of open moderation cases. Each method
// holds the lock for its entire read-modify-write sequence. If a snapshot path is
// set, every mutation is also written to it, and it is loaded by [New].
type Tracker struct {
	mu    sync.Mutex
	cases map[Key]*Case
	path  string
}

// New initializes a [Tracker]. If path is not empty, it is used
// to load and store JSON snapshots of the tracker's state.
func New(path string) (*Tracker, error) {
	t := &Tracker{cases: map[Key]*Case{}, path: path}
	if path == "" {
		return t, nil
	}

	b, err := os.ReadFile(path) //gosec:disable G304 // Specified by admin by design.
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("failed to read tracker snapshot: %w", err)
	}

	// Special case: an empty file is a valid initial state.
	if len(b) == 0 {
		return t, nil
	}

	var cases []Case
	if err := json.Unmarshal(b, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse tracker snapshot: %w", err)
	}

	for _, c := range cases {
		t.cases[c.Key] = &c
	}

	return t, nil
}

// NewPersistent initializes a [Tracker] with a snapshot file
// in the application's XDG data directory.
func NewPersistent() (*Tracker, error) {
	path, err := xdg.CreateFile(xdg.DataHome, config.DirName, SnapshotFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker snapshot file: %w", err)
	}
	return New(path)
}

// RegisterOrTouch creates a new case if the key is not tracked yet, and returns it.
// Otherwise, it returns the existing case unchanged. The boolean result reports
// whether the case was created by this call.
func (t *Tracker) RegisterOrTouch(k Key, now time.Time) (Case, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.cases[k]; ok {
		return *c, false, nil
	}

	c := &Case{Key: k, Created: now}
	t.cases[k] = c
	return *c, true, t.save()
}

// MarkPrompted records that a report prompt was sent to the case's thread.
func (t *Tracker) MarkPrompted(k Key, now time.Time) (bool, error) {
	return t.update(k, func(c *Case) {
		c.PromptSent = true
		c.LastPrompt = now
	})
}

// Touch re-arms the escalation timer of a case, without marking a new prompt.
func (t *Tracker) Touch(k Key, now time.Time) (bool, error) {
	return t.update(k, func(c *Case) {
		c.LastPrompt = now
	})
}

// MarkFiled makes a case inert for escalation purposes. The case is deleted in
// the next sweep. It returns a copy of the updated case, so the caller can clean
// up the case's escalation artifacts (if any).
func (t *Tracker) MarkFiled(k Key) (Case, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.cases[k]
	if !ok {
		return Case{}, false, nil
	}

	c.ReportFiled = true
	return *c, true, t.save()
}

// RecordEscalation stores the timestamp of an escalation message in a case.
func (t *Tracker) RecordEscalation(k Key, ts string, now time.Time) error {
	_, err := t.update(k, func(c *Case) {
		c.EscalationSent = true
		c.EscalationTS = ts
		c.LastEscalation = now
	})
	return err
}

// Delete stops tracking a case. This is a no-op if the key is not tracked.
func (t *Tracker) Delete(k Key) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.cases[k]; !ok {
		return nil
	}

	delete(t.cases, k)
	return t.save()
}

// Resolve finds a case by its thread key, or by the timestamp of its escalation
// message in the same channel, and deletes it. It returns the deleted case, or
// false if no case matched.
func (t *Tracker) Resolve(channel, ts string) (Case, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.cases[Key{Channel: channel, ThreadTS: ts}]
	if !ok {
		for _, e := range t.cases {
			if e.Channel == channel && e.EscalationTS != "" && e.EscalationTS == ts {
				c, ok = e, true
				break
			}
		}
	}
	if !ok {
		return Case{}, false, nil
	}

	delete(t.cases, c.Key)
	return *c, true, t.save()
}

// Expire deletes all the cases which are older than [Retention].
func (t *Tracker) Expire(now time.Time) ([]Key, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var keys []Key
	for k, c := range t.cases {
		if now.Sub(c.Created) > Retention {
			keys = append(keys, k)
			delete(t.cases, k)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	sortKeys(keys)
	return keys, t.save()
}

// Get returns a copy of a single case.
func (t *Tracker) Get(k Key) (Case, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.cases[k]
	if !ok {
		return Case{}, false
	}
	return *c, true
}

// Snapshot returns copies of all the tracked cases, oldest first.
func (t *Tracker) Snapshot() []Case {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshot()
}

// Len returns the number of tracked cases.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.cases)
}

func (t *Tracker) update(k Key, f func(*Case)) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.cases[k]
	if !ok {
		return false, nil
	}

	f(c)
	return true, t.save()
}

func (t *Tracker) snapshot() []Case {
	cases := make([]Case, 0, len(t.cases))
	for _, c := range t.cases {
		cases = append(cases, *c)
	}

	slices.SortFunc(cases, func(a, b Case) int {
		if n := a.Created.Compare(b.Created); n != 0 {
			return n
		}
		return compareKeys(a.Key, b.Key)
	})

	return cases
}

// save expects the caller to hold the tracker's mutex. The in-memory
// state remains authoritative even if the snapshot can't be written.
func (t *Tracker) save() error {
	if t.path == "" {
		return nil
	}

	b, err := json.MarshalIndent(t.snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracker snapshot: %w", err)
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, b, filePerms); err != nil {
		slog.Warn("failed to write tracker snapshot", slog.Any("error", err), slog.String("path", tmp))
		return fmt.Errorf("failed to write tracker snapshot: %w", err)
	}

	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("failed to replace tracker snapshot: %w", err)
	}

	return nil
}

func compareKeys(a, b Key) int {
	return cmp.Or(strings.Compare(a.Channel, b.Channel), strings.Compare(a.ThreadTS, b.ThreadTS))
}

func sortKeys(keys []Key) {
	slices.SortFunc(keys, compareKeys)
}
