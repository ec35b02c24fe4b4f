// Package timpanitest provides a fake Timpani worker for workflow tests:
// it registers Slack API activities in a Temporal test environment,
// records every call, and serves canned responses.
package timpanitest

import (
	"context"
	"fmt"
	"sync"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/tzrikka/conduct/pkg/slack"
)

// Call is a single Slack API call, with its JSON request.
type Call struct {
	Method  string
	Request map[string]any
}

// Slack is a fake Slack API. The zero value is ready to use.
type Slack struct {
	// Permalink is returned by "chat.getPermalink".
	Permalink string
	// Reactions are returned by "reactions.get", for all messages.
	Reactions []string
	// Matches are returned by "search.messages", as a single page.
	Matches []slack.SearchMatch
	// SearchError, if set, fails all "search.messages" calls.
	SearchError string

	mu     sync.Mutex
	calls  []Call
	nextTS int
}

// Register adds all the fake Slack activities to a test environment.
// It can be called for multiple environments, which share the same calls.
func (s *Slack) Register(env *testsuite.TestWorkflowEnvironment) {
	ok := func(method string) func(context.Context, map[string]any) (map[string]any, error) {
		return func(_ context.Context, req map[string]any) (map[string]any, error) {
			s.record(method, req)
			return map[string]any{"ok": true}, nil
		}
	}

	register(env, "chat.postMessage", s.postMessage)
	register(env, "chat.update", s.update)
	register(env, "chat.getPermalink", s.permalink)
	register(env, "reactions.get", s.reactions)
	register(env, "search.messages", s.search)
	register(env, "users.info", s.usersInfo)

	for _, m := range []string{"chat.postEphemeral", "chat.delete", "reactions.add", "reactions.remove", "views.open"} {
		register(env, m, ok(m))
	}
}

func register(env *testsuite.TestWorkflowEnvironment, method string, f any) {
	env.RegisterActivityWithOptions(f, activity.RegisterOptions{Name: "slack." + method})
}

// Calls returns all the recorded calls of a specific API method, in order.
func (s *Slack) Calls(method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	var calls []Call
	for _, c := range s.calls {
		if c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

// AllCalls returns the number of recorded calls of all API methods.
func (s *Slack) AllCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *Slack) record(method string, req map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: method, Request: req})
}

func (s *Slack) postMessage(_ context.Context, req map[string]any) (map[string]any, error) {
	s.record("chat.postMessage", req)

	s.mu.Lock()
	s.nextTS++
	ts := fmt.Sprintf("1700000000.%06d", s.nextTS)
	s.mu.Unlock()

	return map[string]any{"ok": true, "channel": req["channel"], "ts": ts}, nil
}

func (s *Slack) update(_ context.Context, req map[string]any) (map[string]any, error) {
	s.record("chat.update", req)
	return map[string]any{"ok": true, "channel": req["channel"], "ts": req["ts"]}, nil
}

func (s *Slack) permalink(_ context.Context, req map[string]any) (map[string]any, error) {
	s.record("chat.getPermalink", req)
	return map[string]any{"ok": true, "channel": req["channel"], "permalink": s.Permalink}, nil
}

func (s *Slack) reactions(_ context.Context, req map[string]any) (map[string]any, error) {
	s.record("reactions.get", req)

	rs := make([]map[string]any, 0, len(s.Reactions))
	for _, name := range s.Reactions {
		rs = append(rs, map[string]any{"name": name, "count": 1})
	}
	msg := map[string]any{"ts": req["timestamp"], "reactions": rs}
	return map[string]any{"ok": true, "type": "message", "channel": req["channel"], "message": msg}, nil
}

func (s *Slack) search(_ context.Context, req map[string]any) (map[string]any, error) {
	s.record("search.messages", req)
	if s.SearchError != "" {
		return nil, temporal.NewNonRetryableApplicationError(s.SearchError, "SlackAPIError", nil)
	}

	paging := map[string]any{"count": len(s.Matches), "total": len(s.Matches), "page": 1, "pages": 1}
	msgs := map[string]any{"total": len(s.Matches), "matches": s.Matches, "paging": paging}
	return map[string]any{"ok": true, "query": req["query"], "messages": msgs}, nil
}

// usersInfo always fails, like it does for users who left Slack.
func (s *Slack) usersInfo(_ context.Context, req map[string]any) (map[string]any, error) {
	s.record("users.info", req)
	return nil, temporal.NewNonRetryableApplicationError("user_not_found", "SlackAPIError", nil)
}
