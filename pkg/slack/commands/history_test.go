package commands

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/internal/timpanitest"
	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack"
)

func runPrevReports(t *testing.T, l Lookup, fake *timpanitest.Slack, event slack.SlashCommandEvent) error {
	t.Helper()

	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	fake.Register(env)
	env.RegisterWorkflowWithOptions(l.PrevReports, workflow.RegisterOptions{Name: "prevreports"})

	env.ExecuteWorkflow("prevreports", event)
	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	return env.GetWorkflowError()
}

func testLookup(t *testing.T) Lookup {
	t.Helper()

	store := records.NewMemoryStore()
	r := records.Report{
		Time:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Subject:    "U0BAD",
		Violation:  "spam",
		Resolution: "Warning",
	}
	if err := store.Create(t.Context(), []records.Report{r}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	return Lookup{Records: records.Local{Store: store}, AllowedChannels: []string{"C1"}}
}

func requestJSON(t *testing.T, c timpanitest.Call) string {
	t.Helper()
	b, err := json.Marshal(c.Request)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return string(b)
}

func TestPrevReportsPartialResults(t *testing.T) {
	fake := &timpanitest.Slack{SearchError: "ratelimited"}
	event := slack.SlashCommandEvent{Command: "/prevreports", Text: "<@U0BAD|bad>", ChannelID: "C1", UserID: "U0MOD"}

	if err := runPrevReports(t, testLookup(t), fake, event); err != nil {
		t.Fatalf("PrevReports() error = %v", err)
	}

	posts := fake.Calls("chat.postMessage")
	if len(posts) != 1 {
		t.Fatalf("chat.postMessage calls = %d, want 1", len(posts))
	}
	got := requestJSON(t, posts[0])
	if !strings.Contains(got, "spam") {
		t.Errorf("history page is missing the Airtable report: %s", got)
	}
	if !strings.Contains(got, "Slack search are unavailable") {
		t.Errorf("history page is missing the unavailable source note: %s", got)
	}
	if n := len(fake.Calls("chat.postEphemeral")); n != 0 {
		t.Errorf("chat.postEphemeral calls = %d, want 0", n)
	}
}

func TestPrevReportsAllSourcesFailed(t *testing.T) {
	fake := &timpanitest.Slack{SearchError: "ratelimited"}
	event := slack.SlashCommandEvent{Command: "/prevreports", Text: "U0BAD slack", ChannelID: "C1", UserID: "U0MOD"}

	if err := runPrevReports(t, testLookup(t), fake, event); err == nil {
		t.Error("PrevReports() error = nil, want lookup error")
	}

	if n := len(fake.Calls("chat.postMessage")); n != 0 {
		t.Errorf("chat.postMessage calls = %d, want 0", n)
	}
	eph := fake.Calls("chat.postEphemeral")
	if len(eph) != 1 || !strings.Contains(requestJSON(t, eph[0]), "failed to look up") {
		t.Errorf("chat.postEphemeral calls = %v, want a single lookup error", eph)
	}
}

func TestPrevReportsNotAllowedChannel(t *testing.T) {
	fake := &timpanitest.Slack{}
	event := slack.SlashCommandEvent{Command: "/prevreports", Text: "U0BAD", ChannelID: "C9", UserID: "U0MOD"}

	if err := runPrevReports(t, testLookup(t), fake, event); err != nil {
		t.Fatalf("PrevReports() error = %v", err)
	}

	if n := fake.AllCalls(); n != 1 {
		t.Errorf("Slack API calls = %d, want only a rejection", n)
	}
	if n := len(fake.Calls("chat.postEphemeral")); n != 1 {
		t.Errorf("chat.postEphemeral calls = %d, want 1", n)
	}
	if n := len(fake.Calls("search.messages")); n != 0 {
		t.Errorf("search.messages calls = %d, want 0", n)
	}
}
