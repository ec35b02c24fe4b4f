package records

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

// failingStore fails every call, and counts them.
type failingStore struct {
	mu    sync.Mutex
	calls map[string]int
}

var _ Store = (*failingStore)(nil)

func (s *failingStore) count(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[method]++
	return errors.New("request timed out")
}

func (s *failingStore) Create(_ context.Context, _ []Report) error {
	return s.count("create")
}

func (s *failingStore) BySubject(_ context.Context, _ string) ([]Report, error) {
	return nil, s.count("by_subject")
}

func (s *failingStore) DueExpirations(_ context.Context, _ string) ([]Report, error) {
	return nil, s.count("due_expirations")
}

func TestLocalCreateIsNotRetried(t *testing.T) {
	store := &failingStore{}
	l := Local{Store: store}

	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(func(ctx workflow.Context) error {
		return l.Create(ctx, []Report{{Subject: "U1"}, {Subject: "U2"}})
	}, workflow.RegisterOptions{Name: "create"})

	env.ExecuteWorkflow("create")
	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
	assert.Equal(t, 1, store.calls["create"])
}

func TestLocalQueriesAreRetried(t *testing.T) {
	store := &failingStore{}
	l := Local{Store: store}

	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(func(ctx workflow.Context) error {
		_, err := l.BySubject(ctx, "U1")
		return err
	}, workflow.RegisterOptions{Name: "by_subject"})

	env.ExecuteWorkflow("by_subject")
	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
	assert.Equal(t, queryAttempts, store.calls["by_subject"])
}
