package runner

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCheck implements Check for testing.
type MockCheck struct {
	id     string
	result CheckResult
	called bool
}

func (m *MockCheck) ID() string {
	return m.id
}

func (m *MockCheck) Run(ctx context.Context) CheckResult {
	m.called = true
	return m.result
}

func pass(id string) *MockCheck {
	return &MockCheck{id: id, result: CheckResult{Check: id, Status: StatusPass}}
}

func fail(id string, errs ...string) *MockCheck {
	return &MockCheck{id: id, result: CheckResult{Check: id, Status: StatusFail, ExitCode: 1, Errors: errs}}
}

func TestRunner_RunAll(t *testing.T) {
	store := NewStateStore(t.TempDir())
	c1, c2 := pass("daily"), pass("weekly")

	var out bytes.Buffer
	r := NewRunner([]Check{c1, c2}, store, Options{Out: &out})

	require.NoError(t, r.RunAll(context.Background()))
	assert.True(t, c1.called)
	assert.True(t, c2.called)

	last, err := store.ReadLastRun()
	require.NoError(t, err)
	assert.Equal(t, "pass", last.Status)
	assert.Equal(t, []string{"daily", "weekly"}, last.Checks)
	assert.Empty(t, last.Failed)
	assert.NotEmpty(t, last.RunID)
	assert.Contains(t, out.String(), "PASS: weekly")
}

func TestRunner_RunAll_Failure(t *testing.T) {
	store := NewStateStore(t.TempDir())
	c1 := fail("daily", "Invalid file format: daily/x.csv")
	c2 := pass("weekly")

	var out bytes.Buffer
	r := NewRunner([]Check{c1, c2}, store, Options{Out: &out})

	err := r.RunAll(context.Background())
	require.ErrorIs(t, err, ErrRunFailed)
	assert.True(t, c2.called, "accumulating runs continue after a failure")
	assert.Contains(t, out.String(), "ERROR: Invalid file format: daily/x.csv")

	last, err := store.ReadLastRun()
	require.NoError(t, err)
	assert.Equal(t, "fail", last.Status)
	assert.Equal(t, []string{"daily"}, last.Failed)

	res, err := store.ReadCheck("daily")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StatusFail, res.Status)
}

func TestRunner_StopOnFailure(t *testing.T) {
	store := NewStateStore(t.TempDir())
	c1, c2, c3 := pass("daily"), fail("weekly", "boom"), pass("monthly")

	r := NewRunner([]Check{c1, c2, c3}, store, Options{Out: &bytes.Buffer{}, StopOnFailure: true})
	require.Error(t, r.RunAll(context.Background()))
	assert.False(t, c3.called)

	last := r.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, []string{"weekly"}, last.Failed)
	assert.Equal(t, []string{"monthly"}, last.Pending)
}

func TestRunner_Resume(t *testing.T) {
	store := NewStateStore(t.TempDir())
	require.NoError(t, store.WriteLastRun(LastRun{
		Status:  "fail",
		Checks:  []string{"daily", "weekly"},
		Failed:  []string{"weekly"},
		Pending: []string{"monthly"},
	}))

	c1, c2, c3 := pass("daily"), pass("weekly"), pass("monthly")
	r := NewRunner([]Check{c1, c2, c3}, store, Options{Out: &bytes.Buffer{}})

	require.NoError(t, r.Resume(context.Background()))
	assert.False(t, c1.called)
	assert.True(t, c2.called)
	assert.True(t, c3.called)

	last, err := store.ReadLastRun()
	require.NoError(t, err)
	assert.Equal(t, "pass", last.Status)
	assert.Equal(t, []string{"weekly", "monthly"}, last.Checks)
}

func TestRunner_ResumeNothing(t *testing.T) {
	store := NewStateStore(t.TempDir())
	var out bytes.Buffer
	r := NewRunner([]Check{pass("daily")}, store, Options{Out: &out})
	require.NoError(t, r.Resume(context.Background()))
	assert.Contains(t, out.String(), "No failed checks to resume")
}

func TestRunner_RunListUnknown(t *testing.T) {
	r := NewRunner(nil, NewStateStore(t.TempDir()), Options{Out: &bytes.Buffer{}})
	assert.EqualError(t, r.RunList(context.Background(), []string{"hourly"}), "check not found: hourly")
}

func TestRunLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "run.lock")
	first := NewRunLock(path)
	require.NoError(t, first.Acquire())

	second := NewRunLock(path)
	assert.ErrorIs(t, second.Acquire(), ErrLocked)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}
