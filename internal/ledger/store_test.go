package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndHistory(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	start := time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, Run{
		ID: "run-1", Mode: "gate", Policy: "fail-fast", Status: "pass",
		Today: start, StartedAt: start, FinishedAt: start.Add(time.Second),
		Admissions: []Admission{
			{Cadence: "daily", Folder: "daily", OriginalName: "2025 14_day Mar.csv", FinalName: "15 2025 14_day Mar.csv", Serial: 15, PeriodKey: "2025-3-14", Renamed: true},
		},
	}))
	require.NoError(t, s.Record(ctx, Run{
		ID: "run-2", Mode: "check", Policy: "accumulate", Status: "fail",
		Today: start, StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour),
		Admissions: []Admission{
			{Cadence: "daily", Folder: "daily", OriginalName: "16 2025 17_day Mar.csv", FinalName: "16 2025 17_day Mar.csv", Serial: 16, PeriodKey: "2025-3-17"},
		},
		Issues: []Issue{{Folder: "weekly", File: "x.csv", Kind: "parse", Message: "Invalid file format: weekly/x.csv"}},
	}))

	history, err := s.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "run-2", history[0].RunID)
	assert.False(t, history[0].Renamed)
	assert.Equal(t, "15 2025 14_day Mar.csv", history[1].FinalName)
	assert.True(t, history[1].Renamed)
	assert.True(t, history[1].StartedAt.Equal(start))

	limited, err := s.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	issues, err := s.Issues(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, []Issue{{Folder: "weekly", File: "x.csv", Kind: "parse", Message: "Invalid file format: weekly/x.csv"}}, issues)

	highest, err := s.HighestSerial(ctx, "daily")
	require.NoError(t, err)
	assert.Equal(t, 16, highest)

	highest, err = s.HighestSerial(ctx, "yearly")
	require.NoError(t, err)
	assert.Equal(t, 0, highest)
}

func TestStore_DuplicateRunRejected(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	run := Run{ID: "same", Mode: "gate", Policy: "fail-fast", Status: "pass"}
	require.NoError(t, s.Record(ctx, run))
	assert.Error(t, s.Record(ctx, run))
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Run{ID: "r", Mode: "gate", Policy: "fail-fast", Status: "pass"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.History(ctx, 0)
	require.NoError(t, err)
}
