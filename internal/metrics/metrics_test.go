package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Folder("daily", true, 3, 2, nil, 17)
	r.Folder("weekly", false, 0, 0, []string{"calendar", "calendar", "sequence"}, 0)
	start := time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC)
	r.Finish(start, start.Add(2*time.Second))

	path := filepath.Join(t.TempDir(), "textfile", "periodgate.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `periodgate_folders_total{cadence="daily",status="passed"} 1`)
	assert.Contains(t, text, `periodgate_files_admitted_total{cadence="daily"} 3`)
	assert.Contains(t, text, `periodgate_issues_total{cadence="weekly",kind="calendar"} 2`)
	assert.Contains(t, text, `periodgate_highest_serial{cadence="daily"} 17`)
	assert.NotContains(t, text, `periodgate_highest_serial{cadence="weekly"}`)
	assert.Contains(t, text, "periodgate_run_duration_seconds_count 1")
}

func TestRecorder_EmptyPath(t *testing.T) {
	assert.NoError(t, NewRecorder().WriteTextfile(""))
}

func TestRecorder_Gatherer(t *testing.T) {
	r := NewRecorder()
	r.Folder("monthly", true, 1, 1, nil, 4)

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] += m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, values["periodgate_renames_total"])
	assert.Equal(t, 4.0, values["periodgate_highest_serial"])
	assert.Equal(t, 1.0, values["periodgate_folders_total"])
}
