package changeset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funstockmarket/periodgate/internal/period"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"daily/15 2025 14_day Mar.csv", "daily/15 2025 14_day Mar.csv"},
		{"  weekly/holdings.csv  ", "weekly/holdings.csv"},
		{"daily/{2025 14_day Mar.csv => 15 2025 14_day Mar.csv}", "daily/15 2025 14_day Mar.csv"},
		{"data/{daily => weekly}/x.csv", "data/weekly/x.csv"},
		{"data/{old => }/x.csv", "data/x.csv"},
		{"daily/a.csv => monthly/a.csv", "monthly/a.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestReadList(t *testing.T) {
	in := "daily/a.csv\n\n  daily/{b.csv => c.csv}\nREADME.md\n"
	got, err := ReadList(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"daily/a.csv", "daily/c.csv", "README.md"}, got)
}

func TestReadListFile_Missing(t *testing.T) {
	_, err := ReadListFile(filepath.Join(t.TempDir(), "changed_files.txt"))
	assert.ErrorContains(t, err, "changed files list not found")
}

func TestGroup(t *testing.T) {
	paths := []string{
		"daily/2025 14_day Mar.csv",
		"daily/notes.txt",
		"./weekly/holdings.csv",
		"daily/archive/old.csv",
		"README.md",
		"data/monthly/4 2025 3_month Mar.csv",
	}
	folders := DefaultFolders()
	folders[period.Monthly] = "data/monthly/"

	set := Group(paths, folders)
	assert.Equal(t, []string{"2025 14_day Mar.csv"}, set.Names[period.Daily])
	assert.Equal(t, []string{"holdings.csv"}, set.Names[period.Weekly])
	assert.Equal(t, []string{"4 2025 3_month Mar.csv"}, set.Names[period.Monthly])
	require.Len(t, set.Rejected, 2)
	assert.Equal(t, "File 'daily/notes.txt' does not have .csv extension.", set.Rejected[0].Error())
	assert.Equal(t, "File 'daily/archive/old.csv' is nested below 'daily/'; files must sit directly in the folder.", set.Rejected[1].Error())
	assert.Equal(t, 1, set.Ignored)
	assert.False(t, set.Empty())

	assert.True(t, Group([]string{"docs/x.md"}, folders).Empty())
}

func TestFilterFiles(t *testing.T) {
	tests := []struct {
		name     string
		paths    []string
		opts     FilterOptions
		expected []string
	}{
		{
			name:     "exclude nested dir",
			paths:    []string{"tmp/a.csv", "daily/tmp/b.csv", "daily/c.csv"},
			opts:     FilterOptions{ExcludeDirs: []string{"tmp"}},
			expected: []string{"daily/c.csv"},
		},
		{
			name:     "segment matching only",
			paths:    []string{"tmp_stuff/a", "mytmp/b"},
			opts:     FilterOptions{ExcludeDirs: []string{"tmp"}},
			expected: []string{"mytmp/b", "tmp_stuff/a"},
		},
		{
			name:     "extension filter ignores case",
			paths:    []string{"a.CSV", "b.md", "c.csv"},
			opts:     FilterOptions{IncludeExtensions: []string{".csv"}},
			expected: []string{"a.CSV", "c.csv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FilterFiles(tt.paths, tt.opts))
		})
	}
}

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	names, err := ListDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, names)

	names, err = ListDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)
}
