package changeset

import (
	"sort"
	"strings"
)

// FilterOptions defines criteria for including or excluding files.
type FilterOptions struct {
	// ExcludeDirs is a list of directory names to exclude.
	// Matching is segment-aware: "tmp" excludes "tmp/foo" and "daily/tmp/bar",
	// but not "tmp_stuff/foo".
	ExcludeDirs []string

	// IncludeExtensions is a list of extensions to include (e.g., ".csv"),
	// matched case-insensitively. If empty, all extensions are included.
	IncludeExtensions []string
}

// CSVOnly keeps CSV files outside hidden tool directories.
func CSVOnly() FilterOptions {
	return FilterOptions{
		ExcludeDirs:       []string{".git", ".periodgate"},
		IncludeExtensions: []string{".csv"},
	}
}

// FilterFiles applies the filter options to a list of file paths.
// It returns a new slice of strings, sorted deterministically.
func FilterFiles(paths []string, opts FilterOptions) []string {
	if len(paths) == 0 {
		return nil
	}

	var filtered []string
	for _, path := range paths {
		if shouldExclude(path, opts.ExcludeDirs) {
			continue
		}
		if !HasExtension(path, opts.IncludeExtensions...) {
			continue
		}
		filtered = append(filtered, path)
	}

	sort.Strings(filtered)
	return filtered
}

// shouldExclude returns true if the path contains any of the excluded segments.
func shouldExclude(path string, excludes []string) bool {
	if len(excludes) == 0 {
		return false
	}
	for _, part := range strings.Split(path, "/") {
		for _, exclude := range excludes {
			if part == exclude {
				return true
			}
		}
	}
	return false
}

// HasExtension reports whether path ends in one of extensions, ignoring
// case. An empty list matches everything.
func HasExtension(path string, extensions ...string) bool {
	if len(extensions) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
