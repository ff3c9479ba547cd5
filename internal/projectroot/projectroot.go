// Package projectroot locates the archive checkout a command runs against.
package projectroot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no marker exists in the start directory or
// any of its parents.
var ErrNotFound = errors.New("project root not found")

// GitMarker identifies a git checkout.
const GitMarker = ".git"

// Find walks up from start and returns the first directory holding one of
// markers. Markers are checked in order within each directory.
func Find(start string, markers ...string) (string, error) {
	if len(markers) == 0 {
		markers = []string{GitMarker}
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w from %s (looked for %v)", ErrNotFound, start, markers)
		}
		dir = parent
	}
}
