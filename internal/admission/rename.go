package admission

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDestinationExists is returned when a rename target is already present.
var ErrDestinationExists = errors.New("destination already exists")

// FSRenamer renames files on the local filesystem and never overwrites.
type FSRenamer struct{}

func (FSRenamer) Rename(dir, from, to string) error {
	src := filepath.Join(dir, from)
	dst := filepath.Join(dir, to)

	if _, err := os.Lstat(src); err != nil {
		return fmt.Errorf("source %s: %w", src, err)
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, ErrDestinationExists)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", dst, err)
	}
	return os.Rename(src, dst)
}
