package serial

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/funstockmarket/periodgate/internal/fsutil"
	"github.com/funstockmarket/periodgate/internal/period"
)

// ErrTrackerMissing is returned when a cadence has no tracker file.
var ErrTrackerMissing = errors.New("tracker file not found")

// TrackerStore reads and writes the per-cadence last-serial files
// (serial_<cadence>.txt, a single integer).
type TrackerStore struct {
	dir string
}

// NewTrackerStore creates a store rooted at dir.
func NewTrackerStore(dir string) *TrackerStore {
	return &TrackerStore{dir: dir}
}

// Path returns the tracker file path for c.
func (s *TrackerStore) Path(c period.Cadence) string {
	return filepath.Join(s.dir, "serial_"+c.String()+".txt")
}

// Read returns the last tracked serial. An empty file counts as 0. On any
// error the returned baseline is 0 so callers can keep validating.
func (s *TrackerStore) Read(c period.Cadence) (int, error) {
	path := s.Path(c)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", ErrTrackerMissing, path)
	}
	if err != nil {
		return 0, fmt.Errorf("opening tracker %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, fmt.Errorf("reading tracker %s: %w", path, err)
		}
		return 0, nil
	}
	line := strings.TrimSpace(sc.Text())
	if line == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("parsing tracker %s: %w", path, err)
	}
	return n, nil
}

// Write replaces the tracker value for c.
func (s *TrackerStore) Write(c period.Cadence, n int) error {
	return fsutil.WriteAtomic(s.Path(c), []byte(strconv.Itoa(n)+"\n"), 0o644)
}
