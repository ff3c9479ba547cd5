package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/funstockmarket/periodgate/internal/fsutil"
)

// StateStore handles reading and writing runner state.
type StateStore struct {
	baseDir string
}

// NewStateStore creates a store at the given base directory (e.g. .periodgate/run).
func NewStateStore(baseDir string) *StateStore {
	return &StateStore{baseDir: baseDir}
}

func (s *StateStore) lastRunPath() string {
	return filepath.Join(s.baseDir, "last-run.json")
}

// ReadLastRun loads the last execution summary.
func (s *StateStore) ReadLastRun() (*LastRun, error) {
	path := s.lastRunPath()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil // Not found is clean state
	}
	if err != nil {
		return nil, fmt.Errorf("opening last run file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var last LastRun
	if err := json.NewDecoder(f).Decode(&last); err != nil {
		return nil, fmt.Errorf("decoding last run: %w", err)
	}
	return &last, nil
}

func (s *StateStore) checkPath(id string) string {
	return filepath.Join(s.baseDir, "checks", id+".json")
}

// ReadCheck loads the stored result of one check, nil if it never ran.
func (s *StateStore) ReadCheck(id string) (*CheckResult, error) {
	path := s.checkPath(id)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening result of %s: %w", id, err)
	}
	defer func() { _ = f.Close() }()

	var res CheckResult
	if err := json.NewDecoder(f).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding result of %s: %w", id, err)
	}
	return &res, nil
}

// WriteLastRun saves the execution summary.
func (s *StateStore) WriteLastRun(last LastRun) error {
	return writeJSON(s.lastRunPath(), last)
}

// WriteCheckResult saves a check's result.
func (s *StateStore) WriteCheckResult(res CheckResult) error {
	return writeJSON(s.checkPath(res.Check), res)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return fsutil.WriteAtomic(path, append(data, '\n'), 0o644)
}

// Reset clears the state directory.
func (s *StateStore) Reset() error {
	return os.RemoveAll(s.baseDir)
}
