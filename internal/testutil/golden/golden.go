// Package golden compares test output with testdata/<name>.golden files kept
// beside the calling test. Run the tests with -update to rewrite them.
package golden

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var update = flag.Bool("update", false, "rewrite golden files with the current output")

// Assert compares got with the named golden file next to the calling test.
// Under -update the file is rewritten first.
func Assert(t *testing.T, name, got string) {
	t.Helper()
	_, caller, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatalf("golden: cannot locate calling test")
	}
	path, err := goldenPath(filepath.Dir(caller), name)
	if err != nil {
		t.Fatalf("golden: %v", err)
	}

	if *update {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("golden: mkdir testdata: %v", err)
		}
		if err := os.WriteFile(path, []byte(got), 0o600); err != nil {
			t.Fatalf("golden: write %s: %v", path, err)
		}
	}

	want, err := os.ReadFile(path) //nolint:gosec // testdata path controlled by test
	if err != nil {
		t.Fatalf("golden: read %s: %v (run with -update to create it)", path, err)
	}
	assert.Equal(t, string(want), got, "output differs from %s", filepath.Base(path))
}

func goldenPath(dir, name string) (string, error) {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid golden name %q", name)
	}
	return filepath.Join(dir, "testdata", name+".golden"), nil
}
