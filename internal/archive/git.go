// Package archive answers questions about the committed main line: which
// files a cadence folder already holds, and whether an open change request
// already touches it.
package archive

import (
	"context"
	"fmt"
	"os/exec"
	"path"
	"strings"
	"sync"
)

// DefaultRef is the main-line ref queried when none is configured.
const DefaultRef = "origin/main"

// GitArchive lists committed files by asking git about a ref.
type GitArchive struct {
	repoRoot string
	ref      string

	mu    sync.Mutex
	cache map[string][]string
}

// NewGitArchive creates an archive view of ref in the repository at repoRoot.
func NewGitArchive(repoRoot, ref string) *GitArchive {
	if ref == "" {
		ref = DefaultRef
	}
	return &GitArchive{
		repoRoot: repoRoot,
		ref:      ref,
		cache:    map[string][]string{},
	}
}

// Ref returns the queried ref.
func (g *GitArchive) Ref() string {
	return g.ref
}

// Committed returns the base names of the files directly inside folder at
// the archive ref, caching the result per folder for the instance lifetime.
// A folder that does not exist at the ref has no committed files.
func (g *GitArchive) Committed(ctx context.Context, folder string) ([]string, error) {
	folder = strings.Trim(path.Clean(folder), "/")

	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, ok := g.cache[folder]; ok {
		return cached, nil
	}

	// -z to avoid quoting of names with spaces
	cmd := exec.CommandContext(ctx, "git", "ls-tree", "-z", "--name-only", g.ref, "--", folder+"/")
	cmd.Dir = g.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git ls-tree %s %s failed: %w", g.ref, folder, err)
	}

	files := []string{}
	trimmed := strings.TrimSuffix(string(out), "\x00")
	if trimmed != "" {
		for _, p := range strings.Split(trimmed, "\x00") {
			files = append(files, path.Base(p))
		}
	}
	g.cache[folder] = files
	return files, nil
}
