package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path"
	"strings"
	"sync"
)

// NoChangeRequests never blocks a folder.
type NoChangeRequests struct{}

func (NoChangeRequests) Open(context.Context, string) (bool, error) { return false, nil }

// StaticChangeRequests blocks a configured set of folders.
type StaticChangeRequests struct {
	blocked map[string]bool
}

func NewStaticChangeRequests(folders []string) *StaticChangeRequests {
	s := &StaticChangeRequests{blocked: make(map[string]bool, len(folders))}
	for _, f := range folders {
		s.blocked[strings.Trim(f, "/")] = true
	}
	return s
}

func (s *StaticChangeRequests) Open(_ context.Context, folder string) (bool, error) {
	return s.blocked[strings.Trim(folder, "/")], nil
}

// CommandRunner runs an external command in dir and returns its stdout.
type CommandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

type pullRequest struct {
	Number int `json:"number"`
	Files  []struct {
		Path string `json:"path"`
	} `json:"files"`
}

// GHChangeRequests asks the GitHub CLI for open pull requests and blocks
// every folder one of them touches. The listing is fetched once.
type GHChangeRequests struct {
	repoRoot string
	run      CommandRunner

	once    sync.Once
	err     error
	touched map[string][]int
}

// NewGHChangeRequests queries open pull requests of the repository at repoRoot.
// A nil runner executes the gh binary.
func NewGHChangeRequests(repoRoot string, run CommandRunner) *GHChangeRequests {
	if run == nil {
		run = execRunner
	}
	return &GHChangeRequests{repoRoot: repoRoot, run: run}
}

func (g *GHChangeRequests) Open(ctx context.Context, folder string) (bool, error) {
	g.once.Do(func() { g.err = g.load(ctx) })
	if g.err != nil {
		return false, g.err
	}
	return len(g.touched[strings.Trim(folder, "/")]) > 0, nil
}

// PullRequests returns the numbers of the open pull requests touching folder.
func (g *GHChangeRequests) PullRequests(ctx context.Context, folder string) ([]int, error) {
	if _, err := g.Open(ctx, folder); err != nil {
		return nil, err
	}
	return g.touched[strings.Trim(folder, "/")], nil
}

func (g *GHChangeRequests) load(ctx context.Context) error {
	out, err := g.run(ctx, g.repoRoot, "gh", "pr", "list", "--state", "open", "--json", "number,files")
	if err != nil {
		return fmt.Errorf("gh pr list failed: %w", err)
	}
	var prs []pullRequest
	if err := json.Unmarshal(out, &prs); err != nil {
		return fmt.Errorf("decoding gh pr list output: %w", err)
	}

	g.touched = map[string][]int{}
	for _, pr := range prs {
		seen := map[string]bool{}
		for _, f := range pr.Files {
			for dir := path.Dir(f.Path); dir != "." && dir != "/"; dir = path.Dir(dir) {
				if seen[dir] {
					continue
				}
				seen[dir] = true
				g.touched[dir] = append(g.touched[dir], pr.Number)
			}
		}
	}
	return nil
}
