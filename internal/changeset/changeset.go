// Package changeset turns a list of changed paths, or the contents of the
// cadence folders on disk, into per-cadence batches of candidate names.
package changeset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/funstockmarket/periodgate/internal/period"
)

// Folders maps each cadence to its archive-relative folder.
type Folders map[period.Cadence]string

// DefaultFolders names each folder after its cadence.
func DefaultFolders() Folders {
	f := Folders{}
	for _, c := range period.Cadences() {
		f[c] = c.String()
	}
	return f
}

// Rejection is a changed path refused before parsing.
type Rejection struct {
	Path    string
	Message string
}

func (r Rejection) Error() string {
	return r.Message
}

// Set is a grouped change list.
type Set struct {
	// Names holds the base names of the candidates of each cadence, in input order.
	Names    map[period.Cadence][]string
	Rejected []Rejection
	// Ignored counts paths outside every cadence folder.
	Ignored int
}

// Empty reports whether no cadence folder was touched.
func (s *Set) Empty() bool {
	return len(s.Names) == 0 && len(s.Rejected) == 0
}

// Normalize rewrites git's rename notation to the new path:
// "daily/{old.csv => new.csv}" and "old.csv => new.csv" both resolve to
// the right-hand side.
func Normalize(line string) string {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, "=>") {
		return line
	}

	open := strings.Index(line, "{")
	closing := strings.LastIndex(line, "}")
	if open >= 0 && closing > open {
		inner := line[open+1 : closing]
		if _, after, ok := strings.Cut(inner, "=>"); ok {
			joined := line[:open] + strings.TrimSpace(after) + line[closing+1:]
			return strings.ReplaceAll(joined, "//", "/")
		}
	}

	_, after, _ := strings.Cut(line, "=>")
	return strings.TrimSpace(after)
}

// ReadList reads one path per line, skipping blank lines and normalizing
// rename notation.
func ReadList(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := Normalize(sc.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading changed files: %w", err)
	}
	return paths, nil
}

// ReadListFile reads a changed-files list from disk.
func ReadListFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("changed files list not found at %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()
	return ReadList(f)
}

// Group assigns every path inside a cadence folder to that cadence. Non-CSV
// files and CSVs nested below a folder are rejected; everything else is
// ignored.
func Group(paths []string, folders Folders) *Set {
	byDir := make(map[string]period.Cadence, len(folders))
	for c, dir := range folders {
		byDir[strings.Trim(path.Clean(dir), "/")] = c
	}

	set := &Set{Names: map[period.Cadence][]string{}}
	for _, p := range paths {
		p = strings.TrimPrefix(path.Clean(p), "./")
		c, dir, ok := folderOf(p, byDir)
		if !ok {
			set.Ignored++
			continue
		}
		if !HasExtension(p, ".csv") {
			set.Rejected = append(set.Rejected, Rejection{
				Path:    p,
				Message: fmt.Sprintf("File '%s' does not have .csv extension.", p),
			})
			continue
		}
		if path.Dir(p) != dir {
			set.Rejected = append(set.Rejected, Rejection{
				Path:    p,
				Message: fmt.Sprintf("File '%s' is nested below '%s/'; files must sit directly in the folder.", p, dir),
			})
			continue
		}
		set.Names[c] = append(set.Names[c], path.Base(p))
	}
	return set
}

// folderOf finds the folder containing p at any depth. The longest matching
// folder wins.
func folderOf(p string, byDir map[string]period.Cadence) (period.Cadence, string, bool) {
	var (
		best  string
		found period.Cadence
	)
	for dir, c := range byDir {
		if strings.HasPrefix(p, dir+"/") && len(dir) > len(best) {
			best, found = dir, c
		}
	}
	return found, best, best != ""
}

// ListDir returns the sorted CSV file names directly inside dir. A missing
// directory has no files.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return FilterFiles(names, CSVOnly()), nil
}
