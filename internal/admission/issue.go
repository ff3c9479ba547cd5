package admission

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Kind classifies why a file or folder was rejected.
type Kind string

const (
	KindParse           Kind = "parse"
	KindCalendar        Kind = "calendar"
	KindSequence        Kind = "sequence"
	KindDuplicatePeriod Kind = "duplicate-period"
	KindDuplicateName   Kind = "duplicate-name"
	KindEnvironment     Kind = "environment"
	KindRename          Kind = "rename"
	KindBlocked         Kind = "blocked"
	KindHoldings        Kind = "holdings"
)

var (
	// ErrFolderBlocked marks a folder with an open change request.
	ErrFolderBlocked = errors.New("open change request exists")
	// ErrMultipleHoldings marks a second holdings file in one folder.
	ErrMultipleHoldings = errors.New("multiple holdings")
	// ErrWeekendHoldings marks a holdings upload on a Saturday or Sunday.
	ErrWeekendHoldings = errors.New("weekend holdings upload")
)

// Issue is one reason a folder failed admission.
type Issue struct {
	Kind    Kind
	Folder  string
	File    string
	Message string
	Err     error
}

func (i *Issue) Error() string {
	return i.Message
}

func (i *Issue) Unwrap() error {
	return i.Err
}

func newIssue(kind Kind, folder, file string, err error, format string, args ...any) *Issue {
	return &Issue{
		Kind:    kind,
		Folder:  folder,
		File:    file,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Policy decides how far evaluation continues after the first issue.
type Policy string

const (
	// PolicyFailFast stops a folder, and the run, at the first issue.
	PolicyFailFast Policy = "fail-fast"
	// PolicyAccumulate collects every issue of every folder before failing.
	PolicyAccumulate Policy = "accumulate"
)

// ParsePolicy resolves a policy name. The empty string selects fail-fast.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyFailFast), "failfast":
		return PolicyFailFast, nil
	case string(PolicyAccumulate), "accumulate-all", "all":
		return PolicyAccumulate, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// Combine merges issues into one error, nil when there are none.
func Combine(issues []*Issue) error {
	var err error
	for _, i := range issues {
		err = multierr.Append(err, i)
	}
	return err
}
