// Package admission runs the per-folder admission pipeline: parse every
// candidate name, validate it against the calendar, check it against the
// committed archive and the rest of the batch, assign serials, and rename
// the admitted files once the whole folder has passed.
package admission

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/funstockmarket/periodgate/internal/calendar"
	"github.com/funstockmarket/periodgate/internal/dedupe"
	"github.com/funstockmarket/periodgate/internal/period"
	"github.com/funstockmarket/periodgate/internal/serial"
)

// Archive lists the files already committed to the main line of a folder.
type Archive interface {
	Committed(ctx context.Context, folder string) ([]string, error)
}

// ChangeRequests reports whether an open change request already touches a folder.
type ChangeRequests interface {
	Open(ctx context.Context, folder string) (bool, error)
}

// Baselines supplies the last serial assigned for a cadence before this run.
type Baselines interface {
	Read(c period.Cadence) (int, error)
}

// Renamer moves a file within a folder directory.
type Renamer interface {
	Rename(dir, from, to string) error
}

// Options configure one engine.
type Options struct {
	Policy Policy
	// Today is the processing date every calendar rule is evaluated against.
	Today   time.Time
	MinYear int
	// Apply performs the planned renames of a passing folder.
	Apply bool
	// TrackersOptional treats a missing tracker as baseline 0, leaving the
	// committed archive to supply the baseline.
	TrackersOptional bool
}

// Deps are the engine's collaborators. Nil fields fall back to an empty
// archive, no change requests, a zero baseline and the filesystem renamer.
type Deps struct {
	Archive        Archive
	ChangeRequests ChangeRequests
	Baselines      Baselines
	Renamer        Renamer
	Logger         *zap.Logger
}

// Batch is the set of candidate names for one cadence folder.
type Batch struct {
	Cadence period.Cadence
	// Folder is the archive-relative folder name.
	Folder string
	// Dir is the on-disk directory renames are applied in.
	Dir   string
	Names []string
}

// Engine evaluates batches. It holds no per-folder state, so one engine can
// evaluate any number of folders.
type Engine struct {
	opts      Options
	validator *calendar.Validator
	archive   Archive
	changes   ChangeRequests
	baselines Baselines
	renamer   Renamer
	logger    *zap.Logger
}

// NewEngine constructs an engine.
func NewEngine(opts Options, deps Deps) *Engine {
	if opts.Policy == "" {
		opts.Policy = PolicyFailFast
	}
	if opts.Today.IsZero() {
		opts.Today = time.Now()
	}
	e := &Engine{
		opts:      opts,
		validator: calendar.New(opts.MinYear),
		archive:   deps.Archive,
		changes:   deps.ChangeRequests,
		baselines: deps.Baselines,
		renamer:   deps.Renamer,
		logger:    deps.Logger,
	}
	if e.archive == nil {
		e.archive = emptyArchive{}
	}
	if e.changes == nil {
		e.changes = noChangeRequests{}
	}
	if e.baselines == nil {
		e.baselines = zeroBaselines{}
	}
	if e.renamer == nil {
		e.renamer = FSRenamer{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Evaluate runs the admission pipeline for one folder and, when the folder
// passes and the engine applies renames, renames the admitted files.
func (e *Engine) Evaluate(ctx context.Context, b Batch) *Outcome {
	out := &Outcome{Cadence: b.Cadence, Folder: b.Folder, Dir: b.Dir}
	fr := &folderRun{
		engine: e,
		batch:  b,
		out:    out,
		today:  e.opts.Today,
		log:    e.logger.With(zap.String("folder", b.Folder), zap.Stringer("cadence", b.Cadence)),
	}
	fr.evaluate(ctx)

	if len(out.Issues) > 0 {
		out.Status = StatusFailed
		fr.log.Info("folder failed admission", zap.Int("issues", len(out.Issues)))
		return out
	}
	out.Status = StatusPassed
	if e.opts.Apply {
		fr.applyRenames()
	}
	fr.log.Info("folder passed admission",
		zap.Int("admitted", len(out.Admitted)),
		zap.Int("renamed", len(out.Applied)),
		zap.Int("skipped", out.Skipped))
	return out
}

type folderRun struct {
	engine *Engine
	batch  Batch
	out    *Outcome
	today  time.Time
	log    *zap.Logger

	pool  dedupe.Pool
	alloc *serial.Allocator
}

// report records an issue and reports whether evaluation must stop.
func (fr *folderRun) report(issue *Issue) bool {
	fr.out.Issues = append(fr.out.Issues, issue)
	fr.log.Debug("admission issue", zap.String("kind", string(issue.Kind)), zap.String("file", issue.File), zap.String("reason", issue.Message))
	return fr.engine.opts.Policy == PolicyFailFast
}

func (fr *folderRun) evaluate(ctx context.Context) {
	b := fr.batch
	if !b.Cadence.Valid() {
		fr.report(newIssue(KindEnvironment, b.Folder, "", calendar.ErrUnknownCadence, "Unknown cadence for folder %s", b.Folder))
		return
	}

	blocked, err := fr.engine.changes.Open(ctx, b.Folder)
	if err != nil {
		fr.report(newIssue(KindEnvironment, b.Folder, "", err, "Cannot check open change requests for %s: %v", b.Folder, err))
		return
	}
	if blocked {
		fr.report(newIssue(KindBlocked, b.Folder, "", ErrFolderBlocked, "PR exists for the folder %s", b.Folder))
		return
	}

	committed, stop := fr.loadCommitted(ctx)
	if stop {
		return
	}

	records, stop := fr.parseAll()
	if stop {
		return
	}

	p, stop := fr.partition(records, committed)
	if stop {
		return
	}

	if p.holdings != nil && calendar.IsWeekend(fr.today) {
		if fr.report(newIssue(KindHoldings, b.Folder, p.holdings.OriginalName, ErrWeekendHoldings, "Weekend file upload in %s", b.Folder)) {
			return
		}
		p.holdings = nil
	}
	if p.holdings != nil {
		p.holdings.StampHoldings(fr.today)
	}

	tracked, err := fr.engine.baselines.Read(b.Cadence)
	switch {
	case err == nil:
	case fr.engine.opts.TrackersOptional && errors.Is(err, serial.ErrTrackerMissing):
		tracked = 0
		fr.log.Debug("no serial tracker, using committed archive", zap.String("cadence", b.Cadence.String()))
	default:
		tracked = 0
		if fr.report(newIssue(KindEnvironment, b.Folder, "", err, "Cannot read serial tracker for %s: %v", b.Cadence, err)) {
			return
		}
	}
	verifyBase := max(tracked, serial.Highest(p.committed))
	assignBase := max(verifyBase, serial.Highest(p.ordinary))
	fr.out.Baseline = verifyBase

	fr.pool = dedupe.NewPool(p.committed...)
	fr.alloc = serial.NewAllocator(assignBase)

	if fr.admitMissing(p.missing) {
		return
	}
	if fr.admitOrdinary(p.ordinary, verifyBase) {
		return
	}
	if p.holdings != nil && fr.admitHoldings(p.holdings) {
		return
	}
	fr.out.HighestSerial = max(assignBase, fr.alloc.Last())
}

func (fr *folderRun) loadCommitted(ctx context.Context) ([]*period.Record, bool) {
	names, err := fr.engine.archive.Committed(ctx, fr.batch.Folder)
	if err != nil {
		stop := fr.report(newIssue(KindEnvironment, fr.batch.Folder, "", err, "Cannot list committed files for %s: %v", fr.batch.Folder, err))
		return nil, stop
	}
	records := make([]*period.Record, 0, len(names))
	for _, name := range names {
		r, err := period.Parse(name, fr.batch.Cadence)
		if err != nil {
			fr.log.Debug("ignoring unparsable committed file", zap.String("file", name))
			continue
		}
		records = append(records, r)
	}
	return records, false
}

// parseAll parses every candidate. Any parse failure blocks the folder; the
// accumulate policy still reports every unparsable name before stopping.
func (fr *folderRun) parseAll() ([]*period.Record, bool) {
	records := make([]*period.Record, 0, len(fr.batch.Names))
	failed := false
	for _, name := range fr.batch.Names {
		r, err := period.Parse(name, fr.batch.Cadence)
		if err != nil {
			failed = true
			if fr.report(newIssue(KindParse, fr.batch.Folder, name, err, "Invalid file format: %s/%s", fr.batch.Folder, name)) {
				return nil, true
			}
			continue
		}
		records = append(records, r)
	}
	return records, failed
}

type partition struct {
	committed []*period.Record
	missing   []*period.Record
	ordinary  []*period.Record
	holdings  *period.Record
}

func (fr *folderRun) partition(records, committed []*period.Record) (partition, bool) {
	p := partition{committed: committed}
	exists := make(map[string]bool, len(committed))
	for _, c := range committed {
		exists[c.OriginalName] = true
	}

	for _, r := range records {
		if exists[r.OriginalName] {
			fr.out.Skipped++
			continue
		}
		switch {
		case r.Holdings:
			if p.holdings != nil {
				if fr.report(newIssue(KindHoldings, fr.batch.Folder, r.OriginalName, ErrMultipleHoldings, "Multiple holdings.csv in %s", fr.batch.Folder)) {
					return p, true
				}
				continue
			}
			p.holdings = r
		case r.Missing:
			p.missing = append(p.missing, r)
		default:
			p.ordinary = append(p.ordinary, r)
		}
	}
	return p, false
}

// calendarCheck reports r's calendar violations: the first one under
// fail-fast, all of them otherwise. It returns (rejected, stop).
func (fr *folderRun) calendarCheck(r *period.Record) (bool, bool) {
	violations, err := fr.engine.validator.Validate(r, fr.today)
	if err != nil {
		return true, fr.report(newIssue(KindEnvironment, fr.batch.Folder, r.OriginalName, err, "Cannot validate %s: %v", r.OriginalName, err))
	}
	for _, v := range violations {
		if fr.report(newIssue(KindCalendar, fr.batch.Folder, r.OriginalName, v, "%s", v.Error())) {
			return true, true
		}
	}
	return len(violations) > 0, false
}

func (fr *folderRun) admitMissing(missing []*period.Record) bool {
	for _, r := range serial.SortByPeriod(missing) {
		if c := fr.pool.PeriodConflict(r); c != nil {
			if fr.report(newIssue(KindDuplicatePeriod, fr.batch.Folder, r.OriginalName, nil,
				"Duplicate time period %s for missing file '%s' (already covered by '%s')", dedupe.Key(r), r.OriginalName, c.OriginalName)) {
				return true
			}
			continue
		}
		if rejected, stop := fr.calendarCheck(r); rejected {
			if stop {
				return true
			}
			continue
		}

		r.SetSerial(fr.alloc.Peek())
		name := period.BuildName(r)
		if c := fr.pool.NameConflict(name, r); c != nil {
			r.Serial, r.HasSerial = 0, false
			if fr.report(newIssue(KindDuplicateName, fr.batch.Folder, r.OriginalName, nil,
				"Final filename '%s' for missing file '%s' duplicates '%s'", name, r.OriginalName, c.OriginalName)) {
				return true
			}
			continue
		}
		fr.alloc.Take()
		fr.admit(r, name, true)
	}
	return false
}

func (fr *folderRun) admitOrdinary(ordinary []*period.Record, baseline int) bool {
	for _, r := range serial.SortByPeriod(ordinary) {
		if c := fr.pool.PeriodConflict(r); c != nil {
			if fr.report(newIssue(KindDuplicatePeriod, fr.batch.Folder, r.OriginalName, nil,
				"Duplicate time period %s in '%s' (already covered by '%s')", dedupe.Key(r), r.OriginalName, c.OriginalName)) {
				return true
			}
			continue
		}
		if rejected, stop := fr.calendarCheck(r); rejected {
			if stop {
				return true
			}
			continue
		}
		name := period.BuildName(r)
		if c := fr.pool.NameConflict(name, r); c != nil {
			if fr.report(newIssue(KindDuplicateName, fr.batch.Folder, r.OriginalName, nil,
				"Final filename '%s' of '%s' duplicates '%s'", name, r.OriginalName, c.OriginalName)) {
				return true
			}
			continue
		}
		fr.admit(r, r.OriginalName, false)
	}

	for _, issue := range serial.Verify(ordinary, baseline) {
		if fr.report(newIssue(KindSequence, fr.batch.Folder, issue.File, issue, "%s", issue.Error())) {
			return true
		}
	}
	return false
}

func (fr *folderRun) admitHoldings(r *period.Record) bool {
	if c := fr.pool.PeriodConflict(r); c != nil {
		return fr.report(newIssue(KindDuplicatePeriod, fr.batch.Folder, r.OriginalName, nil,
			"Duplicate time period (holdings) %s already covered by '%s'", dedupe.Key(r), c.OriginalName))
	}
	r.SetSerial(fr.alloc.Peek())
	name := period.BuildName(r)
	if c := fr.pool.NameConflict(name, r); c != nil {
		r.Serial, r.HasSerial = 0, false
		return fr.report(newIssue(KindDuplicateName, fr.batch.Folder, r.OriginalName, nil,
			"Holdings final filename '%s' conflicts with '%s'", name, c.OriginalName))
	}
	fr.alloc.Take()
	fr.admit(r, name, true)
	return false
}

func (fr *folderRun) admit(r *period.Record, finalName string, rename bool) {
	r.FinalName = finalName
	fr.pool = fr.pool.With(r)
	fr.out.Admitted = append(fr.out.Admitted, r)
	if rename && finalName != r.OriginalName {
		fr.out.Renames = append(fr.out.Renames, Rename{
			Cadence: fr.batch.Cadence,
			Folder:  fr.batch.Folder,
			From:    r.OriginalName,
			To:      finalName,
			Serial:  r.Serial,
		})
	}
	fr.log.Debug("file admitted", zap.String("file", r.OriginalName), zap.String("final", finalName), zap.Int("serial", r.Serial))
}

// applyRenames performs the planned renames in order. The first failure
// stops the folder; files renamed before it stay renamed.
func (fr *folderRun) applyRenames() {
	for _, rn := range fr.out.Renames {
		if err := fr.engine.renamer.Rename(fr.batch.Dir, rn.From, rn.To); err != nil {
			msg := "Rename failed: %s -> %s: %v"
			if errors.Is(err, ErrDestinationExists) {
				msg = "Cannot rename %s -> %s: %v"
			}
			fr.report(newIssue(KindRename, fr.batch.Folder, rn.From, err, msg, rn.From, rn.To, err))
			fr.out.Status = StatusFailed
			return
		}
		fr.out.Applied = append(fr.out.Applied, rn)
		fr.log.Info("renamed", zap.String("from", rn.From), zap.String("to", rn.To))
	}
}

type emptyArchive struct{}

func (emptyArchive) Committed(context.Context, string) ([]string, error) { return nil, nil }

type noChangeRequests struct{}

func (noChangeRequests) Open(context.Context, string) (bool, error) { return false, nil }

type zeroBaselines struct{}

func (zeroBaselines) Read(period.Cadence) (int, error) { return 0, nil }
