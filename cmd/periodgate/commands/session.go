package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/funstockmarket/periodgate/cmd/periodgate/internal/clierr"
	"github.com/funstockmarket/periodgate/internal/admission"
	"github.com/funstockmarket/periodgate/internal/archive"
	"github.com/funstockmarket/periodgate/internal/changeset"
	"github.com/funstockmarket/periodgate/internal/config"
	"github.com/funstockmarket/periodgate/internal/dedupe"
	"github.com/funstockmarket/periodgate/internal/ledger"
	"github.com/funstockmarket/periodgate/internal/logging"
	"github.com/funstockmarket/periodgate/internal/metrics"
	"github.com/funstockmarket/periodgate/internal/period"
	"github.com/funstockmarket/periodgate/internal/projectroot"
	"github.com/funstockmarket/periodgate/internal/runner"
	"github.com/funstockmarket/periodgate/internal/serial"
)

const (
	modeCheck = "check"
	modeGate  = "gate"
)

// session is the resolved environment of one command invocation.
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	today    time.Time
	policy   admission.Policy
	out      io.Writer
	colorize bool
	now      func() time.Time
}

// openSession loads configuration and resolves the policy, processing date
// and logger. fallback is the policy used when neither --policy nor the
// configuration names one.
func openSession(cmd *cobra.Command, opts *rootOptions, fallback admission.Policy) (*session, error) {
	cfg, path, found, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	name := string(fallback)
	switch {
	case opts.policy != "":
		name = opts.policy
	case cfg.Policy != "":
		name = cfg.Policy
	}
	policy, err := admission.ParsePolicy(name)
	if err != nil {
		return nil, clierr.Usage(err, "invalid --policy")
	}

	today, err := cfg.Today(opts.today, time.Now())
	if err != nil {
		return nil, clierr.Usage(err, "invalid --today")
	}

	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: opts.verbose,
	})
	if err != nil {
		return nil, clierr.Usage(err, "configuring logging")
	}
	logger.Debug("configuration loaded",
		zap.String("path", path),
		zap.Bool("found", found),
		zap.String("root", cfg.Root),
		zap.String("policy", string(policy)),
		zap.Time("today", today))

	return &session{
		cfg:      cfg,
		logger:   logger,
		today:    today,
		policy:   policy,
		out:      cmd.OutOrStdout(),
		colorize: shouldColorize(cmd.OutOrStdout()),
		now:      time.Now,
	}, nil
}

// loadConfig loads the configuration. Without --root or --config the
// archive root is discovered by walking up from the working directory to the
// nearest configuration file or git checkout.
func loadConfig(opts *rootOptions) (*config.Config, string, bool, error) {
	path, root := opts.configPath, opts.root
	if path == "" && root == "" {
		if wd, err := os.Getwd(); err == nil {
			markers := append(append([]string(nil), config.CandidateNames...), projectroot.GitMarker)
			if dir, err := projectroot.Find(wd, markers...); err == nil {
				root = dir
				for _, name := range config.CandidateNames {
					if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
						path, root = filepath.Join(dir, name), ""
						break
					}
				}
			}
		}
	}
	cfg, used, found, err := config.Load(path, root)
	if err != nil {
		return nil, "", false, clierr.Usage(err, "loading configuration")
	}
	return cfg, used, found, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

// folderRef is one configured cadence folder.
type folderRef struct {
	cadence period.Cadence
	folder  string
}

// folders lists the configured folders in cadence order.
func (s *session) folders() []folderRef {
	byCadence := s.cfg.CadenceFolders()
	var out []folderRef
	for _, c := range period.Cadences() {
		if f, ok := byCadence[c]; ok {
			out = append(out, folderRef{cadence: c, folder: f})
		}
	}
	return out
}

func (s *session) trackers() *serial.TrackerStore {
	return serial.NewTrackerStore(s.cfg.TrackerDir)
}

func (s *session) changeRequests() admission.ChangeRequests {
	switch s.cfg.ChangeRequests.Provider {
	case "static":
		return archive.NewStaticChangeRequests(s.cfg.ChangeRequests.Blocked)
	case "gh":
		return archive.NewGHChangeRequests(s.cfg.Root, nil)
	default:
		return archive.NoChangeRequests{}
	}
}

// engine builds the admission engine for a mode. Gate runs read the
// committed archive, so a folder without a tracker still has a baseline
// there; check runs require the tracker.
func (s *session) engine(mode string, apply bool, deps admission.Deps) *admission.Engine {
	deps.Baselines = s.trackers()
	deps.Logger = s.logger
	return admission.NewEngine(admission.Options{
		Policy:           s.policy,
		Today:            s.today,
		MinYear:          s.cfg.MinYear,
		Apply:            apply,
		TrackersOptional: mode == modeGate,
	}, deps)
}

// gateChecks builds one folder check per configured folder from the files
// currently on disk.
func (s *session) gateChecks(dryRun bool) ([]*admission.FolderCheck, error) {
	committed := archive.NewGitArchive(s.cfg.Root, s.cfg.MainRef)
	s.logger.Debug("committed archive", zap.String("ref", committed.Ref()), zap.String("root", s.cfg.Root))
	e := s.engine(modeGate, !dryRun, admission.Deps{
		Archive:        committed,
		ChangeRequests: s.changeRequests(),
	})

	var checks []*admission.FolderCheck
	for _, f := range s.folders() {
		dir := s.cfg.FolderDir(f.folder)
		names, err := changeset.ListDir(dir)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeFailed, "listing folder "+f.folder, err)
		}
		checks = append(checks, admission.NewFolderCheck(e, admission.Batch{
			Cadence: f.cadence,
			Folder:  f.folder,
			Dir:     dir,
			Names:   names,
		}))
	}
	return checks, nil
}

// runPlan describes one execution of the runner. extra checks run before
// the folders; only restricts the run to those check IDs.
type runPlan struct {
	mode           string
	folders        []*admission.FolderCheck
	extra          []runner.Check
	rejected       []changeset.Rejection
	only           []string
	resume         bool
	dryRun         bool
	updateTrackers bool
	passBanner     string
}

func (p runPlan) checks() []runner.Check {
	out := append([]runner.Check(nil), p.extra...)
	for _, f := range p.folders {
		out = append(out, f)
	}
	return out
}

func (p runPlan) outcomes() []*admission.Outcome {
	var out []*admission.Outcome
	for _, f := range p.folders {
		if o := f.Outcome(); o != nil {
			out = append(out, o)
		}
	}
	return out
}

// failures combines the rejected paths and every folder issue of a run.
func (p runPlan) failures(outcomes []*admission.Outcome) error {
	var err error
	for _, r := range p.rejected {
		err = multierr.Append(err, r)
	}
	for _, o := range outcomes {
		err = multierr.Append(err, o.Err())
	}
	return err
}

func (s *session) execute(ctx context.Context, plan runPlan) error {
	start := s.now()
	store := runner.NewStateStore(s.cfg.StateDir)
	r := runner.NewRunner(plan.checks(), store, runner.Options{
		StopOnFailure: s.policy == admission.PolicyFailFast,
		Mode:          plan.mode,
		Policy:        string(s.policy),
		Out:           s.out,
		Logger:        s.logger,
		Now:           s.now,
	})

	var runErr error
	switch {
	case plan.resume:
		runErr = r.Resume(ctx)
	case len(plan.only) > 0:
		runErr = r.RunList(ctx, plan.only)
	default:
		runErr = r.RunAll(ctx)
	}
	if runErr != nil && !errors.Is(runErr, runner.ErrRunFailed) {
		return clierr.Wrap(clierr.CodeFailed, "run aborted", runErr)
	}

	last := r.LastRun()
	if last == nil {
		return nil
	}

	outcomes := plan.outcomes()
	for _, o := range outcomes {
		if !o.Passed() {
			s.logger.Info("folder rejected",
				zap.String("folder", o.Folder),
				zap.Int("issues", len(o.Issues)),
				zap.Error(o.Err()))
		}
	}
	s.printRenames(outcomes, plan.dryRun)

	failed := runErr != nil
	var causes error
	if failed {
		causes = plan.failures(outcomes)
	}
	if plan.updateTrackers && !plan.dryRun {
		if err := s.updateTrackers(outcomes); err != nil {
			_, _ = fmt.Fprintf(s.out, "ERROR: %v\n", err)
			failed = true
			causes = multierr.Append(causes, err)
		}
	}

	end := s.now()
	s.writeMetrics(outcomes, start, end)
	if !plan.dryRun {
		s.recordLedger(ctx, last, plan, outcomes, end)
	}

	_, _ = fmt.Fprintln(s.out, "")
	if failed {
		_, _ = fmt.Fprintln(s.out, renderBanner(false, "❌ PERIODGATE VALIDATION FAILED", s.colorize))
		return clierr.Wrap(clierr.CodeFailed, "validation failed", causes)
	}
	_, _ = fmt.Fprintln(s.out, renderBanner(true, plan.passBanner, s.colorize))
	return nil
}

func (s *session) printRenames(outcomes []*admission.Outcome, dryRun bool) {
	for _, o := range outcomes {
		if !o.Passed() {
			continue
		}
		if dryRun {
			for _, rn := range o.Renames {
				_, _ = fmt.Fprintf(s.out, "Would rename: %s/%s -> %s\n", o.Folder, rn.From, rn.To)
			}
			continue
		}
		for _, rn := range o.Applied {
			_, _ = fmt.Fprintf(s.out, "Renamed: %s/%s -> %s\n", o.Folder, rn.From, rn.To)
		}
	}
}

// updateTrackers raises each passing folder's tracker to the highest serial
// it now holds. Trackers never move backwards.
func (s *session) updateTrackers(outcomes []*admission.Outcome) error {
	store := s.trackers()
	for _, o := range outcomes {
		if !o.Passed() || o.HighestSerial == 0 {
			continue
		}
		current, err := store.Read(o.Cadence)
		if err != nil && !errors.Is(err, serial.ErrTrackerMissing) {
			return fmt.Errorf("reading tracker for %s: %w", o.Cadence, err)
		}
		if o.HighestSerial <= current {
			continue
		}
		if err := store.Write(o.Cadence, o.HighestSerial); err != nil {
			return fmt.Errorf("updating tracker for %s: %w", o.Cadence, err)
		}
		_, _ = fmt.Fprintf(s.out, "Tracker %s: %d -> %d\n", o.Cadence, current, o.HighestSerial)
	}
	return nil
}

func (s *session) writeMetrics(outcomes []*admission.Outcome, start, end time.Time) {
	if s.cfg.MetricsTextfile == "" {
		return
	}
	rec := metrics.NewRecorder()
	for _, o := range outcomes {
		kinds := make([]string, 0, len(o.Issues))
		for _, i := range o.Issues {
			kinds = append(kinds, string(i.Kind))
		}
		rec.Folder(o.Cadence.String(), o.Passed(), len(o.Admitted), len(o.Applied), kinds, o.HighestSerial)
	}
	rec.Finish(start, end)
	if err := rec.WriteTextfile(s.cfg.MetricsTextfile); err != nil {
		s.logger.Warn("metrics textfile not written", zap.Error(err))
	}
}

func (s *session) recordLedger(ctx context.Context, last *runner.LastRun, plan runPlan, outcomes []*admission.Outcome, end time.Time) {
	run := ledger.Run{
		ID:         last.RunID,
		Mode:       plan.mode,
		Policy:     string(s.policy),
		Status:     last.Status,
		Today:      s.today,
		StartedAt:  last.StartedAt,
		FinishedAt: end,
	}
	for _, rej := range plan.rejected {
		run.Issues = append(run.Issues, ledger.Issue{File: rej.Path, Kind: string(admission.KindParse), Message: rej.Message})
	}
	for _, o := range outcomes {
		renamed := map[string]bool{}
		for _, rn := range o.Applied {
			renamed[rn.From] = true
		}
		for _, r := range o.Admitted {
			run.Admissions = append(run.Admissions, ledger.Admission{
				Cadence:      o.Cadence.String(),
				Folder:       o.Folder,
				OriginalName: r.OriginalName,
				FinalName:    r.FinalName,
				Serial:       r.Serial,
				PeriodKey:    dedupe.Key(r),
				Renamed:      renamed[r.OriginalName],
			})
		}
		for _, i := range o.Issues {
			run.Issues = append(run.Issues, ledger.Issue{Folder: i.Folder, File: i.File, Kind: string(i.Kind), Message: i.Message})
		}
	}

	store, err := ledger.Open(ctx, s.cfg.LedgerPath)
	if err != nil {
		s.logger.Warn("ledger unavailable", zap.Error(err))
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.Record(ctx, run); err != nil {
		s.logger.Warn("run not recorded in ledger", zap.String("run_id", run.ID), zap.Error(err))
	}
}
