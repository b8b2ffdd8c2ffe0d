package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"audiopack/internal/atlas"
	"audiopack/internal/cache"
	"audiopack/internal/config"
	"audiopack/internal/encoder"
	"audiopack/internal/item"
	"audiopack/internal/journal"
	"audiopack/internal/logging"
)

// Options tune a single invocation.
type Options struct {
	// Packages limits encoding to these packages. Discovery, the cache and
	// the atlas always cover every configured package.
	Packages []string
	// Command is recorded in the journal.
	Command string
}

// Orchestrator wires discovery, remediation, encoding and persistence.
type Orchestrator struct {
	Config *config.Config
	Logger *slog.Logger
	// Runner executes ffmpeg; nil uses encoder.ExecRunner.
	Runner encoder.Runner
	// Confirmer gates remediation; nil declines unless Config.Yes is set.
	Confirmer Confirmer
	// Journal records the run when non-nil.
	Journal *journal.Store
	// OnProgress receives encode progress.
	OnProgress func(encoder.Snapshot)
	// ReadFile overrides how discovery reads sources.
	ReadFile func(string) ([]byte, error)
}

func (o *Orchestrator) confirmer() Confirmer {
	if o.Config.Yes {
		return AutoConfirm{}
	}
	if o.Confirmer != nil {
		return o.Confirmer
	}
	return declineAll{}
}

type declineAll struct{}

func (declineAll) Confirm(context.Context, string, []string) (bool, error) { return false, nil }

func (o *Orchestrator) discoverer() *item.Discoverer {
	return &item.Discoverer{
		Config:   o.Config,
		Logger:   o.Logger,
		Workers:  o.Config.Workers,
		ReadFile: o.ReadFile,
	}
}

func (o *Orchestrator) checkInputDir() error {
	info, err := os.Stat(o.Config.InputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputDirMissing, o.Config.InputDir)
		}
		return fmt.Errorf("stat input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInputDirMissing, o.Config.InputDir)
	}
	return nil
}

func (o *Orchestrator) loadSnapshot(logger *slog.Logger) cache.Map {
	if !o.Config.UseCache {
		logger.Debug("cache disabled, probing every source")
		return cache.Map{}
	}
	snapshot, err := cache.Load(o.Config.CacheDir)
	if err != nil {
		logging.WarnWithContext(logger, "cache unreadable, starting empty", "cache_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'audiopack cache clear' if this persists"),
			logging.String(logging.FieldImpact, "every source is re-read this run"),
		)
	}
	return snapshot
}

// Run performs a full build.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (report *Report, err error) {
	started := time.Now()
	report = &Report{RunID: uuid.NewString()}
	logger := logging.WithRunID(logging.NewComponentLogger(o.Logger, "build"), report.RunID)

	if err := o.checkInputDir(); err != nil {
		return report, err
	}
	lock, err := cache.Acquire(o.Config.CacheDir)
	if err != nil {
		return report, err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.Warn("failed to release cache lock", logging.Error(releaseErr))
		}
	}()

	o.journalBegin(ctx, logger, report, opts)
	defer func() {
		report.Total = time.Since(started)
		o.journalFinish(logger, report, err)
	}()

	enc := encoder.New(o.Config.FFmpeg, o.Runner, o.Logger)

	timer := logging.StartTimer(logger, "discovery")
	snapshot := o.loadSnapshot(logger)
	items, err := o.discover(ctx, snapshot, enc, report)
	report.Discovery = timer.Stop()
	if err != nil {
		return report, err
	}
	report.Items = len(items)
	logger.Info("discovery complete",
		logging.Int("items", len(items)),
		logging.Int("reused", report.Reused),
		logging.Int("passes", report.Passes),
		logging.String("took", logging.FormatDuration(report.Discovery)),
	)

	formats := encoder.Enabled(o.Config.Formats)
	pending := Pending(items, formats, o.packageFilter(logger, opts.Packages))
	report.Pending = len(pending)

	var results []encoder.Result
	if len(pending) > 0 {
		if err := enc.CheckAvailable(ctx); err != nil {
			return report, fmt.Errorf("%w: %w", ErrEncoderUnavailable, err)
		}
		timer = logging.StartTimer(logger, "encoding")
		executor := &encoder.Executor{
			Encoder:    enc,
			Formats:    formats,
			Workers:    o.Config.Workers,
			Logger:     o.Logger,
			OnProgress: o.OnProgress,
		}
		results = executor.Run(ctx, pending)
		report.Encoding = timer.Stop()
	} else {
		logger.Info("all artifacts up to date")
	}
	tally(report, results)

	if err := o.persist(ctx, logger, items, report); err != nil {
		return report, err
	}

	if len(report.Failures) > 0 {
		errs := []error{ErrEncodeFailed}
		for _, f := range report.Failures {
			logging.ErrorWithContext(logger, "encode failed", "encode_failed",
				logging.String(logging.FieldPath, f.Path),
				logging.String(logging.FieldOutput, f.Output),
				logging.Error(f.Err),
				logging.String(logging.FieldErrorHint, "rerun with --loglevel debug to see the ffmpeg command"),
			)
			errs = append(errs, f)
		}
		return report, errors.Join(errs...)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	logger.Info("build complete",
		logging.Int("items", report.Items),
		logging.Int("encoded", report.Encoded),
		logging.Int("shared", report.Shared),
		logging.Bytes("written", report.Bytes),
		logging.String("took", logging.FormatDuration(time.Since(started))),
	)
	return report, nil
}

// persist writes the cache and atlas from the full item set.
func (o *Orchestrator) persist(ctx context.Context, logger *slog.Logger, items []item.Item, report *Report) error {
	debug := logger.Enabled(ctx, slog.LevelDebug)
	if err := cache.Save(o.Config.CacheDir, cache.FromItems(items), debug); err != nil {
		return err
	}
	report.CachePath = filepath.Join(o.Config.CacheDir, cache.BinFile)

	atlasPath, err := atlas.Write(o.Config.OutputDir, items)
	if err != nil {
		return err
	}
	report.AtlasPath = atlasPath

	report.Languages = atlas.Build(items).Languages()
	logger.Debug("languages found", logging.Any("languages", report.Languages))
	return nil
}

func tally(report *Report, results []encoder.Result) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			report.Failed++
			report.Failures = append(report.Failures, ItemFailure{Path: r.Item.Path, Output: r.Item.OutputPath, Err: r.Err})
		case r.Shared:
			report.Shared++
		default:
			report.Encoded++
			report.Bytes += r.Bytes
		}
	}
}

// Pending returns the items missing at least one artifact among formats,
// restricted to the packages accepted by keep.
func Pending(items []item.Item, formats []encoder.Format, keep func(string) bool) []item.Item {
	var out []item.Item
	for _, it := range items {
		if keep != nil && !keep(it.Package) {
			continue
		}
		if len(encoder.Missing(it, formats)) > 0 {
			out = append(out, it)
		}
	}
	return out
}

// packageFilter intersects the requested packages with the configured ones.
func (o *Orchestrator) packageFilter(logger *slog.Logger, requested []string) func(string) bool {
	if len(requested) == 0 {
		return nil
	}
	var known []string
	for _, name := range requested {
		if _, ok := o.Config.Packages[name]; ok {
			known = append(known, name)
			continue
		}
		logging.WarnWithContext(logger, "ignoring unknown package filter", "package_filter_unknown",
			logging.String(logging.FieldPackage, name),
			logging.String(logging.FieldImpact, "package is not encoded this run"),
		)
	}
	return func(pkg string) bool { return slices.Contains(known, pkg) }
}

// Plan runs discovery once without remediation, encoding or writes.
func (o *Orchestrator) Plan(ctx context.Context, opts Options) (*Plan, error) {
	logger := logging.NewComponentLogger(o.Logger, "plan")
	if err := o.checkInputDir(); err != nil {
		return nil, err
	}
	res := o.discoverer().Discover(ctx, o.loadSnapshot(logger))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Plan{
		Items:              res.Items,
		Pending:            Pending(res.Items, encoder.Enabled(o.Config.Formats), o.packageFilter(logger, opts.Packages)),
		Reused:             res.Reused,
		FileErrors:         res.FileErrors,
		PackageErrors:      res.PackageErrors,
		UnmatchedOverrides: UnmatchedOverrides(o.Config, res.Items),
	}, nil
}

// UnmatchedOverrides returns the override names, including inherited ones,
// that match no discovered item of their package. Packages without
// unmatched overrides are omitted.
func UnmatchedOverrides(cfg *config.Config, items []item.Item) map[string][]string {
	seen := map[string]map[string]bool{}
	for _, it := range items {
		if seen[it.Package] == nil {
			seen[it.Package] = map[string]bool{}
		}
		seen[it.Package][it.Name] = true
	}
	out := map[string][]string{}
	for _, pkg := range cfg.PackageNames() {
		for name := range cfg.EffectiveSources(pkg) {
			if !seen[pkg][name] {
				out[pkg] = append(out[pkg], name)
			}
		}
		slices.Sort(out[pkg])
	}
	for pkg, names := range out {
		if len(names) == 0 {
			delete(out, pkg)
		}
	}
	return out
}

func (o *Orchestrator) journalBegin(ctx context.Context, logger *slog.Logger, report *Report, opts Options) {
	if o.Journal == nil {
		return
	}
	command := opts.Command
	if command == "" {
		command = "build"
	}
	err := o.Journal.Begin(ctx, journal.Run{ID: report.RunID, Command: command, Packages: opts.Packages})
	if err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run is missing from history"),
		)
	}
}

func (o *Orchestrator) journalFinish(logger *slog.Logger, report *Report, runErr error) {
	if o.Journal == nil {
		return
	}
	status := journal.StatusSucceeded
	message := ""
	switch {
	case errors.Is(runErr, context.Canceled):
		status = journal.StatusCancelled
		message = runErr.Error()
	case runErr != nil:
		status = journal.StatusFailed
		message = runErr.Error()
	}
	// The run context may already be cancelled; the journal write must still land.
	err := o.Journal.Finish(context.Background(), journal.Run{
		ID:         report.RunID,
		Status:     status,
		Items:      report.Items,
		Reused:     report.Reused,
		Encoded:    report.Encoded,
		Failed:     report.Failed,
		Remediated: report.Remediated,
		Passes:     report.Passes,
		Bytes:      report.Bytes,
		Error:      message,
	})
	if err != nil {
		logging.WarnWithContext(logger, "failed to record run result", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shows the run as still running"),
		)
	}
}
