package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"audiopack/internal/build"
	"audiopack/internal/encoder"
	"audiopack/internal/item"
	"audiopack/internal/journal"
	"audiopack/internal/logging"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Discover, convert and encode every package, then write the atlas",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			store := openJournalAdvisory(ctx, logger)
			if store != nil {
				defer store.Close()
			}

			progress := newProgressReporter(cmd.ErrOrStderr())
			o := &build.Orchestrator{
				Config:     ctx.configValue(),
				Logger:     logger.Logger,
				Confirmer:  build.PromptConfirmer{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()},
				Journal:    store,
				OnProgress: progress.callback(),
			}
			report, err := o.Run(cmd.Context(), build.Options{Packages: ctx.flags.packageFilter(), Command: "build"})
			progress.finish()
			if report != nil && report.Passes > 0 {
				printReport(cmd.OutOrStdout(), report)
				if logger.DebugEnabled() {
					printFailures(cmd.OutOrStdout(), ctx.configValue().InputDir, report.Failures)
				}
			}
			return err
		},
	}
}

func openJournalAdvisory(ctx *commandContext, logger *logging.Logger) *journal.Store {
	store, err := ctx.openJournal()
	if err != nil {
		logging.WarnWithContext(logger.Logger, "run history unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not recorded"),
		)
		return nil
	}
	return store
}

func printReport(out io.Writer, r *build.Report) {
	rows := [][]string{
		{"Sources", fmt.Sprintf("%d", r.Items)},
		{"From cache", fmt.Sprintf("%d", r.Reused)},
		{"Needed encoding", fmt.Sprintf("%d", r.Pending)},
		{"Encoded", fmt.Sprintf("%d", r.Encoded)},
		{"Shared output", fmt.Sprintf("%d", r.Shared)},
		{"Failed", fmt.Sprintf("%d", r.Failed)},
		{"Converted sources", fmt.Sprintf("%d", r.Remediated)},
		{"Discovery passes", fmt.Sprintf("%d", r.Passes)},
		{"Written", humanize.IBytes(uint64(max(r.Bytes, 0)))},
		{"Took", logging.FormatDuration(r.Total)},
	}
	if len(r.Languages) > 0 {
		rows = append(rows, []string{"Languages", strings.Join(r.Languages, ", ")})
	}
	if r.AtlasPath != "" {
		rows = append(rows, []string{"Atlas", r.AtlasPath})
	}
	fmt.Fprintln(out, renderTable([]string{"Build", r.RunID}, rows, []columnAlignment{alignLeft, alignRight}))
}

// printFailures lists every failed format with the encoder's own output.
func printFailures(out io.Writer, inputDir string, failures []build.ItemFailure) {
	if len(failures) == 0 {
		return
	}
	var rows [][]string
	for _, f := range failures {
		var encErr *encoder.EncodeError
		if !errors.As(f.Err, &encErr) {
			rows = append(rows, []string{relativeTo(inputDir, f.Path), "-", f.Err.Error()})
			continue
		}
		for _, ff := range encErr.Failures() {
			detail := ff.Err.Error()
			var cmdErr *encoder.CommandError
			if errors.As(ff.Err, &cmdErr) && cmdErr.Output != "" {
				detail = lastLine(cmdErr.Output)
			}
			rows = append(rows, []string{relativeTo(inputDir, f.Path), ff.Format, detail})
		}
	}
	fmt.Fprintln(out, renderTable([]string{"Source", "Format", "Encoder output"}, rows, nil))
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show what a build would encode without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			o := &build.Orchestrator{Config: cfg, Logger: logger.Logger}
			plan, err := o.Plan(cmd.Context(), build.Options{Packages: ctx.flags.packageFilter()})
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), cfg.InputDir, encoder.Enabled(cfg.Formats), plan)
			return nil
		},
	}
}

func printPlan(out io.Writer, inputDir string, formats []encoder.Format, plan *build.Plan) {
	fmt.Fprintf(out, "Sources: %d (%d from cache)\n", len(plan.Items), plan.Reused)

	if len(plan.Pending) == 0 {
		fmt.Fprintln(out, "Needs encoding: none")
	} else {
		rows := make([][]string, 0, len(plan.Pending))
		for _, it := range plan.Pending {
			var missing []string
			for _, f := range encoder.Missing(it, formats) {
				missing = append(missing, f.Name)
			}
			rows = append(rows, []string{it.Package, relativeTo(inputDir, it.Path), langLabel(it.Lang), it.OutfileStem(), strings.Join(missing, ",")})
		}
		fmt.Fprintf(out, "Needs encoding: %d\n", len(plan.Pending))
		fmt.Fprintln(out, renderTable([]string{"Package", "Source", "Lang", "Output", "Missing"}, rows, nil))
	}

	if len(plan.FileErrors) > 0 {
		rows := make([][]string, 0, len(plan.FileErrors))
		for _, fe := range plan.FileErrors {
			rows = append(rows, []string{relativeTo(inputDir, fe.Path), fe.Kind.String(), yesNo(fe.Fixable()), fe.Err.Error()})
		}
		fmt.Fprintln(out, "Source problems:")
		fmt.Fprintln(out, renderTable([]string{"Source", "Kind", "Fixable", "Detail"}, rows, nil))
	}
	if len(plan.PackageErrors) > 0 {
		fmt.Fprintln(out, "Package problems:")
		for _, pe := range plan.PackageErrors {
			fmt.Fprintf(out, "  - %s\n", pe.Error())
		}
	}
	if len(plan.UnmatchedOverrides) > 0 {
		fmt.Fprintln(out, "Overrides matching no source:")
		for _, pkg := range slices.Sorted(maps.Keys(plan.UnmatchedOverrides)) {
			fmt.Fprintf(out, "  - %s: %s\n", pkg, strings.Join(plan.UnmatchedOverrides[pkg], ", "))
		}
	}
}

func relativeTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func langLabel(lang string) string {
	if lang == item.NoLanguage {
		return "-"
	}
	return lang
}
